package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/ui"
	"github.com/MrLemur/gitmeup/pkg/helpers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdvisor talks to an OpenAI-compatible chat completions endpoint
type OpenAIAdvisor struct {
	client      openai.Client
	baseURL     string
	model       string
	temperature float64
}

// NewOpenAIAdvisor creates an advisor from cfg. An empty base URL selects the
// public OpenAI endpoint.
func NewOpenAIAdvisor(cfg AdvisorConfig) *OpenAIAdvisor {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	// one generation request per run, no silent retries
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return &OpenAIAdvisor{
		client:      client,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Propose implements Advisor.Propose
func (a *OpenAIAdvisor) Propose(ctx context.Context, repoCtx models.RepoContext) (string, error) {
	userPrompt := BuildUserPrompt(repoCtx)
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Temperature: openai.Float(a.temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(userPrompt),
		},
	}

	ui.LogInfo("Requesting commit proposal from %s (%s, est. %d tokens)",
		ProviderOpenAI, a.model, EstimateTokenCount(SystemPrompt)+EstimateTokenCount(userPrompt))

	content, err := a.chat(ctx, params)
	if err != nil {
		return "", errors.NewAdvisoryError(ProviderOpenAI, a.model, err)
	}
	return content, nil
}

func (a *OpenAIAdvisor) chat(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	ui.LogDebug("POST %s chat completions", a.baseURL)
	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = helpers.TruncateString(strings.TrimSpace(apiErr.RawJSON()), 200)
			}
			return "", fmt.Errorf("status %d: %s", apiErr.StatusCode, message)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("response missing choices")
	}
	choice := completion.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("response empty")
	}
	ui.LogDebug("Received %d characters (finish reason %q)", len(choice.Message.Content), choice.FinishReason)
	return choice.Message.Content, nil
}

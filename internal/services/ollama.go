package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/ui"
	ollama "github.com/ollama/ollama/api"
)

// OllamaAdvisor asks a local Ollama server for a proposal
type OllamaAdvisor struct {
	client      *ollama.Client
	model       string
	temperature float64
}

// NewOllamaAdvisor creates an advisor from cfg. An empty base URL falls back
// to OLLAMA_HOST and the Ollama default.
func NewOllamaAdvisor(cfg AdvisorConfig) (*OllamaAdvisor, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}

	var client *ollama.Client
	if strings.TrimSpace(cfg.BaseURL) == "" {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, errors.NewAdvisoryError(ProviderOllama, model, fmt.Errorf("failed to create Ollama client: %v", err))
		}
		client = c
	} else {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, errors.NewConfigError("base-url", cfg.BaseURL, "must be an absolute URL")
		}
		client = ollama.NewClient(base, http.DefaultClient)
	}

	return &OllamaAdvisor{client: client, model: model, temperature: cfg.Temperature}, nil
}

// Propose implements Advisor.Propose
func (a *OllamaAdvisor) Propose(ctx context.Context, repoCtx models.RepoContext) (string, error) {
	userPrompt := BuildUserPrompt(repoCtx)
	totalTokens := EstimateTokenCount(SystemPrompt) + EstimateTokenCount(userPrompt)

	// The context window check is best effort; older servers may not report it
	if contextSize, err := a.ContextSize(ctx); err != nil {
		ui.LogDebug("Skipping context window check: %v", err)
	} else if needed := totalTokens + contextSize/4; needed > contextSize {
		return "", errors.NewAdvisoryError(ProviderOllama, a.model,
			fmt.Errorf("request would exceed model context window (%d tokens needed, %d available)", needed, contextSize))
	}

	messages := []ollama.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: userPrompt},
	}

	ui.LogInfo("Requesting commit proposal from %s (%s, est. %d tokens)", ProviderOllama, a.model, totalTokens)
	resp, err := a.send(ctx, messages)
	if err != nil {
		return "", errors.NewAdvisoryError(ProviderOllama, a.model, err)
	}
	if strings.TrimSpace(resp) == "" {
		return "", errors.NewAdvisoryError(ProviderOllama, a.model, fmt.Errorf("response empty"))
	}
	return resp, nil
}

func (a *OllamaAdvisor) send(ctx context.Context, messages []ollama.Message) (string, error) {
	stream := false
	var response strings.Builder
	err := a.client.Chat(
		ctx,
		&ollama.ChatRequest{
			Model:    a.model,
			Messages: messages,
			Stream:   &stream,
			Options:  map[string]any{"temperature": a.temperature},
		},
		func(resp ollama.ChatResponse) error {
			response.WriteString(resp.Message.Content)
			return nil
		},
	)
	if err != nil {
		return "", err
	}
	return response.String(), nil
}

// ContextSize retrieves the context window size for the configured model
func (a *OllamaAdvisor) ContextSize(ctx context.Context) (int, error) {
	info, err := a.client.Show(ctx, &ollama.ShowRequest{Model: a.model})
	if err != nil {
		return 0, fmt.Errorf("failed to get model info from Ollama: %v", err)
	}
	if info.ModelInfo == nil {
		return 0, fmt.Errorf("no model info available for %s", a.model)
	}

	// The key looks like "<architecture>.context_length"
	for key, value := range info.ModelInfo {
		if !strings.HasSuffix(key, ".context_length") {
			continue
		}
		var size int
		switch v := value.(type) {
		case float64:
			size = int(v)
		case int:
			size = v
		case int64:
			size = int(v)
		case string:
			size, _ = strconv.Atoi(v)
		}
		if size > 0 {
			ui.LogDebug("Found context size %d from key %s", size, key)
			return size, nil
		}
	}
	return 0, fmt.Errorf("could not determine context size for model %s", a.model)
}

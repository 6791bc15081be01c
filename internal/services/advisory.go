package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
)

// Supported advisory providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Default models per provider
const (
	DefaultOpenAIModel = "gpt-4.1-mini"
	DefaultOllamaModel = "qwen2.5:14b"
)

// DefaultOpenAIBaseURL is used when no base URL is configured
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// Advisor proposes a command batch for a repository snapshot. The response is
// returned verbatim; only its single fenced shell block is authoritative.
type Advisor interface {
	Propose(ctx context.Context, repoCtx models.RepoContext) (string, error)
}

// AdvisorConfig binds an advisor to its provider, model and credential
type AdvisorConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// DefaultModel returns the model used for provider when none is configured
func DefaultModel(provider string) string {
	if provider == ProviderOllama {
		return DefaultOllamaModel
	}
	return DefaultOpenAIModel
}

// NewAdvisor creates the advisor for cfg.Provider
func NewAdvisor(cfg AdvisorConfig) (Advisor, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIAdvisor(cfg), nil
	case ProviderOllama:
		advisor, err := NewOllamaAdvisor(cfg)
		if err != nil {
			return nil, err
		}
		return advisor, nil
	default:
		return nil, errors.NewConfigError("provider", cfg.Provider, "must be one of openai, ollama")
	}
}

// SystemPrompt instructs the advisory service on the output it must produce
const SystemPrompt = `You write Conventional Commits 1.0.0 for a developer and turn their uncommitted changes into shell commands.

Commit subject format:
<type>[optional scope][!]: <description>

Allowed types: feat, fix, docs, refactor, chore, style, test, build, ci, perf, revert.
Mark breaking changes with "!" after the type or scope. Do not use any other type.

You receive three sections: the output of "git diff --stat", the output of
"git status --short", and the body of "git diff" with some binary or image
formats left out. Files whose diff body was left out are listed separately.

Deciding commits:
- Keep each commit atomic and focused on one concern (feature, fix, refactor, docs, tests, CI, assets).
- Split heterogeneous changes into several commits.
- Only operate on files that appear in the status or diff. Never invent or rename paths.
- Respect staged vs unstaged state when it is visible. Otherwise assume every file must be added.

Allowed commands:
- git add, git rm, git mv, and git commit -m "<subject>" only.
- For each commit, output its git add/rm/mv commands first and the git commit right after them.
- Never output git push, git pull, git fetch, git remote, or any other command or program.
- No pipes, redirections, command chaining, variables, or command substitution.

Path quoting:
- Paths are pasted into a POSIX shell exactly as written.
- Leave a path unquoted when it contains only ASCII letters, digits and the characters . _ / - + = , @ : %.
- Otherwise wrap it in double quotes, escaping " \ $ and backquote with a backslash.
- Always quote paths with whitespace, brackets, braces, parentheses, glob characters, shell operators, quotes, ~, #, ! or any non-ASCII character.

Output format:
- Reply with exactly ONE fenced code block tagged bash and nothing outside it.
- One command per line. No comments and no prose.
- A single blank line may separate commit groups.

Commit descriptions are short, imperative and specific, for example "update DTO proposal section copy".`

// BuildUserPrompt serializes a repository snapshot for the advisory service
func BuildUserPrompt(repoCtx models.RepoContext) string {
	var b strings.Builder
	b.WriteString("Here are the current git changes.\n\n")

	writeSection(&b, "git diff --stat", repoCtx.StatShort, "(no diff stat output)")
	writeSection(&b, "git status --short", repoCtx.StatusShort, "(no status output)")

	diffTitle := "git diff"
	if len(repoCtx.ExcludedPatterns) > 0 {
		diffTitle = fmt.Sprintf("git diff (excluding %s)", strings.Join(repoCtx.ExcludedPatterns, ", "))
	}
	writeSection(&b, diffTitle, repoCtx.DiffBody, "(no diff output)")
	if repoCtx.DiffTruncated {
		b.WriteString("The diff body above was truncated.\n\n")
	}

	if len(repoCtx.ExcludedPaths) > 0 {
		b.WriteString("=== files with diff body excluded ===\n")
		for _, p := range repoCtx.ExcludedPaths {
			b.WriteString(p)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("Based on this, generate atomic Conventional Commits and the matching git add/rm/mv + git commit commands as instructed.\n")
	return b.String()
}

func writeSection(b *strings.Builder, title, body, empty string) {
	fmt.Fprintf(b, "=== %s ===\n", title)
	if strings.TrimSpace(body) == "" {
		body = empty
	}
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n\n")
}

// EstimateTokenCount provides a rough estimate of token count for text
func EstimateTokenCount(text string) int {
	// ~4 characters per token for English text
	return len(text) / 4
}

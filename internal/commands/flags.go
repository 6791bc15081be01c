package commands

import (
	"os"
	"strings"
	"time"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/services"
	"github.com/spf13/cobra"
)

// Environment variables consulted when the matching flag is not given
const (
	EnvProvider = "GITMEUP_PROVIDER"
	EnvModel    = "GITMEUP_MODEL"
	EnvAPIKey   = "OPENAI_API_KEY"
	EnvBaseURL  = "GITMEUP_BASE_URL"
)

// DefaultMaxDiffLength bounds the diff body sent to the advisory service
const DefaultMaxDiffLength = 60000

// Flags holds the raw command line values
type Flags struct {
	Apply             bool
	Confirm           bool
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float64
	Timeout           time.Duration
	RepoPath          string
	MaxDiffLength     int
	ExcludeExtensions []string
	SavePlanFile      string
	FromPlanFile      string
	Verbose           bool
	DebugLogFile      string
}

// Config is the resolved configuration of one run. It is built once by the
// CLI layer and passed by value to everything below it.
type Config struct {
	Apply    bool
	Confirm  bool
	Advisor  services.AdvisorConfig
	Timeout  time.Duration
	RepoPath string
	Collect  services.CollectOptions
	SavePlan string
	FromPlan string
	Verbose  bool
	DebugLog string
}

// bindFlags registers every flag of the root command on f
func bindFlags(cmd *cobra.Command, f *Flags) {
	flags := cmd.Flags()
	flags.BoolVar(&f.Apply, "apply", false, "Execute the proposed commands (default is a dry run)")
	flags.BoolVar(&f.Confirm, "confirm", false, "Ask for confirmation in a terminal dialog before applying")
	flags.StringVar(&f.Provider, "provider", "", "Advisory provider: openai or ollama (env "+EnvProvider+", default openai)")
	flags.StringVar(&f.Model, "model", "", "Model to use (env "+EnvModel+", default "+services.DefaultOpenAIModel+" or "+services.DefaultOllamaModel+")")
	flags.StringVar(&f.APIKey, "api-key", "", "API key for the openai provider (env "+EnvAPIKey+")")
	flags.StringVar(&f.BaseURL, "base-url", "", "Advisory endpoint base URL (env "+EnvBaseURL+")")
	flags.Float64Var(&f.Temperature, "temperature", 0, "Sampling temperature for the advisory model")
	flags.DurationVar(&f.Timeout, "timeout", 0, "Timeout for the advisory request, e.g. 90s (0 means none)")
	flags.StringVar(&f.RepoPath, "repo", ".", "Path inside the git repository")
	flags.IntVar(&f.MaxDiffLength, "max-diff", DefaultMaxDiffLength, "Maximum length of the diff sent to the model (0 means unbounded)")
	flags.StringSliceVar(&f.ExcludeExtensions, "exclude-ext", models.DefaultExcludedExtensions, "File extensions whose diff body is not sent")
	flags.StringVar(&f.SavePlanFile, "save-plan", "", "Write the proposed commands to a JSON plan file")
	flags.StringVar(&f.FromPlanFile, "from-plan", "", "Use commands from a saved plan file instead of asking the model")
	flags.BoolVarP(&f.Verbose, "verbose", "v", false, "Show debug logs on stderr")
	flags.StringVar(&f.DebugLogFile, "debug-log", "", "Path to output debug log file")
}

// Resolve applies environment fallbacks and defaults. getenv is os.Getenv
// outside of tests.
func (f Flags) Resolve(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}

	provider := strings.ToLower(firstNonEmpty(f.Provider, getenv(EnvProvider), services.ProviderOpenAI))
	model := firstNonEmpty(f.Model, getenv(EnvModel), services.DefaultModel(provider))

	exts := make([]string, 0, len(f.ExcludeExtensions))
	for _, ext := range f.ExcludeExtensions {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}

	return Config{
		Apply:   f.Apply,
		Confirm: f.Confirm,
		Advisor: services.AdvisorConfig{
			Provider:    provider,
			Model:       model,
			APIKey:      firstNonEmpty(f.APIKey, getenv(EnvAPIKey)),
			BaseURL:     firstNonEmpty(f.BaseURL, getenv(EnvBaseURL)),
			Temperature: f.Temperature,
		},
		Timeout:  f.Timeout,
		RepoPath: firstNonEmpty(f.RepoPath, "."),
		Collect: services.CollectOptions{
			ExcludedExtensions: exts,
			MaxDiffLength:      f.MaxDiffLength,
		},
		SavePlan: f.SavePlanFile,
		FromPlan: f.FromPlanFile,
		Verbose:  f.Verbose,
		DebugLog: f.DebugLogFile,
	}
}

// Validate checks the resolved configuration before anything runs
func (c Config) Validate() error {
	switch c.Advisor.Provider {
	case services.ProviderOpenAI, services.ProviderOllama:
	default:
		return errors.NewConfigError("provider", c.Advisor.Provider, "must be one of openai, ollama")
	}

	// a saved plan needs no advisory call
	if c.FromPlan == "" {
		if strings.TrimSpace(c.Advisor.Model) == "" {
			return errors.NewConfigError("model", nil, "must not be empty")
		}
		if c.Advisor.Provider == services.ProviderOpenAI && c.Advisor.APIKey == "" {
			return errors.NewConfigError("api-key", nil, "is required for the openai provider; set --api-key or "+EnvAPIKey)
		}
	}

	if c.Advisor.Temperature < 0 || c.Advisor.Temperature > 2 {
		return errors.NewConfigError("temperature", c.Advisor.Temperature, "must be between 0 and 2")
	}
	if c.Timeout < 0 {
		return errors.NewConfigError("timeout", c.Timeout, "must not be negative")
	}
	if c.Collect.MaxDiffLength < 0 {
		return errors.NewConfigError("max-diff", c.Collect.MaxDiffLength, "must not be negative")
	}
	if c.SavePlan != "" && c.FromPlan != "" {
		return errors.NewConfigError("save-plan", c.SavePlan, "cannot be combined with --from-plan")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/services"
	"github.com/MrLemur/gitmeup/internal/ui"
	"github.com/MrLemur/gitmeup/pkg/helpers"
	"github.com/spf13/cobra"
)

// maxRawOutput bounds the advisory output echoed when extraction fails
const maxRawOutput = 4000

// Dependencies are the collaborators of a run. They are injected so the
// pipeline can be driven by fakes.
type Dependencies struct {
	Runner  services.Runner
	Advisor services.Advisor
	Confirm ui.Confirmer
	Repo    models.RepoInfo
}

// NewRootCommand builds the gitmeup command line
func NewRootCommand() *cobra.Command {
	f := &Flags{}
	cmd := &cobra.Command{
		Use:   "gitmeup",
		Short: "Turn uncommitted changes into reviewed Conventional Commits",
		Long: `gitmeup collects the uncommitted changes of a git repository, asks an
advisory model for a sequence of git add/rm/mv/commit commands, validates
them, and prints them. Nothing is executed unless --apply is given.

Example: gitmeup --apply --confirm`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := f.Resolve(os.Getenv)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return RunApplication(cmd.Context(), cfg)
		},
	}
	bindFlags(cmd, f)
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return cmd
}

// Execute runs the root command with ctx and returns its error
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// RunApplication wires the real collaborators for cfg and runs the pipeline
func RunApplication(ctx context.Context, cfg Config) error {
	ui.SetupLogging(os.Stderr, cfg.Verbose)
	if cfg.DebugLog != "" {
		if err := ui.InitDebugLogging(cfg.DebugLog, cfg.Verbose); err != nil {
			return err
		}
		defer ui.CloseDebugLog()
		ui.LogInfo("Debug logging enabled to %s", cfg.DebugLog)
	}

	repo, err := services.OpenRepository(cfg.RepoPath)
	if err != nil {
		return err
	}
	ui.LogDebug("Repository root %s on branch %q", repo.Root, repo.Branch)

	deps := Dependencies{
		Runner:  services.NewExecRunner(repo.Root),
		Confirm: ui.Confirm,
		Repo:    repo,
	}
	if cfg.FromPlan == "" {
		advisor, err := services.NewAdvisor(cfg.Advisor)
		if err != nil {
			return err
		}
		deps.Advisor = advisor
	}

	return Run(ctx, cfg, deps)
}

// Run proposes a batch, prints it, and applies it when cfg.Apply is set
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if cfg.Confirm && !cfg.Apply {
		ui.LogWarning("--confirm has no effect without --apply")
	}

	batch, err := propose(ctx, cfg, deps)
	if errors.Is(err, errors.ErrCleanWorkingTree) {
		ui.PrintMessage("Working tree clean. Nothing to commit.")
		return nil
	}
	if err != nil {
		return err
	}

	planned, err := services.ExecuteBatch(ctx, deps.Runner, batch, false)
	if err != nil {
		return err
	}
	ui.PrintProposal(planned.Commands)

	if cfg.SavePlan != "" {
		plan := services.NewPlan(batch, cfg.Advisor.Provider, cfg.Advisor.Model, deps.Repo.Branch)
		if err := services.SavePlan(cfg.SavePlan, plan); err != nil {
			return err
		}
	}

	if !cfg.Apply {
		ui.PrintDryRunNotice()
		return nil
	}

	if cfg.Confirm {
		confirmed, err := deps.Confirm(ui.ApplyConfirmationMessage(deps.Repo.Root, planned.Commands))
		if err != nil {
			return err
		}
		if !confirmed {
			ui.LogWarning("Aborted by user. Nothing was executed.")
			return nil
		}
	}

	ui.LogInfo("Applying %d commands", len(batch))
	report, err := services.ExecuteBatch(ctx, deps.Runner, batch, true)
	if err != nil {
		var execErr *errors.ExecutionError
		if errors.As(err, &execErr) {
			ui.PrintFailure(execErr.Index, execErr.Command, execErr.ExitCode)
		}
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("All %d commands executed successfully.", len(report.Results)))
	ui.PrintFinalStatus(report.FinalStatus)
	return nil
}

// propose returns the batch to run, either from a saved plan or from a fresh
// advisory round trip.
func propose(ctx context.Context, cfg Config, deps Dependencies) (models.Batch, error) {
	if cfg.FromPlan != "" {
		batch, plan, err := services.LoadPlan(cfg.FromPlan)
		if err != nil {
			return nil, err
		}
		if plan.Branch != "" && plan.Branch != deps.Repo.Branch {
			ui.LogWarning("Plan was created on branch %q, current branch is %q", plan.Branch, deps.Repo.Branch)
		}
		return batch, nil
	}

	if deps.Advisor == nil {
		return nil, errors.NewConfigError("provider", cfg.Advisor.Provider, "no advisory client configured")
	}

	repoCtx, err := services.CollectContext(ctx, deps.Runner, cfg.Collect)
	if err != nil {
		return nil, err
	}

	advCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		advCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	response, err := deps.Advisor.Propose(advCtx, repoCtx)
	if err != nil {
		return nil, err
	}

	batch, err := services.ExtractBatch(response)
	if err != nil {
		ui.LogError("Could not use the advisory response: %v", err)
		ui.PrintRawOutput(helpers.TruncateString(response, maxRawOutput))
		return nil, err
	}
	ui.LogDebug("Extracted %d commands", len(batch))
	return batch, nil
}

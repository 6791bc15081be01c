package services

import (
	"context"
	"strings"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/ui"
)

// ExecuteBatch runs batch in order when apply is set and stops at the first
// failure. A dry run only reports the rendered commands and never touches
// the runner. Nothing is rolled back after a failure.
func ExecuteBatch(ctx context.Context, runner Runner, batch models.Batch, apply bool) (models.RunReport, error) {
	report := models.RunReport{
		Mode:     models.ModeDryRun,
		Status:   models.StatusPlanned,
		Commands: batch.Render(),
	}
	if !apply {
		return report, nil
	}

	report.Mode = models.ModeApply
	for i, cmd := range batch {
		index := i + 1
		rendered := report.Commands[i]

		ui.PrintExecuting(rendered)
		out, err := runner.RunMutation(ctx, cmd.Args()...)
		result := models.ExecutionResult{
			Index:    index,
			Command:  rendered,
			ExitCode: out.ExitCode,
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
		}
		report.Results = append(report.Results, result)
		ui.PrintCommandOutput(out.Stdout, out.Stderr)

		if err != nil || out.ExitCode != 0 {
			report.Status = models.StatusFailed
			report.FailedIndex = index
			ui.LogError("Command %d of %d failed: %s", index, len(batch), rendered)
			return report, errors.NewExecutionError(index, rendered, out.ExitCode, out.Stderr, err)
		}
		ui.LogDebug("Command %d of %d succeeded", index, len(batch))
	}

	report.Status = models.StatusSucceeded
	status, err := runner.RunQuery(ctx, "status", "-sb")
	if err != nil || status.ExitCode != 0 {
		// the batch itself succeeded; a missing summary is not a failure
		ui.LogWarning("Could not read final status: %s", strings.TrimSpace(status.Stderr))
		return report, nil
	}
	report.FinalStatus = status.Stdout
	return report, nil
}

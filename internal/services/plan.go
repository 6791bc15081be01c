package services

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/ui"
)

// NewPlan records a proposed batch for later review or apply
func NewPlan(batch models.Batch, provider, model, branch string) models.Plan {
	return models.Plan{
		Version:   models.PlanVersion,
		CreatedAt: time.Now().UTC(),
		Provider:  provider,
		Model:     model,
		Branch:    branch,
		Commands:  batch.Render(),
	}
}

// SavePlan writes plan to path as indented JSON
func SavePlan(path string, plan models.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write plan file %s: %w", path, err)
	}
	ui.LogSuccess("Plan with %d commands written to %s", len(plan.Commands), path)
	return nil
}

// LoadPlan reads a plan file and re-validates every command in it exactly
// like a fresh advisory response.
func LoadPlan(path string) (models.Batch, models.Plan, error) {
	var plan models.Plan

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, plan, errors.Wrapf(errors.ErrInvalidPlan, "failed to read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, plan, errors.Wrapf(errors.ErrInvalidPlan, "failed to parse %s: %v", path, err)
	}
	if plan.Version != models.PlanVersion {
		return nil, plan, errors.Wrapf(errors.ErrInvalidPlan, "unsupported plan version %d", plan.Version)
	}
	if len(plan.Commands) == 0 {
		return nil, plan, errors.ErrEmptyProposal
	}

	batch := make(models.Batch, 0, len(plan.Commands))
	for i, line := range plan.Commands {
		cmd, err := ParseCommandLine(i+1, line)
		if err != nil {
			return nil, plan, err
		}
		batch = append(batch, cmd)
	}
	if err := ValidateBatch(batch); err != nil {
		return nil, plan, err
	}

	ui.LogInfo("Loaded plan with %d commands from %s", len(batch), path)
	return batch, plan, nil
}

package models

import "time"

// Mode selects whether a batch is only shown or actually run
type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeApply  Mode = "apply"
)

// RunStatus is the overall outcome of a run
type RunStatus string

const (
	StatusPlanned   RunStatus = "planned"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// ExecutionResult is the captured outcome of one executed command.
// Index is 1-based; ExitCode is -1 when the process could not be started.
type ExecutionResult struct {
	Index    int    `json:"index"`
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// RunReport summarizes a dry run or an apply run
type RunReport struct {
	Mode        Mode              `json:"mode"`
	Status      RunStatus         `json:"status"`
	Commands    []string          `json:"commands"`
	Results     []ExecutionResult `json:"results,omitempty"`
	FailedIndex int               `json:"failed_index,omitempty"`
	FinalStatus string            `json:"final_status,omitempty"`
}

// PlanVersion is the only plan file format understood
const PlanVersion = 1

// Plan is a proposal saved for later review or apply
type Plan struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	Commands  []string  `json:"commands"`
}

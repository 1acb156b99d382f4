package domain

import "time"

// RunOutcome is the result of one pipeline run.
type RunOutcome string

const (
	OutcomeSuccess RunOutcome = "success"
	OutcomeFailure RunOutcome = "failure"
)

// StageStat records the row counts and duration of one transform stage.
type StageStat struct {
	Stage    string        `json:"stage"`
	RowsIn   int           `json:"rows_in"`
	RowsOut  int           `json:"rows_out"`
	Duration time.Duration `json:"duration_ns"`
}

// RunStatus describes a completed pipeline run.
type RunStatus struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcome    RunOutcome     `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	Stages     []StageStat    `json:"stages,omitempty"`
	RowsLoaded map[string]int `json:"rows_loaded,omitempty"`
}

// Succeeded reports whether the run produced and loaded all outputs.
func (s RunStatus) Succeeded() bool { return s.Outcome == OutcomeSuccess }

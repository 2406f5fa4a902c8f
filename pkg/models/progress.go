package models

// Pipeline stage names used in progress events.
const (
	StageObligationCoverage = "obligation_coverage"
	StageActionMapping      = "action_mapping"
	StageDecisionComposing  = "decision_composing"
	StagePrincipleAlignment = "principle_alignment"
	StageArgumentGeneration = "argument_generation"
	StageArgumentValidation = "argument_validation"
	StagePersistence        = "persistence"
	StageComplete           = "COMPLETE"
	StageError              = "ERROR"
)

// ProgressEvent is emitted at stage boundaries during synthesis. Progress is
// 0-100. A run terminates with a COMPLETE or ERROR event.
type ProgressEvent struct {
	Stage    string         `json:"stage"`
	Progress int            `json:"progress"`
	Messages []string       `json:"messages,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
	Error    string         `json:"error,omitempty"`
}

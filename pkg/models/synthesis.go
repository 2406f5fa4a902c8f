package models

// SynthesisResult is the canonical output of one synthesis run for a case.
type SynthesisResult struct {
	CaseID          string               `json:"case_id"`
	DecisionPoints  []DecisionPoint      `json:"decision_points"`
	Alignments      []PrincipleAlignment `json:"alignments,omitempty"`
	Arguments       []Argument           `json:"arguments"`
	Validations     []ValidationResult   `json:"validations"`
	UsedLLMFallback bool                 `json:"used_llm_fallback"`
	UsedRefinement  bool                 `json:"used_refinement"`
	Traces          []InferenceTrace     `json:"traces,omitempty"`
}

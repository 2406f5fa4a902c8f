package models

import "fmt"

// Paradigmatic feature tags recorded on decision points for later precedent
// comparison.
const (
	FeatureRoleBound       = "role_bound"
	FeatureHasConflicts    = "has_conflicts"
	FeatureHasConsequences = "has_consequences"
	FeatureHighIntensity   = "high_intensity"
	FeatureMediumIntensity = "medium_intensity"
	FeatureLowIntensity    = "low_intensity"
)

// Grounding ties a decision point to the role and the obligation or
// constraint it is derived from. A valid grounding always references a role
// and at least one of obligation/constraint.
type Grounding struct {
	Role       EntityRef  `json:"role"`
	Obligation *EntityRef `json:"obligation,omitempty"`
	Constraint *EntityRef `json:"constraint,omitempty"`
}

// BoardMatch records a matched board-style question or conclusion.
type BoardMatch struct {
	URI   string  `json:"uri"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// DecisionPoint is an entity-grounded decision point: a role/obligation pair
// with a ranked set of action options. FocusNumber values are dense 1..N
// after final ranking.
type DecisionPoint struct {
	FocusID           string         `json:"focus_id"` // "DP<n>"
	FocusNumber       int            `json:"focus_number"`
	Description       string         `json:"description"`
	DecisionQuestion  string         `json:"decision_question"`
	Grounding         Grounding      `json:"grounding"`
	Options           []ActionOption `json:"options"`
	ProvisionURIs     []string       `json:"provision_uris,omitempty"`
	EventURIs         []string       `json:"event_uris,omitempty"`
	MatchedQuestion   *BoardMatch    `json:"matched_question,omitempty"`
	MatchedConclusion *BoardMatch    `json:"matched_conclusion,omitempty"`
	Features          []string       `json:"paradigmatic_features,omitempty"`
	IntensityScore    float64        `json:"intensity_score"`
	RelevanceScore    float64        `json:"decision_relevance_score"`
}

// Renumber assigns dense focus numbers and ids to an already-ranked slice.
func RenumberDecisionPoints(points []DecisionPoint) {
	for i := range points {
		points[i].FocusNumber = i + 1
		points[i].FocusID = fmt.Sprintf("DP%d", i+1)
	}
}

// ComposerResult is the full output of the decision point composer.
type ComposerResult struct {
	CaseID          string           `json:"case_id"`
	DecisionPoints  []DecisionPoint  `json:"decision_points"`
	UsedLLMFallback bool             `json:"used_llm_fallback"`
	Traces          []InferenceTrace `json:"traces,omitempty"`
}

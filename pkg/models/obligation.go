package models

// DecisionType classifies an obligation or constraint by the kind of
// ethical decision it bears on.
type DecisionType string

const (
	DecisionDisclosure      DecisionType = "disclosure"
	DecisionVerification    DecisionType = "verification"
	DecisionCompetence      DecisionType = "competence"
	DecisionConfidentiality DecisionType = "confidentiality"
	DecisionSafety          DecisionType = "safety"
	DecisionAttribution     DecisionType = "attribution"
	DecisionDelegation      DecisionType = "delegation"
	DecisionUnclassified    DecisionType = "unclassified"
)

// ObligationAnalysis is the per-obligation (or per-constraint) output of the
// coverage analyzer.
type ObligationAnalysis struct {
	URI                string       `json:"uri"`
	Label              string       `json:"label"`
	Definition         string       `json:"definition,omitempty"`
	Role               *EntityRef   `json:"role,omitempty"` // bound/constrained role
	DecisionType       DecisionType `json:"decision_type"`
	ConflictingURIs    []string     `json:"conflicting_uris,omitempty"`
	DecisionRelevant   bool         `json:"decision_relevant"`
	Instantiated       bool         `json:"instantiated"`         // role-bound vs generic
	FoundingValueLimit bool         `json:"founding_value_limit"` // constraints only
	ProvisionURIs      []string     `json:"provision_uris,omitempty"`
}

// ObligationCoverage is the full output of the coverage analyzer for a case.
type ObligationCoverage struct {
	CaseID          string               `json:"case_id"`
	Obligations     []ObligationAnalysis `json:"obligations"`
	Constraints     []ObligationAnalysis `json:"constraints"`
	UsedLLMFallback bool                 `json:"used_llm_fallback"`
	Trace           *InferenceTrace      `json:"trace,omitempty"`
}

// RelevantObligations returns the decision-relevant obligations.
func (c *ObligationCoverage) RelevantObligations() []ObligationAnalysis {
	var out []ObligationAnalysis
	for _, o := range c.Obligations {
		if o.DecisionRelevant {
			out = append(out, o)
		}
	}
	return out
}

// RelevantConstraints returns the decision-relevant constraints.
func (c *ObligationCoverage) RelevantConstraints() []ObligationAnalysis {
	var out []ObligationAnalysis
	for _, o := range c.Constraints {
		if o.DecisionRelevant {
			out = append(out, o)
		}
	}
	return out
}

// InferenceTrace records one AI inference call for auditability.
type InferenceTrace struct {
	Stage     string `json:"stage"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

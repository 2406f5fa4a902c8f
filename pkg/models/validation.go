package models

// Validation sub-test weights. Entity reference and founding value dominate;
// virtue presence is a lighter check.
const (
	WeightEntityReference = 0.4
	WeightFoundingValue   = 0.4
	WeightVirtuePresence  = 0.2
)

// ValidationResult is the per-argument outcome of the three-tier gate.
// IsValid is true iff all three sub-tests pass; Score is always in [0,1].
type ValidationResult struct {
	ArgumentID         string   `json:"argument_id"`
	EntityRefsValid    bool     `json:"entity_refs_valid"`
	FoundingValueValid bool     `json:"founding_value_valid"`
	VirtueValid        bool     `json:"virtue_valid"`
	IsValid            bool     `json:"is_valid"`
	Score              float64  `json:"validation_score"`
	RequiredVirtues    []string `json:"required_virtues,omitempty"`
	UnresolvedURIs     []string `json:"unresolved_uris,omitempty"`
	ViolationKeywords  []string `json:"violation_keywords,omitempty"`
}

// ComputeScore sets Score from the sub-test flags and derives IsValid.
func (v *ValidationResult) ComputeScore() {
	v.Score = 0
	if v.EntityRefsValid {
		v.Score += WeightEntityReference
	}
	if v.FoundingValueValid {
		v.Score += WeightFoundingValue
	}
	if v.VirtueValid {
		v.Score += WeightVirtuePresence
	}
	v.IsValid = v.EntityRefsValid && v.FoundingValueValid && v.VirtueValid
}

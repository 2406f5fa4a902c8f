package models

// Provision level constants, ordered by weight in alignment scoring.
const (
	ProvisionFundamentalCanon       = "fundamental_canon"
	ProvisionRuleOfPractice         = "rule_of_practice"
	ProvisionProfessionalObligation = "professional_obligation"
	ProvisionUnknown                = "unknown"
)

// ProvisionMatch is one code provision matched to a principle.
type ProvisionMatch struct {
	URI     string  `json:"uri"`
	Label   string  `json:"label"`
	Section string  `json:"section,omitempty"`
	Level   string  `json:"level"`
	Score   float64 `json:"score"`
}

// PrincipleAlignment maps an extracted principle to supporting code
// provisions. At most 3 provisions, ranked descending by score.
type PrincipleAlignment struct {
	Principle         EntityRef        `json:"principle"`
	Definition        string           `json:"definition,omitempty"`
	UniversalCategory string           `json:"universal_category,omitempty"`
	Provisions        []ProvisionMatch `json:"provisions,omitempty"`
	SupportType       string           `json:"support_type,omitempty"`
	KeyTerms          []string         `json:"key_terms,omitempty"`
	Confidence        float64          `json:"confidence"`
}

package domain

import (
	"github.com/ethosworks/ethos-engine/pkg/models"
)

// SeverityTier maps a magnitude score to the keywords that trigger it.
// Tiers are checked in order; the first hit wins, so list them descending.
type SeverityTier struct {
	Score    float64  `yaml:"score"`
	Keywords []string `yaml:"keywords"`
}

// AntonymPattern generates an alternative option label from an action label.
// Patterns are checked in order; longer/more specific matches come first.
type AntonymPattern struct {
	Match       string `yaml:"match"`       // substring of the action label (lowercased)
	Counterpart string `yaml:"counterpart"` // label stem of the generated alternative
}

// ConflictPair marks two decision types (or two keywords) as conflicting
// when bound to the same role.
type ConflictPair struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// Config is the per-domain configuration contract: founding good, virtues,
// keyword tables, and code/provision naming. Loaded per domain code and
// cached by the caller.
type Config struct {
	Code        string `yaml:"code"`        // domain code, e.g. "engineering"
	CodeName    string `yaml:"code_name"`   // e.g. "NSPE Code of Ethics"
	Methodology string `yaml:"methodology"` // ethical-framework tag, e.g. "casuistry"

	FoundingGood            string `yaml:"founding_good"`
	FoundingGoodDescription string `yaml:"founding_good_description"`

	Virtues        []string `yaml:"virtues"`
	RoleVocabulary []string `yaml:"role_vocabulary"`

	// PrincipleCategories maps normalized principle names to universal
	// ethics categories.
	PrincipleCategories map[string]string `yaml:"principle_categories"`

	DecisionTypeKeywords []CategoryKeywords `yaml:"decision_type_keywords"`
	ConflictPairs        []ConflictPair     `yaml:"conflict_pairs"`         // decision-type pairs
	ConflictKeywordPairs []ConflictPair     `yaml:"conflict_keyword_pairs"` // free-text pairs for con warrants

	SeverityTiers        []SeverityTier `yaml:"severity_tiers"`
	DefaultMagnitude     float64        `yaml:"default_magnitude"`
	EthicsKeywords       []string       `yaml:"ethics_keywords"`
	RelationshipKeywords []string       `yaml:"relationship_keywords"`

	ViolationKeywords []string `yaml:"violation_keywords"`
	SeverityKeywords  []string `yaml:"severity_keywords"`

	VirtueTriggers   []CategoryKeywords `yaml:"virtue_triggers"`   // virtue -> trigger keywords
	VirtueIndicators []CategoryKeywords `yaml:"virtue_indicators"` // virtue -> text indicators

	SupportTypeKeywords []CategoryKeywords `yaml:"support_type_keywords"`
	CategoryKeywords    []CategoryKeywords `yaml:"category_keywords"` // universal-category fallback

	// ProvisionLevelWeights weights provision levels in alignment scoring.
	ProvisionLevelWeights map[string]float64 `yaml:"provision_level_weights"`

	AntonymPatterns []AntonymPattern `yaml:"antonym_patterns"`
}

// DecisionTypeClassifier builds the classifier for obligation decision types.
func (c *Config) DecisionTypeClassifier() *KeywordClassifier {
	return NewKeywordClassifier(c.DecisionTypeKeywords, string(models.DecisionUnclassified))
}

// VirtueTriggerClassifier builds the classifier for required virtues.
func (c *Config) VirtueTriggerClassifier() *KeywordClassifier {
	return NewKeywordClassifier(c.VirtueTriggers, "")
}

// SupportTypeClassifier builds the classifier for principle support types.
func (c *Config) SupportTypeClassifier() *KeywordClassifier {
	return NewKeywordClassifier(c.SupportTypeKeywords, "")
}

// UniversalCategoryClassifier builds the keyword fallback for universal
// ethics categories.
func (c *Config) UniversalCategoryClassifier() *KeywordClassifier {
	return NewKeywordClassifier(c.CategoryKeywords, "")
}

// ConflictingTypes reports whether two decision types form a known conflict
// pair. Symmetric by construction.
func (c *Config) ConflictingTypes(a, b models.DecisionType) bool {
	for _, p := range c.ConflictPairs {
		if (p.A == string(a) && p.B == string(b)) || (p.A == string(b) && p.B == string(a)) {
			return true
		}
	}
	return false
}

// ProvisionWeight returns the alignment weight for a provision level.
func (c *Config) ProvisionWeight(level string) float64 {
	if w, ok := c.ProvisionLevelWeights[level]; ok {
		return w
	}
	return c.ProvisionLevelWeights[models.ProvisionUnknown]
}

// Default returns the compiled-in engineering domain configuration. It is
// the reference table set; YAML files under the domain directory override it
// per domain code.
func Default() *Config {
	return &Config{
		Code:                    "engineering",
		CodeName:                "NSPE Code of Ethics",
		Methodology:             "casuistry",
		FoundingGood:            "public safety",
		FoundingGoodDescription: "The health, safety, and welfare of the public",
		Virtues:                 []string{"competence", "trustworthiness", "honesty", "humility", "diligence"},
		RoleVocabulary:          []string{"engineer", "manager", "client", "employer", "contractor", "reviewer", "inspector"},
		PrincipleCategories: map[string]string{
			"public safety":    "non_maleficence",
			"public welfare":   "beneficence",
			"honesty":          "veracity",
			"integrity":        "veracity",
			"confidentiality":  "fidelity",
			"fairness":         "justice",
			"informed consent": "autonomy",
		},
		DecisionTypeKeywords: []CategoryKeywords{
			// Confidentiality is checked before disclosure because "inform"
			// also prefixes "information", a staple of confidentiality texts.
			{Category: "confidentiality", Keywords: []string{"confidential", "secret", "proprietary", "private"}},
			{Category: "disclosure", Keywords: []string{"disclos", "inform", "report", "reveal", "notify"}},
			{Category: "verification", Keywords: []string{"verif", "review", "inspect", "confirm", "check"}},
			{Category: "competence", Keywords: []string{"competen", "qualifi", "expertise", "skill"}},
			{Category: "safety", Keywords: []string{"safety", "safe", "hazard", "welfare", "protect"}},
			{Category: "attribution", Keywords: []string{"attribut", "credit", "authorship", "acknowledge", "plagiar"}},
			{Category: "delegation", Keywords: []string{"delegat", "assign", "supervis", "oversight"}},
		},
		ConflictPairs: []ConflictPair{
			{A: "disclosure", B: "confidentiality"},
			{A: "safety", B: "competence"},
			{A: "delegation", B: "verification"},
			{A: "safety", B: "confidentiality"},
		},
		ConflictKeywordPairs: []ConflictPair{
			{A: "disclos", B: "confidential"},
			{A: "report", B: "loyal"},
			{A: "safety", B: "economy"},
			{A: "public", B: "client"},
		},
		SeverityTiers: []SeverityTier{
			{Score: 0.95, Keywords: []string{"death", "fatality", "catastroph"}},
			{Score: 0.9, Keywords: []string{"safety", "injury", "incident", "collapse"}},
			{Score: 0.7, Keywords: []string{"damage", "failure", "loss"}},
			{Score: 0.5, Keywords: []string{"concern", "issue", "complaint"}},
		},
		DefaultMagnitude:     0.3,
		EthicsKeywords:       []string{"ethic", "code", "professional", "duty", "obligation", "integrity"},
		RelationshipKeywords: []string{"client", "employer", "public", "colleague", "community", "user"},
		ViolationKeywords:    []string{"endanger", "harm", "unsafe", "negligent", "deceive", "conceal"},
		SeverityKeywords:     []string{"death", "injury", "catastrophe"},
		VirtueTriggers: []CategoryKeywords{
			{Category: "competence", Keywords: []string{"competen", "qualifi", "skill", "expertise", "engineering"}},
			{Category: "trustworthiness", Keywords: []string{"trust", "confidential", "faithful"}},
			{Category: "honesty", Keywords: []string{"honest", "truthful", "disclos", "misrepresent"}},
			{Category: "humility", Keywords: []string{"limitation", "scope", "boundar"}},
			{Category: "diligence", Keywords: []string{"diligen", "thorough", "careful", "attention"}},
		},
		VirtueIndicators: []CategoryKeywords{
			{Category: "competence", Keywords: []string{"competent", "qualified", "capable", "expert"}},
			{Category: "trustworthiness", Keywords: []string{"trustworthy", "reliable", "faithful"}},
			{Category: "honesty", Keywords: []string{"honest", "truthful", "candid"}},
			{Category: "humility", Keywords: []string{"humble", "limits", "deference"}},
			{Category: "diligence", Keywords: []string{"diligent", "diligence", "thorough", "careful"}},
		},
		SupportTypeKeywords: []CategoryKeywords{
			{Category: "obligation_support", Keywords: []string{"must", "shall", "required", "duty", "obligation"}},
			{Category: "virtue_support", Keywords: []string{"integrity", "honor", "character"}},
			{Category: "principle_support", Keywords: []string{"principle", "value", "fundamental"}},
		},
		CategoryKeywords: []CategoryKeywords{
			{Category: "non_maleficence", Keywords: []string{"harm", "safety", "protect", "danger"}},
			{Category: "beneficence", Keywords: []string{"welfare", "benefit", "good"}},
			{Category: "veracity", Keywords: []string{"honest", "truth", "disclos"}},
			{Category: "fidelity", Keywords: []string{"faithful", "trust", "confidential", "loyal"}},
			{Category: "justice", Keywords: []string{"fair", "impartial", "equitable"}},
			{Category: "autonomy", Keywords: []string{"consent", "inform", "choice"}},
		},
		ProvisionLevelWeights: map[string]float64{
			models.ProvisionFundamentalCanon:       0.3,
			models.ProvisionRuleOfPractice:         0.2,
			models.ProvisionProfessionalObligation: 0.1,
			models.ProvisionUnknown:                0.0,
		},
		AntonymPatterns: []AntonymPattern{
			{Match: "non-disclosure", Counterpart: "Disclosure"},
			{Match: "nondisclosure", Counterpart: "Disclosure"},
			{Match: "disclosure", Counterpart: "Non-Disclosure"},
			{Match: "non-adoption", Counterpart: "Adoption"},
			{Match: "adoption", Counterpart: "Non-Adoption"},
			{Match: "upload", Counterpart: "Retain Locally"},
		},
	}
}

package models

// Argument type constants.
const (
	ArgumentPro = "pro"
	ArgumentCon = "con"
)

// ToulminComponent is one element of a Toulmin-structured argument,
// optionally grounded in a stored entity.
type ToulminComponent struct {
	Text        string `json:"text"`
	EntityURI   string `json:"entity_uri,omitempty"`
	EntityLabel string `json:"entity_label,omitempty"`
	EntityType  string `json:"entity_type,omitempty"`
}

// Argument is an entity-grounded pro or con argument for one option of one
// decision point. Every emitted argument has a non-nil Warrant; an argument
// whose warrant cannot be constructed is never emitted.
type Argument struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"` // pro | con
	DecisionPointID string             `json:"decision_point_id"`
	OptionURI       string             `json:"option_uri"`
	Claim           ToulminComponent   `json:"claim"`
	Warrant         ToulminComponent   `json:"warrant"`
	Backing         ToulminComponent   `json:"backing"`
	Data            []ToulminComponent `json:"data,omitempty"`
	Qualifier       *ToulminComponent  `json:"qualifier,omitempty"`
	Rebuttal        *ToulminComponent  `json:"rebuttal,omitempty"`
	Role            EntityRef          `json:"role"`
	FoundingGood    string             `json:"founding_good_narrative,omitempty"`
	Virtues         []string           `json:"applicable_virtues,omitempty"`
	Confidence      float64            `json:"confidence"`
	SourceURIs      []string           `json:"source_entity_uris,omitempty"`
	HarmBased       bool               `json:"harm_based,omitempty"` // con fallback built from events
}

package models

// Moral intensity component weights (Jones 1991). Fixed, sum to 1.0.
const (
	WeightMagnitude         = 0.25
	WeightSocialConsensus   = 0.20
	WeightProbability       = 0.15
	WeightTemporalImmediacy = 0.15
	WeightProximity         = 0.15
	WeightConcentration     = 0.10
)

// MoralIntensity holds the six-factor moral intensity model. All components
// are in [0,1]; Overall is the fixed-weight dot product.
type MoralIntensity struct {
	Magnitude         float64 `json:"magnitude"`
	SocialConsensus   float64 `json:"social_consensus"`
	Probability       float64 `json:"probability"`
	TemporalImmediacy float64 `json:"temporal_immediacy"`
	Proximity         float64 `json:"proximity"`
	Concentration     float64 `json:"concentration"`
	Overall           float64 `json:"overall"`
}

// ComputeOverall sets and returns the weighted overall score.
func (m *MoralIntensity) ComputeOverall() float64 {
	m.Overall = m.Magnitude*WeightMagnitude +
		m.SocialConsensus*WeightSocialConsensus +
		m.Probability*WeightProbability +
		m.TemporalImmediacy*WeightTemporalImmediacy +
		m.Proximity*WeightProximity +
		m.Concentration*WeightConcentration
	return m.Overall
}

// ActionOption is one selectable course of action at a decision point.
type ActionOption struct {
	URI         string         `json:"uri"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	WasChosen   bool           `json:"was_chosen"`   // the action as it occurred
	BoardChoice bool           `json:"board_choice"` // matches the board's recorded choice
	IsExtracted bool           `json:"is_extracted"` // extracted entity vs generated alternative
	Intensity   MoralIntensity `json:"intensity"`
	EventURIs   []string       `json:"event_uris,omitempty"` // downstream events
}

// ActionSet groups the as-occurred option with at most one generated
// alternative.
type ActionSet struct {
	Options         []ActionOption `json:"options"`
	DecisionContext string         `json:"decision_context"`
	MaxIntensity    float64        `json:"max_intensity"`
}

// Occurred returns the as-occurred option. An action set always contains at
// least one option.
func (s *ActionSet) Occurred() *ActionOption {
	for i := range s.Options {
		if s.Options[i].WasChosen {
			return &s.Options[i]
		}
	}
	return &s.Options[0]
}

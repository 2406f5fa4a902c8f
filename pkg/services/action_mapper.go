package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// Fixed sub-score defaults and boosts for moral intensity. Temporal
// immediacy and concentration have no keyword signal in extracted text, so
// they stay at fixed defaults.
const (
	consensusWithEthicsKeyword = 0.8
	consensusDefault           = 0.5
	probabilityWithCausalLink  = 0.8
	probabilityDefault         = 0.5
	temporalDefault            = 0.6
	proximityWithRelationship  = 0.7
	proximityDefault           = 0.4
	concentrationDefault       = 0.5
)

// ActionMapper converts extracted actions into option sets: the action as it
// occurred plus one generated alternative, each scored with the six-factor
// moral intensity model, linked to downstream events via causal chains.
type ActionMapper struct {
	entities  repositories.CaseEntityRepository
	domainCfg *domain.Config
	logger    *zap.Logger
}

// NewActionMapper creates a new action-option mapper.
func NewActionMapper(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	logger *zap.Logger,
) *ActionMapper {
	return &ActionMapper{
		entities:  entities,
		domainCfg: domainCfg,
		logger:    logger.Named("action_mapper"),
	}
}

// MapActions builds action sets for a case, sorted by maximum intensity
// descending. Zero extracted actions yields an empty slice, not an error.
func (m *ActionMapper) MapActions(ctx context.Context, caseID string) ([]models.ActionSet, error) {
	actions, err := m.entities.GetByEntityType(ctx, caseID, models.EntityTypeAction)
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	events, err := m.entities.GetByEntityType(ctx, caseID, models.EntityTypeEvent)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	chains, err := m.entities.GetByEntityType(ctx, caseID, models.EntityTypeCausalChain)
	if err != nil {
		return nil, fmt.Errorf("load causal chains: %w", err)
	}

	eventsByKey := make(map[string]*models.CaseEntity, len(events))
	for _, e := range events {
		eventsByKey[normalizeKey(e.Label)] = e
	}

	downstream := parseCausalChains(chains)

	var sets []models.ActionSet
	for _, action := range actions {
		set := m.buildActionSet(action, downstream[normalizeKey(action.Label)], eventsByKey)
		sets = append(sets, set)
	}

	sort.SliceStable(sets, func(i, j int) bool {
		if sets[i].MaxIntensity != sets[j].MaxIntensity {
			return sets[i].MaxIntensity > sets[j].MaxIntensity
		}
		return sets[i].Occurred().Label < sets[j].Occurred().Label
	})

	m.logger.Info("actions mapped",
		zap.String("case_id", caseID),
		zap.Int("action_sets", len(sets)),
		zap.Int("causal_chains", len(chains)))

	return sets, nil
}

// parseCausalChains splits chain labels on the arrow separator into
// {action}→{event} pairs. A chain "A→B→C" yields downstream events B for A
// and C for B.
func parseCausalChains(chains []*models.CaseEntity) map[string][]string {
	downstream := make(map[string][]string)
	for _, chain := range chains {
		text := chain.Label
		if !strings.Contains(text, "→") && !strings.Contains(text, "->") {
			text = chain.Definition
		}
		text = strings.ReplaceAll(text, "->", "→")

		segments := strings.Split(text, "→")
		for i := 0; i+1 < len(segments); i++ {
			from := strings.TrimSpace(segments[i])
			to := strings.TrimSpace(segments[i+1])
			if from == "" || to == "" {
				continue
			}
			key := normalizeKey(from)
			downstream[key] = append(downstream[key], to)
		}
	}
	return downstream
}

// buildActionSet constructs the as-occurred option plus at most one
// generated alternative.
func (m *ActionMapper) buildActionSet(
	action *models.CaseEntity,
	downstreamLabels []string,
	eventsByKey map[string]*models.CaseEntity,
) models.ActionSet {
	var eventURIs []string
	var eventText strings.Builder
	for _, label := range downstreamLabels {
		eventText.WriteString(label)
		eventText.WriteString(" ")
		if e, ok := eventsByKey[normalizeKey(label)]; ok {
			eventURIs = append(eventURIs, e.URI)
			eventText.WriteString(e.Definition)
			eventText.WriteString(" ")
		}
	}

	occurred := models.ActionOption{
		URI:         action.URI,
		Label:       action.Label,
		Description: action.Definition,
		WasChosen:   true,
		BoardChoice: action.AttributeBool("board_choice"),
		IsExtracted: true,
		EventURIs:   eventURIs,
	}
	occurred.Intensity = m.scoreIntensity(entityText(action), eventText.String(), len(downstreamLabels) > 0)

	set := models.ActionSet{
		Options:         []models.ActionOption{occurred},
		DecisionContext: m.decisionContext(action),
	}

	if alt, ok := m.generateAlternative(action); ok {
		set.Options = append(set.Options, alt)
	}

	set.MaxIntensity = 0
	for _, opt := range set.Options {
		if opt.Intensity.Overall > set.MaxIntensity {
			set.MaxIntensity = opt.Intensity.Overall
		}
	}

	return set
}

// scoreIntensity computes the six keyword-driven sub-scores and the weighted
// overall value. Magnitude comes from severity-keyword tiers in downstream
// event text.
func (m *ActionMapper) scoreIntensity(actionText, eventText string, hasCausalLink bool) models.MoralIntensity {
	intensity := models.MoralIntensity{
		Magnitude:         m.magnitudeScore(eventText),
		SocialConsensus:   consensusDefault,
		Probability:       probabilityDefault,
		TemporalImmediacy: temporalDefault,
		Proximity:         proximityDefault,
		Concentration:     concentrationDefault,
	}

	if domain.ContainsAny(actionText, m.domainCfg.EthicsKeywords) {
		intensity.SocialConsensus = consensusWithEthicsKeyword
	}
	if hasCausalLink {
		intensity.Probability = probabilityWithCausalLink
	}
	if domain.ContainsAny(actionText+" "+eventText, m.domainCfg.RelationshipKeywords) {
		intensity.Proximity = proximityWithRelationship
	}

	intensity.ComputeOverall()
	return intensity
}

func (m *ActionMapper) magnitudeScore(eventText string) float64 {
	if eventText == "" {
		return m.domainCfg.DefaultMagnitude
	}
	for _, tier := range m.domainCfg.SeverityTiers {
		if domain.ContainsAny(eventText, tier.Keywords) {
			return tier.Score
		}
	}
	return m.domainCfg.DefaultMagnitude
}

// generateAlternative builds the counterfactual option from the antonym
// pattern table, or a generic negation when no pattern matches.
func (m *ActionMapper) generateAlternative(action *models.CaseEntity) (models.ActionOption, bool) {
	lower := strings.ToLower(action.Label)

	label := ""
	for _, p := range m.domainCfg.AntonymPatterns {
		if strings.Contains(lower, p.Match) {
			label = p.Counterpart + " Alternative"
			break
		}
	}
	if label == "" {
		label = "Not " + action.Label + " Alternative"
	}

	alt := models.ActionOption{
		URI:         action.URI + "#alternative",
		Label:       label,
		Description: fmt.Sprintf("Alternative to %q that was not taken.", action.Label),
		WasChosen:   false,
		IsExtracted: false,
	}
	// The counterfactual has no recorded downstream events; its intensity
	// reflects only the action text itself.
	alt.Intensity = m.scoreIntensity(label, "", false)

	return alt, true
}

func (m *ActionMapper) decisionContext(action *models.CaseEntity) string {
	if ctx := action.Attribute("decision_context"); ctx != "" {
		return ctx
	}
	return fmt.Sprintf("Whether to proceed with %s", action.Label)
}

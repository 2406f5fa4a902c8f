package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// Argument confidence components.
const (
	argConfidenceBase       = 0.3
	argConfidenceWarrant    = 0.2
	argConfidenceBacking    = 0.2
	argConfidencePerData    = 0.1
	argConfidenceDataCap    = 3
	maxEventDataPerArgument = 2
)

// ArgumentGenerator builds Toulmin-structured pro and con arguments for
// every option of every decision point. An argument whose warrant cannot be
// constructed is skipped, never emitted incomplete.
type ArgumentGenerator struct {
	entities  repositories.CaseEntityRepository
	domainCfg *domain.Config
	logger    *zap.Logger
}

// NewArgumentGenerator creates a new argument generator.
func NewArgumentGenerator(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	logger *zap.Logger,
) *ArgumentGenerator {
	return &ArgumentGenerator{
		entities:  entities,
		domainCfg: domainCfg,
		logger:    logger.Named("argument_generator"),
	}
}

// Generate produces arguments for a case's decision points, using coverage
// analysis for conflict-based con warrants and principle alignments for
// backing.
func (g *ArgumentGenerator) Generate(
	ctx context.Context,
	caseID string,
	points []models.DecisionPoint,
	coverage *models.ObligationCoverage,
	alignments []models.PrincipleAlignment,
) ([]models.Argument, error) {
	events, err := g.entities.GetByEntityType(ctx, caseID, models.EntityTypeEvent)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	capabilities, err := g.entities.GetByEntityType(ctx, caseID, models.EntityTypeCapability)
	if err != nil {
		return nil, fmt.Errorf("load capabilities: %w", err)
	}
	provisions, err := g.entities.GetByEntityType(ctx, caseID, models.EntityTypeProvision)
	if err != nil {
		return nil, fmt.Errorf("load provisions: %w", err)
	}

	eventsByURI := indexByURI(events)
	provisionsByURI := indexByURI(provisions)
	analyses := coverageByURI(coverage)

	var arguments []models.Argument
	for _, dp := range points {
		for i, option := range dp.Options {
			if pro, ok := g.buildPro(dp, option, i, analyses, alignments, eventsByURI, provisionsByURI, capabilities); ok {
				arguments = append(arguments, pro)
			}
			if con, ok := g.buildCon(dp, option, i, coverage, analyses, eventsByURI); ok {
				arguments = append(arguments, con)
			}
		}
	}

	g.logger.Info("arguments generated",
		zap.String("case_id", caseID),
		zap.Int("decision_points", len(points)),
		zap.Int("arguments", len(arguments)))

	return arguments, nil
}

// buildPro constructs the supporting argument: warrant from the decision
// point's bound obligation or constraint, backing from provisions or
// alignments, data from the action and its downstream events.
func (g *ArgumentGenerator) buildPro(
	dp models.DecisionPoint,
	option models.ActionOption,
	optionIndex int,
	analyses map[string]models.ObligationAnalysis,
	alignments []models.PrincipleAlignment,
	eventsByURI, provisionsByURI map[string]*models.CaseEntity,
	capabilities []*models.CaseEntity,
) (models.Argument, bool) {
	warrant, ok := g.groundingWarrant(dp, analyses)
	if !ok {
		return models.Argument{}, false
	}

	arg := models.Argument{
		ID:              argumentID(dp, optionIndex, models.ArgumentPro),
		Type:            models.ArgumentPro,
		DecisionPointID: dp.FocusID,
		OptionURI:       option.URI,
		Warrant:         warrant,
		Role:            dp.Grounding.Role,
	}

	arg.Claim = models.ToulminComponent{
		Text: fmt.Sprintf("Choosing %q upholds %s for %s.", option.Label, warrant.EntityLabel, dp.Grounding.Role.Label),
	}

	arg.Backing = g.bestBacking(dp, warrant, alignments, provisionsByURI)

	arg.Data = append(arg.Data, models.ToulminComponent{
		Text:        option.Label,
		EntityURI:   option.URI,
		EntityLabel: option.Label,
		EntityType:  models.EntityTypeAction,
	})
	arg.Data = append(arg.Data, eventData(option.EventURIs, eventsByURI, maxEventDataPerArgument)...)

	arg.Qualifier = g.qualifier(dp, capabilities)

	arg.Virtues = g.domainCfg.VirtueTriggerClassifier().ClassifyAll(warrant.Text + " " + arg.Claim.Text)
	arg.FoundingGood = fmt.Sprintf("Upholding this obligation serves %s: %s.",
		g.domainCfg.FoundingGood, g.domainCfg.FoundingGoodDescription)

	arg.SourceURIs = sourceURIs(arg)
	arg.Confidence = g.confidence(arg)

	return arg, true
}

// buildCon constructs the opposing argument: a conflicting obligation as
// warrant with a rebuttal pointing back at the primary one, or a harm-based
// fallback from downstream events. With neither, no con argument is emitted.
func (g *ArgumentGenerator) buildCon(
	dp models.DecisionPoint,
	option models.ActionOption,
	optionIndex int,
	coverage *models.ObligationCoverage,
	analyses map[string]models.ObligationAnalysis,
	eventsByURI map[string]*models.CaseEntity,
) (models.Argument, bool) {
	primary, ok := g.groundingWarrant(dp, analyses)
	if !ok {
		return models.Argument{}, false
	}

	arg := models.Argument{
		ID:              argumentID(dp, optionIndex, models.ArgumentCon),
		Type:            models.ArgumentCon,
		DecisionPointID: dp.FocusID,
		OptionURI:       option.URI,
		Role:            dp.Grounding.Role,
	}

	if conflicting, found := g.conflictingObligation(dp, primary, coverage, analyses); found {
		arg.Warrant = conflicting
		arg.Claim = models.ToulminComponent{
			Text: fmt.Sprintf("Choosing %q conflicts with %s.", option.Label, conflicting.EntityLabel),
		}
		arg.Rebuttal = &models.ToulminComponent{
			Text:        fmt.Sprintf("Unless %s takes precedence in this situation.", primary.EntityLabel),
			EntityURI:   primary.EntityURI,
			EntityLabel: primary.EntityLabel,
			EntityType:  primary.EntityType,
		}
		arg.Data = append(arg.Data, eventData(option.EventURIs, eventsByURI, maxEventDataPerArgument)...)
	} else {
		// Harm-based fallback: only constructible with at least one
		// downstream event as data.
		data := eventData(option.EventURIs, eventsByURI, maxEventDataPerArgument)
		if len(data) == 0 {
			return models.Argument{}, false
		}
		arg.HarmBased = true
		arg.Warrant = models.ToulminComponent{
			Text:        fmt.Sprintf("Actions whose consequences threaten %s should be avoided.", g.domainCfg.FoundingGood),
			EntityURI:   primary.EntityURI,
			EntityLabel: primary.EntityLabel,
			EntityType:  primary.EntityType,
		}
		arg.Claim = models.ToulminComponent{
			Text: fmt.Sprintf("Choosing %q risks consequences that threaten %s.", option.Label, g.domainCfg.FoundingGood),
		}
		arg.Data = data
	}

	arg.Backing = models.ToulminComponent{Text: g.domainCfg.CodeName}
	arg.FoundingGood = fmt.Sprintf("This concern is weighed against %s.", g.domainCfg.FoundingGood)
	arg.SourceURIs = sourceURIs(arg)
	arg.Confidence = g.confidence(arg)

	return arg, true
}

// groundingWarrant builds the warrant component from the decision point's
// bound obligation or constraint.
func (g *ArgumentGenerator) groundingWarrant(dp models.DecisionPoint, analyses map[string]models.ObligationAnalysis) (models.ToulminComponent, bool) {
	var ref *models.EntityRef
	entityType := models.EntityTypeObligation
	if dp.Grounding.Obligation != nil && dp.Grounding.Obligation.URI != "" {
		ref = dp.Grounding.Obligation
	} else if dp.Grounding.Constraint != nil && dp.Grounding.Constraint.URI != "" {
		ref = dp.Grounding.Constraint
		entityType = models.EntityTypeConstraint
	}
	if ref == nil {
		return models.ToulminComponent{}, false
	}

	text := ref.Label
	if analysis, ok := analyses[ref.URI]; ok && analysis.Definition != "" {
		text = ref.Label + ": " + analysis.Definition
	}

	return models.ToulminComponent{
		Text:        text,
		EntityURI:   ref.URI,
		EntityLabel: ref.Label,
		EntityType:  entityType,
	}, true
}

// bestBacking picks backing in preference order: a provision referenced by
// the decision point, the best alignment provision sharing vocabulary with
// the warrant, then the generic code-name fallback.
func (g *ArgumentGenerator) bestBacking(
	dp models.DecisionPoint,
	warrant models.ToulminComponent,
	alignments []models.PrincipleAlignment,
	provisionsByURI map[string]*models.CaseEntity,
) models.ToulminComponent {
	for _, uri := range dp.ProvisionURIs {
		if p, ok := provisionsByURI[uri]; ok {
			return models.ToulminComponent{
				Text:        entityText(p),
				EntityURI:   p.URI,
				EntityLabel: p.Label,
				EntityType:  models.EntityTypeProvision,
			}
		}
	}

	var best *models.ProvisionMatch
	for i := range alignments {
		for j := range alignments[i].Provisions {
			p := &alignments[i].Provisions[j]
			if wordOverlap(warrant.Text, p.Label) == 0 {
				continue
			}
			if best == nil || p.Score > best.Score {
				best = p
			}
		}
	}
	if best != nil {
		return models.ToulminComponent{
			Text:        best.Label,
			EntityURI:   best.URI,
			EntityLabel: best.Label,
			EntityType:  models.EntityTypeProvision,
		}
	}

	return models.ToulminComponent{Text: g.domainCfg.CodeName}
}

// qualifier returns the decision point's constraint, or a capability entity
// bound to the same role.
func (g *ArgumentGenerator) qualifier(dp models.DecisionPoint, capabilities []*models.CaseEntity) *models.ToulminComponent {
	if dp.Grounding.Constraint != nil && dp.Grounding.Obligation != nil {
		return &models.ToulminComponent{
			Text:        dp.Grounding.Constraint.Label,
			EntityURI:   dp.Grounding.Constraint.URI,
			EntityLabel: dp.Grounding.Constraint.Label,
			EntityType:  models.EntityTypeConstraint,
		}
	}

	for _, c := range capabilities {
		if c.Attribute("role_uri") == dp.Grounding.Role.URI {
			return &models.ToulminComponent{
				Text:        c.Label,
				EntityURI:   c.URI,
				EntityLabel: c.Label,
				EntityType:  models.EntityTypeCapability,
			}
		}
	}

	return nil
}

// conflictingObligation finds a con warrant: recorded conflict URIs first,
// then the fixed conflict-keyword-pair table.
func (g *ArgumentGenerator) conflictingObligation(
	dp models.DecisionPoint,
	primary models.ToulminComponent,
	coverage *models.ObligationCoverage,
	analyses map[string]models.ObligationAnalysis,
) (models.ToulminComponent, bool) {
	if analysis, ok := analyses[primary.EntityURI]; ok {
		for _, uri := range analysis.ConflictingURIs {
			if conflicting, found := analyses[uri]; found {
				return analysisComponent(conflicting), true
			}
		}
	}

	primaryText := strings.ToLower(primary.Text)
	for _, other := range coverage.Obligations {
		if other.URI == primary.EntityURI {
			continue
		}
		otherText := strings.ToLower(other.Label + " " + other.Definition)
		for _, pair := range g.domainCfg.ConflictKeywordPairs {
			forward := strings.Contains(primaryText, pair.A) && strings.Contains(otherText, pair.B)
			reverse := strings.Contains(primaryText, pair.B) && strings.Contains(otherText, pair.A)
			if forward || reverse {
				return analysisComponent(other), true
			}
		}
	}

	return models.ToulminComponent{}, false
}

func (g *ArgumentGenerator) confidence(arg models.Argument) float64 {
	confidence := argConfidenceBase
	if arg.Warrant.Text != "" {
		confidence += argConfidenceWarrant
	}
	if arg.Backing.EntityURI != "" {
		confidence += argConfidenceBacking
	}

	grounded := 0
	for _, d := range arg.Data {
		if d.EntityURI != "" {
			grounded++
		}
	}
	if grounded > argConfidenceDataCap {
		grounded = argConfidenceDataCap
	}
	confidence += float64(grounded) * argConfidencePerData

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func analysisComponent(analysis models.ObligationAnalysis) models.ToulminComponent {
	text := analysis.Label
	if analysis.Definition != "" {
		text = analysis.Label + ": " + analysis.Definition
	}
	entityType := models.EntityTypeObligation
	if analysis.FoundingValueLimit {
		entityType = models.EntityTypeConstraint
	}
	return models.ToulminComponent{
		Text:        text,
		EntityURI:   analysis.URI,
		EntityLabel: analysis.Label,
		EntityType:  entityType,
	}
}

func eventData(eventURIs []string, eventsByURI map[string]*models.CaseEntity, limit int) []models.ToulminComponent {
	var data []models.ToulminComponent
	for _, uri := range eventURIs {
		if len(data) >= limit {
			break
		}
		e, ok := eventsByURI[uri]
		if !ok {
			continue
		}
		data = append(data, models.ToulminComponent{
			Text:        entityText(e),
			EntityURI:   e.URI,
			EntityLabel: e.Label,
			EntityType:  models.EntityTypeEvent,
		})
	}
	return data
}

func sourceURIs(arg models.Argument) []string {
	var uris []string
	seen := make(map[string]bool)
	add := func(uri string) {
		if uri != "" && !seen[uri] {
			uris = append(uris, uri)
			seen[uri] = true
		}
	}

	add(arg.Warrant.EntityURI)
	add(arg.Backing.EntityURI)
	for _, d := range arg.Data {
		add(d.EntityURI)
	}
	if arg.Qualifier != nil {
		add(arg.Qualifier.EntityURI)
	}
	if arg.Rebuttal != nil {
		add(arg.Rebuttal.EntityURI)
	}
	return uris
}

func argumentID(dp models.DecisionPoint, optionIndex int, argType string) string {
	return fmt.Sprintf("%s-opt%d-%s", dp.FocusID, optionIndex+1, argType)
}

func indexByURI(entities []*models.CaseEntity) map[string]*models.CaseEntity {
	byURI := make(map[string]*models.CaseEntity, len(entities))
	for _, e := range entities {
		byURI[e.URI] = e
	}
	return byURI
}

func coverageByURI(coverage *models.ObligationCoverage) map[string]models.ObligationAnalysis {
	byURI := make(map[string]models.ObligationAnalysis)
	for _, o := range coverage.Obligations {
		byURI[o.URI] = o
	}
	for _, c := range coverage.Constraints {
		byURI[c.URI] = c
	}
	return byURI
}

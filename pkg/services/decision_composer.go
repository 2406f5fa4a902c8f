package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/llm"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/prompts"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// Match acceptance thresholds for pairing obligations/constraints with
// action sets.
const (
	obligationMatchThreshold = 0.3
	constraintMatchThreshold = 0.2
	keywordHitScore          = 0.3
	wordOverlapScore         = 0.05
	boardOverlapScore        = 0.1
)

// Intensity tier boundaries for paradigmatic feature tags.
const (
	highIntensityFloor   = 0.7
	mediumIntensityFloor = 0.4
)

// DecisionComposer matches analyzed obligations and constraints to action
// sets, producing ranked, densely numbered decision points.
type DecisionComposer struct {
	entities  repositories.CaseEntityRepository
	domainCfg *domain.Config
	ai        llm.InferenceClient // nil disables the zero-result fallback
	maxTokens int
	logger    *zap.Logger
}

// NewDecisionComposer creates a new decision point composer. ai may be nil.
func NewDecisionComposer(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	ai llm.InferenceClient,
	maxTokens int,
	logger *zap.Logger,
) *DecisionComposer {
	return &DecisionComposer{
		entities:  entities,
		domainCfg: domainCfg,
		ai:        ai,
		maxTokens: maxTokens,
		logger:    logger.Named("decision_composer"),
	}
}

// Compose builds decision points from coverage analysis and action sets.
// The result is sorted by intensity descending with dense focus numbers.
func (c *DecisionComposer) Compose(
	ctx context.Context,
	caseID string,
	coverage *models.ObligationCoverage,
	sets []models.ActionSet,
) (*models.ComposerResult, error) {
	provisions, err := c.entities.GetByEntityType(ctx, caseID, models.EntityTypeProvision)
	if err != nil {
		return nil, fmt.Errorf("load provisions: %w", err)
	}
	questions, err := c.entities.GetByEntityType(ctx, caseID, models.EntityTypeBoardQuestion)
	if err != nil {
		return nil, fmt.Errorf("load board questions: %w", err)
	}
	conclusions, err := c.entities.GetByEntityType(ctx, caseID, models.EntityTypeBoardConclusion)
	if err != nil {
		return nil, fmt.Errorf("load board conclusions: %w", err)
	}

	result := &models.ComposerResult{CaseID: caseID}

	coveredRoles := make(map[string]bool)
	for _, obligation := range coverage.RelevantObligations() {
		set, score := c.bestMatch(obligation, sets, obligationMatchThreshold)
		if set == nil {
			continue
		}
		if obligation.Role != nil {
			coveredRoles[obligation.Role.URI] = true
		}
		dp := c.buildDecisionPoint(obligation, false, set, score, provisions, questions, conclusions)
		result.DecisionPoints = append(result.DecisionPoints, dp)
	}

	for _, constraint := range coverage.RelevantConstraints() {
		if constraint.Role != nil && coveredRoles[constraint.Role.URI] {
			continue
		}
		set, score := c.bestMatch(constraint, sets, constraintMatchThreshold)
		if set == nil {
			continue
		}
		dp := c.buildDecisionPoint(constraint, true, set, score, provisions, questions, conclusions)
		result.DecisionPoints = append(result.DecisionPoints, dp)
	}

	if len(result.DecisionPoints) == 0 {
		if err := c.applyFallback(ctx, caseID, coverage, sets, questions, conclusions, result); err != nil {
			return nil, err
		}
	}

	rankDecisionPoints(result.DecisionPoints)
	models.RenumberDecisionPoints(result.DecisionPoints)

	c.logger.Info("decision points composed",
		zap.String("case_id", caseID),
		zap.Int("decision_points", len(result.DecisionPoints)),
		zap.Bool("used_llm_fallback", result.UsedLLMFallback))

	return result, nil
}

// bestMatch scores every action set against an obligation and returns the
// best one at or above the threshold. Score = 0.3 per decision-type keyword
// hit in the set text + 0.05 per direct word overlap.
func (c *DecisionComposer) bestMatch(
	item models.ObligationAnalysis,
	sets []models.ActionSet,
	threshold float64,
) (*models.ActionSet, float64) {
	keywords := c.domainCfg.DecisionTypeClassifier().Keywords(string(item.DecisionType))
	itemText := item.Label + " " + item.Definition

	var best *models.ActionSet
	bestScore := 0.0
	for i := range sets {
		setText := actionSetText(&sets[i])

		score := 0.0
		for _, kw := range keywords {
			if domain.ContainsAny(setText, []string{kw}) {
				score += keywordHitScore
			}
		}
		score += float64(wordOverlap(itemText, setText)) * wordOverlapScore

		if score > bestScore {
			bestScore = score
			best = &sets[i]
		}
	}

	if best == nil || bestScore < threshold {
		return nil, 0
	}
	return best, bestScore
}

func (c *DecisionComposer) buildDecisionPoint(
	item models.ObligationAnalysis,
	isConstraint bool,
	set *models.ActionSet,
	matchScore float64,
	provisions, questions, conclusions []*models.CaseEntity,
) models.DecisionPoint {
	occurred := set.Occurred()

	dp := models.DecisionPoint{
		Description:    fmt.Sprintf("%s faces a decision involving %s", roleLabel(item), item.Label),
		Options:        append([]models.ActionOption(nil), set.Options...),
		IntensityScore: set.MaxIntensity,
		RelevanceScore: matchScore,
	}

	ref := models.EntityRef{URI: item.URI, Label: item.Label}
	if isConstraint {
		dp.Grounding.Constraint = &ref
	} else {
		dp.Grounding.Obligation = &ref
	}
	if item.Role != nil {
		dp.Grounding.Role = *item.Role
	}

	dp.DecisionQuestion = fmt.Sprintf("Should %s uphold %s by choosing %q?",
		roleLabel(item), item.Label, occurred.Label)

	dp.ProvisionURIs = item.ProvisionURIs
	if len(dp.ProvisionURIs) == 0 {
		dp.ProvisionURIs = c.matchProvisionsByKeyword(item, provisions)
	}

	for _, opt := range dp.Options {
		dp.EventURIs = append(dp.EventURIs, opt.EventURIs...)
	}

	dp.MatchedQuestion = bestBoardMatch(item.Label, questions)
	dp.MatchedConclusion = bestBoardMatch(item.Label, conclusions)

	dp.Features = c.paradigmaticFeatures(item, dp)

	return dp
}

// matchProvisionsByKeyword is the fallback when an obligation carries no
// stored provision relationships: provisions mentioning the obligation's
// decision-type keywords.
func (c *DecisionComposer) matchProvisionsByKeyword(item models.ObligationAnalysis, provisions []*models.CaseEntity) []string {
	keywords := c.domainCfg.DecisionTypeClassifier().Keywords(string(item.DecisionType))
	var uris []string
	for _, p := range provisions {
		if domain.ContainsAny(entityText(p), keywords) {
			uris = append(uris, p.URI)
		}
	}
	return uris
}

// bestBoardMatch scores board questions/conclusions by keyword overlap with
// the entity label and returns the best positive match.
func bestBoardMatch(label string, boardItems []*models.CaseEntity) *models.BoardMatch {
	var best *models.BoardMatch
	for _, item := range boardItems {
		overlap := wordOverlap(label, entityText(item))
		if overlap == 0 {
			continue
		}
		score := float64(overlap) * boardOverlapScore
		if best == nil || score > best.Score {
			best = &models.BoardMatch{
				URI:   item.URI,
				Text:  entityText(item),
				Score: score,
			}
		}
	}
	return best
}

// paradigmaticFeatures records tags used for later precedent comparison.
func (c *DecisionComposer) paradigmaticFeatures(item models.ObligationAnalysis, dp models.DecisionPoint) []string {
	features := []string{string(item.DecisionType)}
	if item.Instantiated {
		features = append(features, models.FeatureRoleBound)
	}
	if len(item.ConflictingURIs) > 0 {
		features = append(features, models.FeatureHasConflicts)
	}
	switch {
	case dp.IntensityScore >= highIntensityFloor:
		features = append(features, models.FeatureHighIntensity)
	case dp.IntensityScore >= mediumIntensityFloor:
		features = append(features, models.FeatureMediumIntensity)
	default:
		features = append(features, models.FeatureLowIntensity)
	}
	if len(dp.EventURIs) > 0 {
		features = append(features, models.FeatureHasConsequences)
	}
	return features
}

// applyFallback issues one AI inference call proposing decision points when
// deterministic composition found none. Unresolvable labels get synthesized
// case-scoped URIs; a malformed response leaves the empty result standing.
func (c *DecisionComposer) applyFallback(
	ctx context.Context,
	caseID string,
	coverage *models.ObligationCoverage,
	sets []models.ActionSet,
	questions, conclusions []*models.CaseEntity,
	result *models.ComposerResult,
) error {
	if c.ai == nil || (len(questions) == 0 && len(conclusions) == 0) {
		return nil
	}

	all := append(append([]models.ObligationAnalysis(nil), coverage.Obligations...), coverage.Constraints...)
	if len(all) == 0 {
		return nil
	}

	var questionTexts, conclusionTexts []string
	for _, q := range questions {
		questionTexts = append(questionTexts, entityText(q))
	}
	for _, cc := range conclusions {
		conclusionTexts = append(conclusionTexts, entityText(cc))
	}

	prompt := prompts.BuildCompositionFallbackPrompt(all, questionTexts, conclusionTexts)

	start := time.Now()
	inferred, err := c.ai.Infer(ctx, prompt, c.maxTokens)
	if err != nil {
		return fmt.Errorf("composition fallback inference: %w", err)
	}

	result.Traces = append(result.Traces, models.InferenceTrace{
		Stage:     models.StageDecisionComposing,
		Model:     c.ai.Model(),
		Prompt:    prompt,
		Response:  inferred.Content,
		ElapsedMS: time.Since(start).Milliseconds(),
	})

	proposed, err := prompts.ParseDecisionPoints(inferred.Content)
	if err != nil {
		c.logger.Warn("composition fallback response unusable",
			zap.String("case_id", caseID),
			zap.Error(err))
		return nil
	}

	for _, p := range proposed {
		if p.Description == "" || p.ObligationLabel == "" {
			continue
		}
		dp := models.DecisionPoint{
			Description:      p.Description,
			DecisionQuestion: p.DecisionQuestion,
			Grounding: models.Grounding{
				Role:       c.resolveLabel(caseID, p.RoleLabel, coverage),
				Obligation: &models.EntityRef{},
			},
		}
		*dp.Grounding.Obligation = c.resolveObligation(caseID, p.ObligationLabel, coverage)
		if len(sets) > 0 {
			dp.Options = append([]models.ActionOption(nil), sets[0].Options...)
			dp.IntensityScore = sets[0].MaxIntensity
		}
		result.DecisionPoints = append(result.DecisionPoints, dp)
	}

	if len(result.DecisionPoints) > 0 {
		result.UsedLLMFallback = true
	}
	return nil
}

// resolveLabel maps a model-returned role label back to a stored role, or
// synthesizes a case-scoped URI for it.
func (c *DecisionComposer) resolveLabel(caseID, label string, coverage *models.ObligationCoverage) models.EntityRef {
	key := normalizeKey(label)
	for _, o := range append(coverage.Obligations, coverage.Constraints...) {
		if o.Role != nil && normalizeKey(o.Role.Label) == key {
			return *o.Role
		}
	}
	return models.EntityRef{URI: synthesizedURI(caseID, label), Label: label}
}

func (c *DecisionComposer) resolveObligation(caseID, label string, coverage *models.ObligationCoverage) models.EntityRef {
	key := normalizeKey(label)
	for _, o := range append(coverage.Obligations, coverage.Constraints...) {
		if normalizeKey(o.Label) == key {
			return models.EntityRef{URI: o.URI, Label: o.Label}
		}
	}
	return models.EntityRef{URI: synthesizedURI(caseID, label), Label: label}
}

// synthesizedURI is the case-scoped fallback URI form recognized by the
// argument validator.
func synthesizedURI(caseID, label string) string {
	return fmt.Sprintf("case-%s#%s", caseID, label)
}

// rankDecisionPoints sorts by intensity descending, breaking ties by
// relevance then description for a deterministic order.
func rankDecisionPoints(points []models.DecisionPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].IntensityScore != points[j].IntensityScore {
			return points[i].IntensityScore > points[j].IntensityScore
		}
		if points[i].RelevanceScore != points[j].RelevanceScore {
			return points[i].RelevanceScore > points[j].RelevanceScore
		}
		return points[i].Description < points[j].Description
	})
}

func actionSetText(set *models.ActionSet) string {
	text := set.DecisionContext
	for _, opt := range set.Options {
		text += " " + opt.Label + " " + opt.Description
	}
	return text
}

func roleLabel(item models.ObligationAnalysis) string {
	if item.Role != nil {
		return item.Role.Label
	}
	return "The professional"
}

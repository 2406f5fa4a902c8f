package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/llm"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/prompts"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// relevantDecisionTypes are the decision types that make an obligation
// decision-relevant on their own, without a conflict or role binding.
var relevantDecisionTypes = map[models.DecisionType]bool{
	models.DecisionDisclosure:   true,
	models.DecisionVerification: true,
	models.DecisionSafety:       true,
}

// ObligationAnalyzer classifies obligations and constraints by decision
// type, binds them to roles, detects conflicts, and flags decision-relevant
// items. When nothing is relevant and board Q&C text exists, a single AI
// inference call selects relevant items by index.
type ObligationAnalyzer struct {
	entities  repositories.CaseEntityRepository
	domainCfg *domain.Config
	ai        llm.InferenceClient // nil disables the fallback branch
	maxTokens int
	logger    *zap.Logger
}

// NewObligationAnalyzer creates a new obligation coverage analyzer. ai may
// be nil, in which case the fallback branch is disabled.
func NewObligationAnalyzer(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	ai llm.InferenceClient,
	maxTokens int,
	logger *zap.Logger,
) *ObligationAnalyzer {
	return &ObligationAnalyzer{
		entities:  entities,
		domainCfg: domainCfg,
		ai:        ai,
		maxTokens: maxTokens,
		logger:    logger.Named("obligation_analyzer"),
	}
}

// Analyze runs obligation coverage analysis for a case.
func (a *ObligationAnalyzer) Analyze(ctx context.Context, caseID string) (*models.ObligationCoverage, error) {
	roles, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypeRole)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	obligationEntities, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypeObligation)
	if err != nil {
		return nil, fmt.Errorf("load obligations: %w", err)
	}
	constraintEntities, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypeConstraint)
	if err != nil {
		return nil, fmt.Errorf("load constraints: %w", err)
	}

	classifier := a.domainCfg.DecisionTypeClassifier()

	coverage := &models.ObligationCoverage{CaseID: caseID}
	for _, e := range obligationEntities {
		coverage.Obligations = append(coverage.Obligations, a.analyzeOne(e, roles, classifier, false))
	}
	for _, e := range constraintEntities {
		coverage.Constraints = append(coverage.Constraints, a.analyzeOne(e, roles, classifier, true))
	}

	a.detectConflicts(coverage)
	a.markRelevance(coverage)

	relevant := len(coverage.RelevantObligations()) + len(coverage.RelevantConstraints())
	a.logger.Info("obligation coverage analyzed",
		zap.String("case_id", caseID),
		zap.Int("obligations", len(coverage.Obligations)),
		zap.Int("constraints", len(coverage.Constraints)),
		zap.Int("decision_relevant", relevant))

	if relevant == 0 {
		if err := a.applyFallback(ctx, caseID, coverage); err != nil {
			return nil, err
		}
	}

	return coverage, nil
}

// analyzeOne classifies a single obligation or constraint entity.
func (a *ObligationAnalyzer) analyzeOne(
	e *models.CaseEntity,
	roles []*models.CaseEntity,
	classifier *domain.KeywordClassifier,
	isConstraint bool,
) models.ObligationAnalysis {
	analysis := models.ObligationAnalysis{
		URI:           e.URI,
		Label:         e.Label,
		Definition:    e.Definition,
		DecisionType:  models.DecisionType(classifier.Classify(entityText(e))),
		ProvisionURIs: e.AttributeList("related_provisions"),
	}

	analysis.Role = a.resolveRole(e, roles)
	analysis.Instantiated = analysis.Role != nil

	if isConstraint {
		analysis.FoundingValueLimit = e.AttributeBool("founding_value_limit")
	}

	return analysis
}

// resolveRole finds the role an obligation is bound to: explicit role_uri
// attribute first, then underscore-joined label tokens matched against known
// role names ("EngineerA_Disclosure_Obligation" binds to "Engineer A").
func (a *ObligationAnalyzer) resolveRole(e *models.CaseEntity, roles []*models.CaseEntity) *models.EntityRef {
	if roleURI := e.Attribute("role_uri"); roleURI != "" {
		for _, r := range roles {
			if r.URI == roleURI {
				return &models.EntityRef{URI: r.URI, Label: r.Label}
			}
		}
	}

	byKey := make(map[string]*models.CaseEntity, len(roles))
	for _, r := range roles {
		byKey[normalizeKey(r.Label)] = r
	}

	tokens := strings.Split(e.Label, "_")
	for end := len(tokens); end >= 1; end-- {
		key := normalizeKey(strings.Join(tokens[:end], ""))
		if key == "" {
			continue
		}
		if r, ok := byKey[key]; ok {
			return &models.EntityRef{URI: r.URI, Label: r.Label}
		}
	}

	return nil
}

// detectConflicts records pairwise conflicts. Two obligations conflict when
// bound to the same role with decision types forming a known conflict pair;
// an obligation conflicts with a same-role constraint that is a
// founding-value limit. Conflicts are recorded on both parties.
func (a *ObligationAnalyzer) detectConflicts(coverage *models.ObligationCoverage) {
	obs := coverage.Obligations
	for i := range obs {
		for j := i + 1; j < len(obs); j++ {
			if !sameRole(obs[i].Role, obs[j].Role) {
				continue
			}
			if a.domainCfg.ConflictingTypes(obs[i].DecisionType, obs[j].DecisionType) {
				obs[i].ConflictingURIs = append(obs[i].ConflictingURIs, obs[j].URI)
				obs[j].ConflictingURIs = append(obs[j].ConflictingURIs, obs[i].URI)
			}
		}
	}

	cons := coverage.Constraints
	for i := range obs {
		for j := range cons {
			if !sameRole(obs[i].Role, cons[j].Role) {
				continue
			}
			if cons[j].FoundingValueLimit {
				obs[i].ConflictingURIs = append(obs[i].ConflictingURIs, cons[j].URI)
				cons[j].ConflictingURIs = append(cons[j].ConflictingURIs, obs[i].URI)
			}
		}
	}
}

// markRelevance applies the decision-relevance rule: has a conflict, OR is
// role-instantiated, OR its decision type is inherently decision-bearing.
func (a *ObligationAnalyzer) markRelevance(coverage *models.ObligationCoverage) {
	mark := func(item *models.ObligationAnalysis) {
		item.DecisionRelevant = len(item.ConflictingURIs) > 0 ||
			item.Instantiated ||
			relevantDecisionTypes[item.DecisionType]
	}
	for i := range coverage.Obligations {
		mark(&coverage.Obligations[i])
	}
	for i := range coverage.Constraints {
		mark(&coverage.Constraints[i])
	}
}

// applyFallback issues one AI inference call to select decision-relevant
// items by index. Without a client or board Q&C text the zero-relevant
// result is returned unmodified; a malformed response is treated the same
// way and never retried.
func (a *ObligationAnalyzer) applyFallback(ctx context.Context, caseID string, coverage *models.ObligationCoverage) error {
	questions, conclusions, err := a.loadBoardContext(ctx, caseID)
	if err != nil {
		return err
	}

	if a.ai == nil || (len(questions) == 0 && len(conclusions) == 0) {
		a.logger.Info("relevance fallback unavailable",
			zap.String("case_id", caseID),
			zap.Bool("ai_client", a.ai != nil),
			zap.Int("board_items", len(questions)+len(conclusions)))
		return nil
	}

	items := make([]prompts.ObligationSummary, 0, len(coverage.Obligations)+len(coverage.Constraints))
	for _, o := range coverage.Obligations {
		items = append(items, summarize(o, "obligation"))
	}
	for _, c := range coverage.Constraints {
		items = append(items, summarize(c, "constraint"))
	}
	if len(items) == 0 {
		return nil
	}

	prompt := prompts.BuildRelevanceSelectionPrompt(items, questions, conclusions)

	start := time.Now()
	result, err := a.ai.Infer(ctx, prompt, a.maxTokens)
	if err != nil {
		return fmt.Errorf("relevance fallback inference: %w", err)
	}

	coverage.Trace = &models.InferenceTrace{
		Stage:     models.StageObligationCoverage,
		Model:     a.ai.Model(),
		Prompt:    prompt,
		Response:  result.Content,
		ElapsedMS: time.Since(start).Milliseconds(),
	}

	indices, err := prompts.ParseRelevanceSelection(result.Content, len(items))
	if err != nil {
		a.logger.Warn("relevance fallback response unusable",
			zap.String("case_id", caseID),
			zap.Error(err))
		return nil
	}

	for _, idx := range indices {
		if idx < len(coverage.Obligations) {
			coverage.Obligations[idx].DecisionRelevant = true
		} else {
			coverage.Constraints[idx-len(coverage.Obligations)].DecisionRelevant = true
		}
	}
	coverage.UsedLLMFallback = true

	a.logger.Info("relevance fallback applied",
		zap.String("case_id", caseID),
		zap.Int("selected", len(indices)))
	return nil
}

func (a *ObligationAnalyzer) loadBoardContext(ctx context.Context, caseID string) ([]string, []string, error) {
	questionEntities, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypeBoardQuestion)
	if err != nil {
		return nil, nil, fmt.Errorf("load board questions: %w", err)
	}
	conclusionEntities, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypeBoardConclusion)
	if err != nil {
		return nil, nil, fmt.Errorf("load board conclusions: %w", err)
	}

	var questions, conclusions []string
	for _, q := range questionEntities {
		questions = append(questions, entityText(q))
	}
	for _, c := range conclusionEntities {
		conclusions = append(conclusions, entityText(c))
	}
	return questions, conclusions, nil
}

func summarize(item models.ObligationAnalysis, kind string) prompts.ObligationSummary {
	s := prompts.ObligationSummary{
		Label:      item.Label,
		Definition: item.Definition,
		Kind:       kind,
	}
	if item.Role != nil {
		s.RoleLabel = item.Role.Label
	}
	return s
}

func sameRole(a, b *models.EntityRef) bool {
	return a != nil && b != nil && a.URI == b.URI
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/llm"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/prompts"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// maxRefinementCandidates bounds how many top-ranked decision points are sent
// to the model for description refinement.
const maxRefinementCandidates = 3

// Synthesizer runs the full pipeline for a case and persists the canonical
// result with replace-on-rerun semantics.
type Synthesizer struct {
	entities  repositories.CaseEntityRepository
	analyzer  *ObligationAnalyzer
	mapper    *ActionMapper
	composer  *DecisionComposer
	aligner   *PrincipleAligner
	generator *ArgumentGenerator
	validator *ArgumentValidator
	ai        llm.InferenceClient // nil disables fallback and refinement
	maxTokens int
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer and its stage services. ai may be nil,
// disabling the AI fallback and refinement branches.
func NewSynthesizer(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	ai llm.InferenceClient,
	maxTokens int,
	logger *zap.Logger,
) *Synthesizer {
	return &Synthesizer{
		entities:  entities,
		analyzer:  NewObligationAnalyzer(entities, domainCfg, ai, maxTokens, logger),
		mapper:    NewActionMapper(entities, domainCfg, logger),
		composer:  NewDecisionComposer(entities, domainCfg, ai, maxTokens, logger),
		aligner:   NewPrincipleAligner(entities, domainCfg, logger),
		generator: NewArgumentGenerator(entities, domainCfg, logger),
		validator: NewArgumentValidator(entities, domainCfg, logger),
		ai:        ai,
		maxTokens: maxTokens,
		logger:    logger.Named("synthesizer"),
	}
}

// Synthesize runs the full pipeline for a case without progress reporting.
func (s *Synthesizer) Synthesize(ctx context.Context, caseID string) (*models.SynthesisResult, error) {
	return s.SynthesizeWithProgress(ctx, caseID, nil)
}

// SynthesizeWithProgress runs the full pipeline, emitting a progress event at
// each stage boundary. emit may be nil. The run terminates with a COMPLETE
// event, or an ERROR event when any stage fails.
func (s *Synthesizer) SynthesizeWithProgress(ctx context.Context, caseID string, emit func(models.ProgressEvent)) (*models.SynthesisResult, error) {
	result, err := s.run(ctx, caseID, emit)
	if err != nil {
		s.emitEvent(emit, models.ProgressEvent{
			Stage:    models.StageError,
			Progress: 100,
			Error:    err.Error(),
		})
		return nil, err
	}

	s.emitEvent(emit, models.ProgressEvent{
		Stage:    models.StageComplete,
		Progress: 100,
		Counts: map[string]int{
			"decision_points": len(result.DecisionPoints),
			"arguments":       len(result.Arguments),
			"validations":     len(result.Validations),
		},
	})
	return result, nil
}

func (s *Synthesizer) run(ctx context.Context, caseID string, emit func(models.ProgressEvent)) (*models.SynthesisResult, error) {
	result := &models.SynthesisResult{CaseID: caseID}

	s.emitStage(emit, models.StageObligationCoverage, 5)
	coverage, err := s.analyzer.Analyze(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("obligation coverage: %w", err)
	}
	if coverage.UsedLLMFallback {
		result.UsedLLMFallback = true
	}
	if coverage.Trace != nil {
		result.Traces = append(result.Traces, *coverage.Trace)
	}

	s.emitStage(emit, models.StageActionMapping, 20)
	sets, err := s.mapper.MapActions(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("action mapping: %w", err)
	}

	s.emitStage(emit, models.StageDecisionComposing, 35)
	composed, err := s.composer.Compose(ctx, caseID, coverage, sets)
	if err != nil {
		return nil, fmt.Errorf("decision composition: %w", err)
	}
	if composed.UsedLLMFallback {
		result.UsedLLMFallback = true
	}
	result.Traces = append(result.Traces, composed.Traces...)
	result.DecisionPoints = composed.DecisionPoints

	s.boostBoardAlignment(result.DecisionPoints)
	rankDecisionPoints(result.DecisionPoints)
	models.RenumberDecisionPoints(result.DecisionPoints)

	if err := s.refineDecisionPoints(ctx, caseID, result); err != nil {
		return nil, err
	}

	s.emitStage(emit, models.StagePrincipleAlignment, 55)
	result.Alignments, err = s.aligner.Align(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("principle alignment: %w", err)
	}

	s.emitStage(emit, models.StageArgumentGeneration, 70)
	result.Arguments, err = s.generator.Generate(ctx, caseID, result.DecisionPoints, coverage, result.Alignments)
	if err != nil {
		return nil, fmt.Errorf("argument generation: %w", err)
	}

	s.emitStage(emit, models.StageArgumentValidation, 85)
	result.Validations, err = s.validator.Validate(ctx, caseID, result.Arguments)
	if err != nil {
		return nil, fmt.Errorf("argument validation: %w", err)
	}

	s.emitStage(emit, models.StagePersistence, 95)
	if err := s.persist(ctx, result); err != nil {
		return nil, fmt.Errorf("persist results: %w", err)
	}

	s.logger.Info("synthesis complete",
		zap.String("case_id", caseID),
		zap.Int("decision_points", len(result.DecisionPoints)),
		zap.Int("arguments", len(result.Arguments)),
		zap.Bool("used_llm_fallback", result.UsedLLMFallback),
		zap.Bool("used_refinement", result.UsedRefinement))

	return result, nil
}

// boostBoardAlignment folds matched board question/conclusion scores into
// each decision point's relevance score before final ranking.
func (s *Synthesizer) boostBoardAlignment(points []models.DecisionPoint) {
	for i := range points {
		if points[i].MatchedQuestion != nil {
			points[i].RelevanceScore += points[i].MatchedQuestion.Score
		}
		if points[i].MatchedConclusion != nil {
			points[i].RelevanceScore += points[i].MatchedConclusion.Score
		}
	}
}

// refineDecisionPoints sends the top-ranked candidates through one model
// pass that sharpens descriptions and questions. Best-effort: a missing
// client, a failed call, or an unusable response keeps the algorithmic text.
func (s *Synthesizer) refineDecisionPoints(ctx context.Context, caseID string, result *models.SynthesisResult) error {
	if s.ai == nil || len(result.DecisionPoints) == 0 {
		return nil
	}

	count := len(result.DecisionPoints)
	if count > maxRefinementCandidates {
		count = maxRefinementCandidates
	}
	candidates := result.DecisionPoints[:count]

	questions, conclusions, err := s.boardTexts(ctx, caseID)
	if err != nil {
		return err
	}

	prompt := prompts.BuildRefinementPrompt(candidates, questions, conclusions)

	start := time.Now()
	inferred, err := s.ai.Infer(ctx, prompt, s.maxTokens)
	if err != nil {
		s.logger.Warn("refinement inference failed",
			zap.String("case_id", caseID),
			zap.Error(err))
		return nil
	}

	result.Traces = append(result.Traces, models.InferenceTrace{
		Stage:     models.StageDecisionComposing,
		Model:     s.ai.Model(),
		Prompt:    prompt,
		Response:  inferred.Content,
		ElapsedMS: time.Since(start).Milliseconds(),
	})

	refined, err := prompts.ParseDecisionPoints(inferred.Content)
	if err != nil {
		s.logger.Warn("refinement response unusable",
			zap.String("case_id", caseID),
			zap.Error(err))
		return nil
	}

	byFocusID := make(map[string]*models.DecisionPoint, len(result.DecisionPoints))
	for i := range result.DecisionPoints {
		byFocusID[result.DecisionPoints[i].FocusID] = &result.DecisionPoints[i]
	}

	applied := false
	for _, r := range refined {
		dp, ok := byFocusID[r.FocusID]
		if !ok {
			continue
		}
		if r.Description != "" {
			dp.Description = r.Description
			applied = true
		}
		if r.DecisionQuestion != "" {
			dp.DecisionQuestion = r.DecisionQuestion
			applied = true
		}
	}
	if applied {
		result.UsedRefinement = true
	}
	return nil
}

func (s *Synthesizer) boardTexts(ctx context.Context, caseID string) ([]string, []string, error) {
	questionEntities, err := s.entities.GetByEntityType(ctx, caseID, models.EntityTypeBoardQuestion)
	if err != nil {
		return nil, nil, fmt.Errorf("load board questions: %w", err)
	}
	conclusionEntities, err := s.entities.GetByEntityType(ctx, caseID, models.EntityTypeBoardConclusion)
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

// persist writes the canonical result in one replace-on-rerun transaction:
// prior records of the three output tags are deleted before the new batch is
// inserted.
func (s *Synthesizer) persist(ctx context.Context, result *models.SynthesisResult) error {
	batches := map[string][]*models.CaseEntity{
		models.ExtractionCanonicalDecisionPoint: {},
		models.ExtractionArgumentGenerated:      {},
		models.ExtractionArgumentValidation:     {},
	}

	for i := range result.DecisionPoints {
		dp := &result.DecisionPoints[i]
		payload, err := json.Marshal(dp)
		if err != nil {
			return fmt.Errorf("marshal decision point %s: %w", dp.FocusID, err)
		}
		batches[models.ExtractionCanonicalDecisionPoint] = append(
			batches[models.ExtractionCanonicalDecisionPoint],
			&models.CaseEntity{
				CaseID:     result.CaseID,
				URI:        synthesizedURI(result.CaseID, dp.FocusID),
				Label:      dp.FocusID,
				Definition: dp.Description,
				Attributes: payload,
			})
	}

	for i := range result.Arguments {
		arg := &result.Arguments[i]
		payload, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("marshal argument %s: %w", arg.ID, err)
		}
		batches[models.ExtractionArgumentGenerated] = append(
			batches[models.ExtractionArgumentGenerated],
			&models.CaseEntity{
				CaseID:     result.CaseID,
				URI:        synthesizedURI(result.CaseID, arg.ID),
				Label:      arg.ID,
				Definition: arg.Claim.Text,
				Attributes: payload,
			})
	}

	for i := range result.Validations {
		v := &result.Validations[i]
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal validation for %s: %w", v.ArgumentID, err)
		}
		batches[models.ExtractionArgumentValidation] = append(
			batches[models.ExtractionArgumentValidation],
			&models.CaseEntity{
				CaseID:     result.CaseID,
				URI:        synthesizedURI(result.CaseID, v.ArgumentID+"#validation"),
				Label:      v.ArgumentID,
				Attributes: payload,
			})
	}

	return s.entities.ReplaceExtractions(ctx, result.CaseID, batches)
}

func (s *Synthesizer) emitStage(emit func(models.ProgressEvent), stage string, progress int) {
	s.emitEvent(emit, models.ProgressEvent{Stage: stage, Progress: progress})
}

func (s *Synthesizer) emitEvent(emit func(models.ProgressEvent), event models.ProgressEvent) {
	if emit == nil {
		return
	}
	emit(event)
}

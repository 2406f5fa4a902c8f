package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/llm"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

const testCaseID = "case-1"

func TestObligationAnalyzer_DisclosureConfidentialityConflict(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeRole,
			"urn:role:engineer-a", "Engineer A", "The reviewing engineer", nil),
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:disclosure", "EngineerA_Disclosure_Obligation",
			"Must disclose safety defects discovered during review", nil),
		entity(t, testCaseID, models.EntityTypeConstraint,
			"urn:con:confidentiality", "Confidentiality_Constraint",
			"Must keep client information confidential",
			map[string]any{"role_uri": "urn:role:engineer-a", "founding_value_limit": true}),
	)

	analyzer := NewObligationAnalyzer(repo, domain.Default(), nil, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)

	require.Len(t, coverage.Obligations, 1)
	require.Len(t, coverage.Constraints, 1)

	obligation := coverage.Obligations[0]
	constraint := coverage.Constraints[0]

	assert.Equal(t, models.DecisionDisclosure, obligation.DecisionType)
	assert.Equal(t, models.DecisionConfidentiality, constraint.DecisionType)

	require.NotNil(t, obligation.Role)
	assert.Equal(t, "Engineer A", obligation.Role.Label)
	require.NotNil(t, constraint.Role)
	assert.Equal(t, "urn:role:engineer-a", constraint.Role.URI)

	assert.True(t, constraint.FoundingValueLimit)

	// One conflict pair, recorded on both parties.
	assert.Equal(t, []string{"urn:con:confidentiality"}, obligation.ConflictingURIs)
	assert.Equal(t, []string{"urn:ob:disclosure"}, constraint.ConflictingURIs)

	assert.True(t, obligation.DecisionRelevant)
	assert.True(t, constraint.DecisionRelevant)
	assert.False(t, coverage.UsedLLMFallback)
}

func TestObligationAnalyzer_ConflictSymmetry(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeRole,
			"urn:role:engineer-a", "Engineer A", "", nil),
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:disclosure", "EngineerA_Disclosure_Obligation",
			"Must disclose defects", nil),
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:confidentiality", "EngineerA_Confidentiality_Obligation",
			"Must keep proprietary information confidential", nil),
	)

	analyzer := NewObligationAnalyzer(repo, domain.Default(), nil, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)
	require.Len(t, coverage.Obligations, 2)

	byURI := make(map[string]models.ObligationAnalysis)
	for _, o := range coverage.Obligations {
		byURI[o.URI] = o
	}
	assert.Contains(t, byURI["urn:ob:disclosure"].ConflictingURIs, "urn:ob:confidentiality")
	assert.Contains(t, byURI["urn:ob:confidentiality"].ConflictingURIs, "urn:ob:disclosure")
}

func TestObligationAnalyzer_NoConflictAcrossRoles(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeRole, "urn:role:engineer-a", "Engineer A", "", nil),
		entity(t, testCaseID, models.EntityTypeRole, "urn:role:engineer-b", "Engineer B", "", nil),
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:disclosure", "EngineerA_Disclosure_Obligation", "Must disclose defects", nil),
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:confidentiality", "EngineerB_Confidentiality_Obligation",
			"Must keep information confidential", nil),
	)

	analyzer := NewObligationAnalyzer(repo, domain.Default(), nil, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)

	for _, o := range coverage.Obligations {
		assert.Empty(t, o.ConflictingURIs)
	}
}

func TestObligationAnalyzer_FallbackSelectsByIndex(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:standards", "Maintain_Standards",
			"Uphold standards of the profession", nil),
		entity(t, testCaseID, models.EntityTypeBoardQuestion,
			"urn:q:1", "Question 1", "Was it ethical to proceed without further analysis?", nil),
	)

	ai := llm.NewMockInferenceClient()
	ai.InferFunc = func(ctx context.Context, prompt string, maxTokens int) (*llm.InferenceResult, error) {
		return &llm.InferenceResult{Content: `{"relevant_indices": [0]}`}, nil
	}

	analyzer := NewObligationAnalyzer(repo, domain.Default(), ai, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)

	assert.Equal(t, 1, ai.InferCalls)
	assert.True(t, coverage.UsedLLMFallback)
	require.NotNil(t, coverage.Trace)
	assert.Equal(t, models.StageObligationCoverage, coverage.Trace.Stage)
	assert.Equal(t, "mock-model", coverage.Trace.Model)

	require.Len(t, coverage.Obligations, 1)
	assert.True(t, coverage.Obligations[0].DecisionRelevant)
}

func TestObligationAnalyzer_FallbackMalformedResponse(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:standards", "Maintain_Standards", "Uphold standards", nil),
		entity(t, testCaseID, models.EntityTypeBoardQuestion,
			"urn:q:1", "Question 1", "Was the conduct acceptable?", nil),
	)

	ai := llm.NewMockInferenceClient()
	ai.InferFunc = func(ctx context.Context, prompt string, maxTokens int) (*llm.InferenceResult, error) {
		return &llm.InferenceResult{Content: "I cannot answer that."}, nil
	}

	analyzer := NewObligationAnalyzer(repo, domain.Default(), ai, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)

	// Exactly one call, no retry, zero-result standing.
	assert.Equal(t, 1, ai.InferCalls)
	assert.False(t, coverage.UsedLLMFallback)
	assert.NotNil(t, coverage.Trace)
	assert.False(t, coverage.Obligations[0].DecisionRelevant)
}

func TestObligationAnalyzer_FallbackDisabledWithoutClient(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:standards", "Maintain_Standards", "Uphold standards", nil),
		entity(t, testCaseID, models.EntityTypeBoardQuestion,
			"urn:q:1", "Question 1", "Was the conduct acceptable?", nil),
	)

	analyzer := NewObligationAnalyzer(repo, domain.Default(), nil, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)

	assert.False(t, coverage.UsedLLMFallback)
	assert.Nil(t, coverage.Trace)
}

func TestObligationAnalyzer_FallbackSkippedWithoutBoardContext(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:standards", "Maintain_Standards", "Uphold standards", nil),
	)

	ai := llm.NewMockInferenceClient()
	analyzer := NewObligationAnalyzer(repo, domain.Default(), ai, 2000, testLogger())
	coverage, err := analyzer.Analyze(context.Background(), testCaseID)
	require.NoError(t, err)

	assert.Zero(t, ai.InferCalls)
	assert.False(t, coverage.UsedLLMFallback)
}

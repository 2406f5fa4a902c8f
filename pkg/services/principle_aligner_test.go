package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

func TestPrincipleAligner_AlignsToFundamentalCanon(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypePrinciple,
			"urn:pr:safety", "Public Safety",
			"Engineers must hold public safety paramount", nil),
		entity(t, testCaseID, models.EntityTypeProvision,
			"urn:prov:i1", "Fundamental Canon I.1",
			"Engineers shall hold paramount the safety, health, and welfare of the public",
			map[string]any{"level": "fundamental_canon", "section": "I.1"}),
		entity(t, testCaseID, models.EntityTypeProvision,
			"urn:prov:iii9", "Professional Obligation III.9",
			"Engineers shall give credit for engineering work to those to whom credit is due",
			map[string]any{"level": "professional_obligation", "section": "III.9"}),
	)

	aligner := NewPrincipleAligner(repo, domain.Default(), testLogger())
	alignments, err := aligner.Align(context.Background(), testCaseID)
	require.NoError(t, err)
	require.Len(t, alignments, 1)

	alignment := alignments[0]
	assert.Equal(t, "Public Safety", alignment.Principle.Label)
	assert.Equal(t, "non_maleficence", alignment.UniversalCategory)
	assert.Equal(t, "obligation_support", alignment.SupportType)
	assert.Contains(t, alignment.KeyTerms, "safety")

	// The attribution provision shares no terms and stays out.
	require.Len(t, alignment.Provisions, 1)
	match := alignment.Provisions[0]
	assert.Equal(t, "urn:prov:i1", match.URI)
	assert.Equal(t, models.ProvisionFundamentalCanon, match.Level)
	assert.Equal(t, "I.1", match.Section)
	assert.Greater(t, match.Score, 0.3)

	// 0.3 base + 0.1 provision + 0.2 canon + 0.1 strong overlap.
	assert.InDelta(t, 0.7, alignment.Confidence, 1e-9)
}

func TestPrincipleAligner_CapsProvisionsAtThree(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypePrinciple,
			"urn:pr:safety", "Public Safety",
			"Engineers must protect public safety", nil),
	)
	for i := 0; i < 5; i++ {
		repo.add(entity(t, testCaseID, models.EntityTypeProvision,
			fmt.Sprintf("urn:prov:%d", i), fmt.Sprintf("Safety Provision %d", i),
			"Engineers must protect the safety and welfare of the public",
			map[string]any{"level": "rule_of_practice"}))
	}

	aligner := NewPrincipleAligner(repo, domain.Default(), testLogger())
	alignments, err := aligner.Align(context.Background(), testCaseID)
	require.NoError(t, err)
	require.Len(t, alignments, 1)

	provisions := alignments[0].Provisions
	require.Len(t, provisions, 3)
	for i := 1; i < len(provisions); i++ {
		assert.GreaterOrEqual(t, provisions[i-1].Score, provisions[i].Score)
	}
	assert.LessOrEqual(t, alignments[0].Confidence, 1.0)
}

func TestPrincipleAligner_UnknownPrincipleFallsBackToKeywords(t *testing.T) {
	repo := newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypePrinciple,
			"urn:pr:candor", "Candor",
			"Engineers should be honest and truthful in reports", nil),
	)

	aligner := NewPrincipleAligner(repo, domain.Default(), testLogger())
	alignments, err := aligner.Align(context.Background(), testCaseID)
	require.NoError(t, err)
	require.Len(t, alignments, 1)

	assert.Equal(t, "veracity", alignments[0].UniversalCategory)
	assert.Empty(t, alignments[0].Provisions)
	assert.InDelta(t, 0.3, alignments[0].Confidence, 1e-9)
}

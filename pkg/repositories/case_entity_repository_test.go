package repositories_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
	"github.com/ethosworks/ethos-engine/pkg/testhelpers"
)

func seedEntity(t *testing.T, repo repositories.CaseEntityRepository, caseID, entityType, uri, label string) {
	t.Helper()
	err := repo.Create(context.Background(), &models.CaseEntity{
		CaseID:     caseID,
		EntityType: entityType,
		URI:        uri,
		Label:      label,
		Attributes: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
}

func TestCaseEntityRepository_GetByEntityType(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := repositories.NewCaseEntityRepository(testDB.DB)
	ctx := context.Background()
	caseID := "case-" + uuid.NewString()

	seedEntity(t, repo, caseID, models.EntityTypeObligation, "urn:ob:z", "Zoning_Obligation")
	seedEntity(t, repo, caseID, models.EntityTypeObligation, "urn:ob:a", "Accuracy_Obligation")
	seedEntity(t, repo, caseID, models.EntityTypeRole, "urn:role:a", "Engineer A")
	seedEntity(t, repo, "case-"+uuid.NewString(), models.EntityTypeObligation, "urn:ob:other", "Other_Obligation")

	obligations, err := repo.GetByEntityType(ctx, caseID, models.EntityTypeObligation)
	require.NoError(t, err)
	require.Len(t, obligations, 2)
	assert.Equal(t, "Accuracy_Obligation", obligations[0].Label)
	assert.Equal(t, "Zoning_Obligation", obligations[1].Label)

	none, err := repo.GetByEntityType(ctx, caseID, models.EntityTypeEvent)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCaseEntityRepository_ListRefs(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := repositories.NewCaseEntityRepository(testDB.DB)
	ctx := context.Background()
	caseID := "case-" + uuid.NewString()

	seedEntity(t, repo, caseID, models.EntityTypeObligation, "urn:ob:b", "B_Obligation")
	seedEntity(t, repo, caseID, models.EntityTypeRole, "urn:role:a", "Engineer A")
	seedEntity(t, repo, caseID, models.EntityTypeAction, "urn:act:a", "Disclosure Decision")
	seedEntity(t, repo, caseID, models.EntityTypeAction, "urn:act:a", "Disclosure Decision")

	refs, err := repo.ListRefs(ctx, caseID)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, models.EntityRef{URI: "urn:act:a", Label: "Disclosure Decision"}, refs[0])
	assert.Equal(t, models.EntityRef{URI: "urn:ob:b", Label: "B_Obligation"}, refs[1])
	assert.Equal(t, models.EntityRef{URI: "urn:role:a", Label: "Engineer A"}, refs[2])
}

func TestCaseEntityRepository_ReplaceExtractions(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := repositories.NewCaseEntityRepository(testDB.DB)
	ctx := context.Background()
	caseID := "case-" + uuid.NewString()

	record := func(label string, dp models.DecisionPoint) *models.CaseEntity {
		payload, err := json.Marshal(dp)
		require.NoError(t, err)
		return &models.CaseEntity{
			URI:        "case-" + caseID + "#" + label,
			Label:      label,
			Attributes: payload,
		}
	}

	err := repo.ReplaceExtractions(ctx, caseID, map[string][]*models.CaseEntity{
		models.ExtractionCanonicalDecisionPoint: {
			record("DP1", models.DecisionPoint{FocusID: "DP1", FocusNumber: 1}),
			record("DP2", models.DecisionPoint{FocusID: "DP2", FocusNumber: 2}),
		},
	})
	require.NoError(t, err)

	stored, err := repo.GetByExtractionType(ctx, caseID, models.ExtractionCanonicalDecisionPoint)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, caseID, stored[0].CaseID)
	assert.Equal(t, models.ExtractionCanonicalDecisionPoint, stored[0].ExtractionType)

	// A rerun replaces the prior records rather than accumulating.
	err = repo.ReplaceExtractions(ctx, caseID, map[string][]*models.CaseEntity{
		models.ExtractionCanonicalDecisionPoint: {
			record("DP1", models.DecisionPoint{FocusID: "DP1", FocusNumber: 1}),
		},
	})
	require.NoError(t, err)

	stored, err = repo.GetByExtractionType(ctx, caseID, models.ExtractionCanonicalDecisionPoint)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "DP1", stored[0].Label)
}

func TestCaseEntityRepository_ReplaceExtractionsRejectsBadPayload(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := repositories.NewCaseEntityRepository(testDB.DB)
	ctx := context.Background()
	caseID := "case-" + uuid.NewString()

	err := repo.ReplaceExtractions(ctx, caseID, map[string][]*models.CaseEntity{
		models.ExtractionArgumentGenerated: {
			{Label: "DP1-opt1-pro", Attributes: json.RawMessage(`{"not_a_field": 1}`)},
		},
	})
	require.Error(t, err)

	stored, err := repo.GetByExtractionType(ctx, caseID, models.ExtractionArgumentGenerated)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

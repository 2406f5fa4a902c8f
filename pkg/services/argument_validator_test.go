package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

func validatorRepo(t *testing.T) *fakeEntityRepo {
	return newFakeEntityRepo(
		entity(t, testCaseID, models.EntityTypeObligation,
			"urn:ob:diligence", "Diligence_Obligation",
			"Must review submissions with care", nil),
		entity(t, testCaseID, models.EntityTypeProvision,
			"urn:prov:i1", "Fundamental Canon I.1", "Hold paramount public welfare", nil),
		entity(t, testCaseID, models.EntityTypeEvent,
			"urn:ev:incident", "Safety Incident", "A failure occurred", nil),
		entity(t, testCaseID, models.EntityTypeAction,
			"urn:act:review", "Review Decision", "Performed the review", nil),
	)
}

func diligentArgument() models.Argument {
	return models.Argument{
		ID:   "DP1-opt1-pro",
		Type: models.ArgumentPro,
		Claim: models.ToulminComponent{
			Text: "A diligent review upholds Diligence_Obligation",
		},
		Warrant: models.ToulminComponent{
			Text:        "Diligence_Obligation: thorough review of all submissions",
			EntityURI:   "urn:ob:diligence",
			EntityLabel: "Diligence_Obligation",
			EntityType:  models.EntityTypeObligation,
		},
		Backing: models.ToulminComponent{
			Text:      "Fundamental Canon I.1",
			EntityURI: "urn:prov:i1",
		},
		Data: []models.ToulminComponent{
			{Text: "Review Decision", EntityURI: "urn:act:review"},
			{Text: "Safety Incident", EntityURI: "urn:ev:incident"},
		},
		Role: models.EntityRef{URI: "urn:role:engineer-a", Label: "Engineer A"},
	}
}

func TestArgumentValidator_FullyValidArgumentScoresOne(t *testing.T) {
	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())

	results, err := validator.Validate(context.Background(), testCaseID,
		[]models.Argument{diligentArgument()})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.True(t, result.EntityRefsValid)
	assert.True(t, result.FoundingValueValid)
	assert.True(t, result.VirtueValid)
	assert.True(t, result.IsValid)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.Equal(t, []string{"diligence"}, result.RequiredVirtues)
	assert.Empty(t, result.UnresolvedURIs)
}

func TestArgumentValidator_MissingWarrantURIFailsEntityRefs(t *testing.T) {
	arg := diligentArgument()
	arg.Warrant.EntityURI = ""

	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())
	results, err := validator.Validate(context.Background(), testCaseID, []models.Argument{arg})
	require.NoError(t, err)

	result := results[0]
	assert.False(t, result.EntityRefsValid)
	assert.False(t, result.IsValid)
	assert.InDelta(t,
		models.WeightFoundingValue+models.WeightVirtuePresence, result.Score, 1e-9)
}

func TestArgumentValidator_ResolutionBelowThresholdFails(t *testing.T) {
	arg := diligentArgument()
	arg.Data = []models.ToulminComponent{
		{Text: "Unknown A", EntityURI: "urn:missing:a"},
		{Text: "Unknown B", EntityURI: "urn:missing:b"},
	}
	// 2 of 4 referenced URIs resolve, below the 70% floor.

	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())
	results, err := validator.Validate(context.Background(), testCaseID, []models.Argument{arg})
	require.NoError(t, err)

	result := results[0]
	assert.False(t, result.EntityRefsValid)
	assert.ElementsMatch(t, []string{"urn:missing:a", "urn:missing:b"}, result.UnresolvedURIs)
}

func TestArgumentValidator_SynthesizedURIFormResolves(t *testing.T) {
	arg := diligentArgument()
	arg.Warrant.EntityURI = "case-case-1#Diligence_Obligation"
	arg.Backing = models.ToulminComponent{Text: "NSPE Code of Ethics"}
	arg.Data = nil

	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())
	results, err := validator.Validate(context.Background(), testCaseID, []models.Argument{arg})
	require.NoError(t, err)

	assert.True(t, results[0].EntityRefsValid)
}

func TestArgumentValidator_FoundingValueViolation(t *testing.T) {
	arg := diligentArgument()
	arg.Claim.Text = "Proceeding without review would endanger occupants and remain diligent"

	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())
	results, err := validator.Validate(context.Background(), testCaseID, []models.Argument{arg})
	require.NoError(t, err)

	result := results[0]
	assert.False(t, result.FoundingValueValid)
	assert.Contains(t, result.ViolationKeywords, "endanger")
	assert.False(t, result.IsValid)
}

func TestArgumentValidator_ConArgumentsExemptFromViolationAndVirtue(t *testing.T) {
	arg := diligentArgument()
	arg.ID = "DP1-opt1-con"
	arg.Type = models.ArgumentCon
	arg.Claim.Text = "Choosing this would endanger the public and cause injury"
	// No matching virtue anywhere in the argument.
	arg.Warrant.Text = "Confidentiality_Constraint: client information stays private"
	arg.Data = nil
	arg.Backing = models.ToulminComponent{Text: "NSPE Code of Ethics"}

	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())
	results, err := validator.Validate(context.Background(), testCaseID, []models.Argument{arg})
	require.NoError(t, err)

	result := results[0]
	assert.True(t, result.FoundingValueValid)
	assert.True(t, result.VirtueValid)
}

func TestArgumentValidator_RoleCapabilitySatisfiesVirtue(t *testing.T) {
	repo := validatorRepo(t)
	repo.add(entity(t, testCaseID, models.EntityTypeCapability,
		"urn:cap:structural", "Structural Review Capability",
		"Engineer A is a qualified structural reviewer",
		map[string]any{"role_uri": "urn:role:engineer-a"}))

	// Competence is required but no indicator appears in the argument text,
	// so only the role-matching capability can satisfy it.
	arg := diligentArgument()
	arg.Warrant.Text = "Engineering_Review_Obligation: apply engineering judgment to submissions"
	arg.Claim.Text = "The chosen action upholds the review duty"

	validator := NewArgumentValidator(repo, domain.Default(), testLogger())
	results, err := validator.Validate(context.Background(), testCaseID, []models.Argument{arg})
	require.NoError(t, err)

	assert.True(t, results[0].VirtueValid)
}

func TestArgumentValidator_ScoreBoundsAndValidityInvariant(t *testing.T) {
	validator := NewArgumentValidator(validatorRepo(t), domain.Default(), testLogger())

	violating := diligentArgument()
	violating.Claim.Text = "This would conceal the defect"

	unresolved := diligentArgument()
	unresolved.Warrant.EntityURI = ""

	arguments := []models.Argument{diligentArgument(), violating, unresolved}
	results, err := validator.Validate(context.Background(), testCaseID, arguments)
	require.NoError(t, err)

	for _, result := range results {
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
		allPass := result.EntityRefsValid && result.FoundingValueValid && result.VirtueValid
		assert.Equal(t, allPass, result.IsValid)
	}
}

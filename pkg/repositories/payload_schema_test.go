package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethosworks/ethos-engine/pkg/apperrors"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

func TestValidateExtractionPayload_AcceptsKnownShapes(t *testing.T) {
	dp, err := json.Marshal(models.DecisionPoint{FocusID: "DP1", FocusNumber: 1})
	require.NoError(t, err)
	arg, err := json.Marshal(models.Argument{ID: "DP1-opt1-pro", Type: models.ArgumentPro})
	require.NoError(t, err)
	val, err := json.Marshal(models.ValidationResult{ArgumentID: "DP1-opt1-pro"})
	require.NoError(t, err)

	assert.NoError(t, ValidateExtractionPayload(models.ExtractionCanonicalDecisionPoint, dp))
	assert.NoError(t, ValidateExtractionPayload(models.ExtractionArgumentGenerated, arg))
	assert.NoError(t, ValidateExtractionPayload(models.ExtractionArgumentValidation, val))
}

func TestValidateExtractionPayload_RejectsUnknownFields(t *testing.T) {
	err := ValidateExtractionPayload(models.ExtractionCanonicalDecisionPoint,
		json.RawMessage(`{"focus_id": "DP1", "surprise": true}`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestValidateExtractionPayload_RejectsUnknownType(t *testing.T) {
	err := ValidateExtractionPayload("mystery_tag", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestValidateExtractionPayload_RejectsEmptyPayload(t *testing.T) {
	err := ValidateExtractionPayload(models.ExtractionArgumentGenerated, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestValidateExtractionPayload_RejectsWrongShape(t *testing.T) {
	err := ValidateExtractionPayload(models.ExtractionArgumentValidation,
		json.RawMessage(`{"argument_id": 42}`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

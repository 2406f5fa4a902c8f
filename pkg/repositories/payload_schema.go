package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethosworks/ethos-engine/pkg/apperrors"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

// ValidateExtractionPayload checks a record's JSON payload against the
// schema for its extraction type. Payloads are tagged variants, not opaque
// maps: every tag has exactly one expected shape.
func ValidateExtractionPayload(extractionType string, payload json.RawMessage) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload: %w", apperrors.ErrInvalidPayload)
	}

	var err error
	switch extractionType {
	case models.ExtractionCanonicalDecisionPoint:
		err = strictDecode(payload, &models.DecisionPoint{})
	case models.ExtractionArgumentGenerated:
		err = strictDecode(payload, &models.Argument{})
	case models.ExtractionArgumentValidation:
		err = strictDecode(payload, &models.ValidationResult{})
	default:
		return fmt.Errorf("unknown extraction type %q: %w", extractionType, apperrors.ErrInvalidPayload)
	}

	if err != nil {
		return fmt.Errorf("%v: %w", err, apperrors.ErrInvalidPayload)
	}
	return nil
}

func strictDecode(payload json.RawMessage, target any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

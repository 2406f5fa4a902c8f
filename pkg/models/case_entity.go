package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity type constants for extracted case entities.
const (
	EntityTypeRole            = "role"
	EntityTypeObligation      = "obligation"
	EntityTypeConstraint      = "constraint"
	EntityTypeAction          = "action"
	EntityTypeEvent           = "event"
	EntityTypePrinciple       = "principle"
	EntityTypeProvision       = "provision"
	EntityTypeCapability      = "capability"
	EntityTypeCausalChain     = "causal_chain"
	EntityTypeBoardQuestion   = "board_question"
	EntityTypeBoardConclusion = "board_conclusion"
)

// Extraction type tags for records written back by the pipeline.
const (
	ExtractionCanonicalDecisionPoint = "canonical_decision_point"
	ExtractionArgumentGenerated      = "argument_generated"
	ExtractionArgumentValidation     = "argument_validation"
)

// CaseEntity is one record in the case-scoped entity store. Extracted
// entities carry an EntityType; pipeline outputs written back to the store
// carry an ExtractionType and a typed JSON payload in Attributes.
type CaseEntity struct {
	ID             uuid.UUID       `json:"id"`
	CaseID         string          `json:"case_id"`
	EntityType     string          `json:"entity_type"`
	ExtractionType string          `json:"extraction_type,omitempty"`
	URI            string          `json:"entity_uri"`
	Label          string          `json:"entity_label"`
	Definition     string          `json:"entity_definition,omitempty"`
	Attributes     json.RawMessage `json:"attributes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Attribute reads a string attribute from the entity's JSON attributes.
// Returns "" if attributes are absent or the key is missing.
func (e *CaseEntity) Attribute(key string) string {
	if len(e.Attributes) == 0 {
		return ""
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(e.Attributes, &attrs); err != nil {
		return ""
	}
	raw, ok := attrs[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// AttributeBool reads a boolean attribute, accepting JSON booleans or the
// strings "true"/"false". Returns false when absent or unreadable.
func (e *CaseEntity) AttributeBool(key string) bool {
	if len(e.Attributes) == 0 {
		return false
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(e.Attributes, &attrs); err != nil {
		return false
	}
	raw, ok := attrs[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "true"
	}
	return false
}

// AttributeList reads a string-slice attribute from the entity's JSON
// attributes. Used for stored relationship metadata such as related
// provision URIs.
func (e *CaseEntity) AttributeList(key string) []string {
	if len(e.Attributes) == 0 {
		return nil
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(e.Attributes, &attrs); err != nil {
		return nil
	}
	raw, ok := attrs[key]
	if !ok {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// EntityRef is a uri/label pair referencing a stored entity.
type EntityRef struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier_FirstMatchWins(t *testing.T) {
	c := Default().DecisionTypeClassifier()

	// "report" precedes "safety" in table order.
	assert.Equal(t, "disclosure", c.Classify("Report the safety incident"))
	assert.Equal(t, "safety", c.Classify("Protect the public"))
	assert.Equal(t, "unclassified", c.Classify("Attend the quarterly meeting"))
}

func TestKeywordClassifier_CaseInsensitive(t *testing.T) {
	c := Default().DecisionTypeClassifier()
	assert.Equal(t, "disclosure", c.Classify("DISCLOSE the defect"))
}

func TestKeywordClassifier_ClassifyAll(t *testing.T) {
	c := Default().DecisionTypeClassifier()

	got := c.ClassifyAll("Disclose the safety hazard under a confidentiality agreement")
	assert.Equal(t, []string{"confidentiality", "disclosure", "safety"}, got)

	assert.Nil(t, c.ClassifyAll("nothing relevant here"))
}

func TestKeywordClassifier_MatchesAtTokenBoundaries(t *testing.T) {
	c := Default().DecisionTypeClassifier()

	// Stems match at token starts, never mid-word.
	assert.Equal(t, "disclosure", c.Classify("Must inform the client of defects"))
	assert.Equal(t, "disclosure", c.Classify("Informed the city council promptly"))
	assert.Equal(t, "unclassified", c.Classify("An unchecked assumption"))
}

func TestKeywordClassifier_ConfidentialityBeatsInformStem(t *testing.T) {
	c := Default().DecisionTypeClassifier()

	assert.Equal(t, "confidentiality", c.Classify("Must keep client information confidential"))
	assert.Equal(t, "confidentiality", c.Classify("Must keep proprietary information confidential"))
}

func TestKeywordClassifier_Matches(t *testing.T) {
	c := Default().VirtueTriggerClassifier()

	assert.True(t, c.Matches("diligence", "a thorough review"))
	assert.False(t, c.Matches("honesty", "a thorough review"))
	assert.False(t, c.Matches("unknown-category", "a thorough review"))
}

func TestKeywordClassifier_Keywords(t *testing.T) {
	c := Default().VirtueTriggerClassifier()

	assert.Contains(t, c.Keywords("competence"), "engineering")
	assert.Nil(t, c.Keywords("patience"))
}

func TestContainsAny(t *testing.T) {
	kws := Default().ViolationKeywords
	assert.True(t, ContainsAny("This would ENDANGER the public", kws))
	assert.False(t, ContainsAny("This improves the design", kws))
}

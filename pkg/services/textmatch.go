// Package services implements the six-stage decision point synthesis
// pipeline and its orchestrator.
package services

import (
	"strings"

	"github.com/ethosworks/ethos-engine/pkg/models"
)

// tokenize lowercases text and returns words longer than three characters,
// with label punctuation stripped. Short words carry no matching signal.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', ',', ':', ';', '?', '!', '(', ')', '/':
			return ' '
		}
		return r
	}, strings.ToLower(text))

	var tokens []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 3 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// wordOverlap counts distinct tokens shared by two texts.
func wordOverlap(a, b string) int {
	aTokens := make(map[string]bool)
	for _, t := range tokenize(a) {
		aTokens[t] = true
	}

	seen := make(map[string]bool)
	count := 0
	for _, t := range tokenize(b) {
		if aTokens[t] && !seen[t] {
			count++
			seen[t] = true
		}
	}
	return count
}

// entityText joins an entity's label and definition for keyword matching.
func entityText(e *models.CaseEntity) string {
	if e.Definition == "" {
		return e.Label
	}
	return e.Label + " " + e.Definition
}

// normalizeKey collapses a name for comparisons across label conventions:
// "Engineer A", "engineer_a", and "EngineerA" all normalize identically.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Package prompts builds inference prompts and parses their expected JSON
// response shapes.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethosworks/ethos-engine/pkg/jsonutil"
	"github.com/ethosworks/ethos-engine/pkg/llm"
)

// ObligationSummary is the minimal view of an obligation or constraint
// presented to the model for index selection.
type ObligationSummary struct {
	Label      string
	Definition string
	RoleLabel  string
	Kind       string // "obligation" or "constraint"
}

// maxExcerptLen bounds board Q&C excerpts so the prompt stays inside the
// token budget.
const maxExcerptLen = 400

// BuildRelevanceSelectionPrompt creates the obligation-relevance fallback
// prompt: all obligations and constraints, indexed, plus board question and
// conclusion excerpts, asking for a JSON index array of decision-relevant
// items.
func BuildRelevanceSelectionPrompt(items []ObligationSummary, questions, conclusions []string) string {
	var prompt strings.Builder

	prompt.WriteString("# Decision-Relevant Obligation Selection\n\n")
	prompt.WriteString("The deterministic analysis found no decision-relevant obligations for this case. ")
	prompt.WriteString("Using the board's questions and conclusions below, select the obligations and constraints that bear on the case's ethical decisions.\n\n")

	prompt.WriteString("## Obligations and Constraints\n\n")
	for i, item := range items {
		prompt.WriteString(fmt.Sprintf("%d. [%s] %s", i, item.Kind, item.Label))
		if item.RoleLabel != "" {
			prompt.WriteString(fmt.Sprintf(" (bound to %s)", item.RoleLabel))
		}
		if item.Definition != "" {
			prompt.WriteString(fmt.Sprintf(": %s", item.Definition))
		}
		prompt.WriteString("\n")
	}

	if len(questions) > 0 {
		prompt.WriteString("\n## Board Questions\n\n")
		for _, q := range questions {
			prompt.WriteString("- " + excerpt(q) + "\n")
		}
	}

	if len(conclusions) > 0 {
		prompt.WriteString("\n## Board Conclusions\n\n")
		for _, c := range conclusions {
			prompt.WriteString("- " + excerpt(c) + "\n")
		}
	}

	prompt.WriteString("\n## Response Format\n\n")
	prompt.WriteString("Respond with a JSON object containing the zero-based indices of the decision-relevant items:\n\n")
	prompt.WriteString("```json\n{\"relevant_indices\": [0, 2]}\n```\n")

	return prompt.String()
}

// ParseRelevanceSelection extracts the index array from a relevance-selection
// response. Indices outside [0, itemCount) are dropped.
func ParseRelevanceSelection(response string, itemCount int) ([]int, error) {
	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	// Some models answer with a bare array instead of the wrapper object.
	raw := json.RawMessage(jsonStr)
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &obj); err == nil {
		if wrapped, ok := obj["relevant_indices"]; ok {
			raw = wrapped
		} else {
			return nil, fmt.Errorf("selection object missing relevant_indices")
		}
	}

	indices, err := jsonutil.FlexibleIntSlice(raw)
	if err != nil {
		return nil, fmt.Errorf("parse relevant_indices: %w", err)
	}

	var valid []int
	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx >= 0 && idx < itemCount && !seen[idx] {
			valid = append(valid, idx)
			seen[idx] = true
		}
	}

	return valid, nil
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxExcerptLen {
		return text
	}
	return text[:maxExcerptLen] + "..."
}

package prompts

import (
	"fmt"
	"strings"

	"github.com/ethosworks/ethos-engine/pkg/llm"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

// RefinedDecisionPoint is the JSON shape the model returns for decision
// point refinement and for the composer's zero-result fallback.
type RefinedDecisionPoint struct {
	FocusID          string `json:"focus_id,omitempty"`
	Description      string `json:"description"`
	DecisionQuestion string `json:"decision_question"`
	RoleLabel        string `json:"role_label,omitempty"`
	ObligationLabel  string `json:"obligation_label,omitempty"`
}

// refinementResponse wraps the expected decision_points array.
type refinementResponse struct {
	DecisionPoints []RefinedDecisionPoint `json:"decision_points"`
}

// BuildRefinementPrompt creates the prompt asking the model to sharpen the
// descriptions and decision questions of the highest-scoring candidates.
func BuildRefinementPrompt(points []models.DecisionPoint, questions, conclusions []string) string {
	var prompt strings.Builder

	prompt.WriteString("# Decision Point Refinement\n\n")
	prompt.WriteString("Refine the description and decision question of each candidate decision point below. ")
	prompt.WriteString("Keep each focus_id unchanged and do not invent new decision points.\n\n")

	prompt.WriteString("## Candidates\n\n")
	for _, dp := range points {
		prompt.WriteString(fmt.Sprintf("### %s\n", dp.FocusID))
		prompt.WriteString(fmt.Sprintf("- Role: %s\n", dp.Grounding.Role.Label))
		if dp.Grounding.Obligation != nil {
			prompt.WriteString(fmt.Sprintf("- Obligation: %s\n", dp.Grounding.Obligation.Label))
		}
		if dp.Grounding.Constraint != nil {
			prompt.WriteString(fmt.Sprintf("- Constraint: %s\n", dp.Grounding.Constraint.Label))
		}
		prompt.WriteString(fmt.Sprintf("- Description: %s\n", dp.Description))
		prompt.WriteString(fmt.Sprintf("- Question: %s\n", dp.DecisionQuestion))
		for _, opt := range dp.Options {
			prompt.WriteString(fmt.Sprintf("- Option: %s\n", opt.Label))
		}
		prompt.WriteString("\n")
	}

	writeBoardContext(&prompt, questions, conclusions)

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("```json\n{\"decision_points\": [{\"focus_id\": \"DP1\", \"description\": \"...\", \"decision_question\": \"...\"}]}\n```\n")

	return prompt.String()
}

// BuildCompositionFallbackPrompt creates the composer's zero-result fallback
// prompt: given the case's obligations, roles, and board context, propose
// decision points directly.
func BuildCompositionFallbackPrompt(obligations []models.ObligationAnalysis, questions, conclusions []string) string {
	var prompt strings.Builder

	prompt.WriteString("# Decision Point Proposal\n\n")
	prompt.WriteString("No decision points could be composed deterministically for this case. ")
	prompt.WriteString("Propose decision points grounded in the obligations below.\n\n")

	prompt.WriteString("## Obligations\n\n")
	for _, o := range obligations {
		prompt.WriteString(fmt.Sprintf("- %s", o.Label))
		if o.Role != nil {
			prompt.WriteString(fmt.Sprintf(" (bound to %s)", o.Role.Label))
		}
		if o.Definition != "" {
			prompt.WriteString(": " + o.Definition)
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")

	writeBoardContext(&prompt, questions, conclusions)

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("```json\n{\"decision_points\": [{\"description\": \"...\", \"decision_question\": \"...\", \"role_label\": \"...\", \"obligation_label\": \"...\"}]}\n```\n")

	return prompt.String()
}

// ParseDecisionPoints extracts the decision_points array from a response.
func ParseDecisionPoints(response string) ([]RefinedDecisionPoint, error) {
	parsed, err := llm.ParseJSONResponse[refinementResponse](response)
	if err != nil {
		return nil, err
	}
	return parsed.DecisionPoints, nil
}

func writeBoardContext(prompt *strings.Builder, questions, conclusions []string) {
	if len(questions) > 0 {
		prompt.WriteString("## Board Questions\n\n")
		for _, q := range questions {
			prompt.WriteString("- " + excerpt(q) + "\n")
		}
		prompt.WriteString("\n")
	}
	if len(conclusions) > 0 {
		prompt.WriteString("## Board Conclusions\n\n")
		for _, c := range conclusions {
			prompt.WriteString("- " + excerpt(c) + "\n")
		}
		prompt.WriteString("\n")
	}
}

package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// Minimum share of referenced URIs that must resolve against the case's
// entity set for the entity-reference sub-test to pass.
const uriResolutionThreshold = 0.7

const defaultRequiredVirtue = "competence"

// ArgumentValidator runs the three-tier gate over generated arguments:
// entity-reference integrity, founding-value violation, and professional
// virtue presence.
type ArgumentValidator struct {
	entities  repositories.CaseEntityRepository
	domainCfg *domain.Config
	logger    *zap.Logger
}

// NewArgumentValidator creates a new argument validator.
func NewArgumentValidator(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	logger *zap.Logger,
) *ArgumentValidator {
	return &ArgumentValidator{
		entities:  entities,
		domainCfg: domainCfg,
		logger:    logger.Named("argument_validator"),
	}
}

// Validate produces one result per argument. Validation never rejects the
// batch; individual arguments fail their own gates.
func (v *ArgumentValidator) Validate(ctx context.Context, caseID string, arguments []models.Argument) ([]models.ValidationResult, error) {
	refs, err := v.entities.ListRefs(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load entity refs: %w", err)
	}
	capabilities, err := v.entities.GetByEntityType(ctx, caseID, models.EntityTypeCapability)
	if err != nil {
		return nil, fmt.Errorf("load capabilities: %w", err)
	}

	// The resolvable set includes every stored URI plus a synthesized
	// case-scoped form for each label, so fallback-composed references
	// still resolve.
	resolvable := make(map[string]bool, len(refs)*2)
	for _, ref := range refs {
		resolvable[ref.URI] = true
		resolvable[synthesizedURI(caseID, ref.Label)] = true
	}

	results := make([]models.ValidationResult, 0, len(arguments))
	passed := 0
	for _, arg := range arguments {
		result := v.validateOne(arg, resolvable, capabilities)
		if result.IsValid {
			passed++
		}
		results = append(results, result)
	}

	v.logger.Info("arguments validated",
		zap.String("case_id", caseID),
		zap.Int("arguments", len(arguments)),
		zap.Int("valid", passed))

	return results, nil
}

func (v *ArgumentValidator) validateOne(arg models.Argument, resolvable map[string]bool, capabilities []*models.CaseEntity) models.ValidationResult {
	result := models.ValidationResult{ArgumentID: arg.ID}

	result.EntityRefsValid, result.UnresolvedURIs = v.checkEntityRefs(arg, resolvable)
	result.FoundingValueValid, result.ViolationKeywords = v.checkFoundingValue(arg)
	result.VirtueValid, result.RequiredVirtues = v.checkVirtues(arg, capabilities)

	result.ComputeScore()
	return result
}

// checkEntityRefs requires a warrant URI and that at least 70% of all
// referenced URIs resolve.
func (v *ArgumentValidator) checkEntityRefs(arg models.Argument, resolvable map[string]bool) (bool, []string) {
	if arg.Warrant.EntityURI == "" {
		return false, nil
	}

	var referenced []string
	seen := make(map[string]bool)
	collect := func(c *models.ToulminComponent) {
		if c == nil || c.EntityURI == "" || seen[c.EntityURI] {
			return
		}
		seen[c.EntityURI] = true
		referenced = append(referenced, c.EntityURI)
	}
	collect(&arg.Claim)
	collect(&arg.Warrant)
	collect(&arg.Backing)
	for i := range arg.Data {
		collect(&arg.Data[i])
	}
	collect(arg.Qualifier)
	collect(arg.Rebuttal)

	var unresolved []string
	for _, uri := range referenced {
		if !resolvable[uri] {
			unresolved = append(unresolved, uri)
		}
	}

	resolved := len(referenced) - len(unresolved)
	ok := float64(resolved) >= uriResolutionThreshold*float64(len(referenced))
	return ok, unresolved
}

// checkFoundingValue fails when claim or warrant text advocates something
// the domain's violation keywords flag. Con arguments discuss violations by
// nature and are exempt.
func (v *ArgumentValidator) checkFoundingValue(arg models.Argument) (bool, []string) {
	if arg.Type == models.ArgumentCon {
		return true, nil
	}

	text := strings.ToLower(arg.Claim.Text + " " + arg.Warrant.Text)
	var hits []string
	for _, kw := range v.domainCfg.ViolationKeywords {
		if strings.Contains(text, kw) {
			hits = append(hits, kw)
		}
	}
	claim := strings.ToLower(arg.Claim.Text)
	for _, kw := range v.domainCfg.SeverityKeywords {
		if strings.Contains(claim, kw) {
			hits = append(hits, kw)
		}
	}

	return len(hits) == 0, hits
}

// checkVirtues derives required virtues from warrant/claim triggers
// (defaulting to competence) and accepts any of: a carried matching virtue,
// a virtue indicator in the argument text, a role-matching capability
// entity, or the argument being con.
func (v *ArgumentValidator) checkVirtues(arg models.Argument, capabilities []*models.CaseEntity) (bool, []string) {
	required := v.domainCfg.VirtueTriggerClassifier().ClassifyAll(arg.Warrant.Text + " " + arg.Claim.Text)
	if len(required) == 0 {
		required = []string{defaultRequiredVirtue}
	}

	if arg.Type == models.ArgumentCon {
		return true, required
	}

	for _, virtue := range required {
		for _, carried := range arg.Virtues {
			if carried == virtue {
				return true, required
			}
		}
	}

	indicators := domain.NewKeywordClassifier(v.domainCfg.VirtueIndicators, "")
	text := argumentText(arg)
	for _, virtue := range required {
		if indicators.Matches(virtue, text) {
			return true, required
		}
	}

	triggers := v.domainCfg.VirtueTriggerClassifier()
	for _, c := range capabilities {
		if c.Attribute("role_uri") != arg.Role.URI {
			continue
		}
		capText := entityText(c)
		for _, virtue := range required {
			if triggers.Matches(virtue, capText) || indicators.Matches(virtue, capText) {
				return true, required
			}
		}
	}

	return false, required
}

func argumentText(arg models.Argument) string {
	var b strings.Builder
	b.WriteString(arg.Claim.Text)
	b.WriteString(" ")
	b.WriteString(arg.Warrant.Text)
	b.WriteString(" ")
	b.WriteString(arg.Backing.Text)
	for _, d := range arg.Data {
		b.WriteString(" ")
		b.WriteString(d.Text)
	}
	if arg.Qualifier != nil {
		b.WriteString(" ")
		b.WriteString(arg.Qualifier.Text)
	}
	if arg.Rebuttal != nil {
		b.WriteString(" ")
		b.WriteString(arg.Rebuttal.Text)
	}
	return b.String()
}

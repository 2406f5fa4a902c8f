package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// Provision scoring and confidence constants.
const (
	termOverlapScore          = 0.2
	directWordScore           = 0.02
	provisionKeepThreshold    = 0.3
	maxProvisionsPerPrinciple = 3

	confidenceBase          = 0.3
	confidencePerProvision  = 0.1
	confidenceProvisionCap  = 0.3
	confidenceFundamental   = 0.2
	confidenceStrongOverlap = 0.1
	strongOverlapTermCount  = 2
)

// PrincipleAligner matches extracted principles to code provisions,
// producing the backing material for argument generation.
type PrincipleAligner struct {
	entities  repositories.CaseEntityRepository
	domainCfg *domain.Config
	logger    *zap.Logger
}

// NewPrincipleAligner creates a new principle-provision aligner.
func NewPrincipleAligner(
	entities repositories.CaseEntityRepository,
	domainCfg *domain.Config,
	logger *zap.Logger,
) *PrincipleAligner {
	return &PrincipleAligner{
		entities:  entities,
		domainCfg: domainCfg,
		logger:    logger.Named("principle_aligner"),
	}
}

// Align computes principle alignments for a case. Zero principles or zero
// provisions yields an empty slice, not an error.
func (a *PrincipleAligner) Align(ctx context.Context, caseID string) ([]models.PrincipleAlignment, error) {
	principles, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypePrinciple)
	if err != nil {
		return nil, fmt.Errorf("load principles: %w", err)
	}
	provisions, err := a.entities.GetByEntityType(ctx, caseID, models.EntityTypeProvision)
	if err != nil {
		return nil, fmt.Errorf("load provisions: %w", err)
	}

	var alignments []models.PrincipleAlignment
	for _, principle := range principles {
		alignments = append(alignments, a.alignOne(principle, provisions))
	}

	a.logger.Info("principles aligned",
		zap.String("case_id", caseID),
		zap.Int("principles", len(principles)),
		zap.Int("provisions", len(provisions)))

	return alignments, nil
}

func (a *PrincipleAligner) alignOne(principle *models.CaseEntity, provisions []*models.CaseEntity) models.PrincipleAlignment {
	alignment := models.PrincipleAlignment{
		Principle:  models.EntityRef{URI: principle.URI, Label: principle.Label},
		Definition: principle.Definition,
	}

	text := entityText(principle)
	alignment.SupportType = a.domainCfg.SupportTypeClassifier().Classify(text)
	alignment.KeyTerms = a.keyTerms(principle)
	alignment.UniversalCategory = a.universalCategory(principle)

	bestOverlap := 0
	for _, provision := range provisions {
		match, overlap := a.scoreProvision(alignment.KeyTerms, text, provision)
		if match.Score <= provisionKeepThreshold {
			continue
		}
		alignment.Provisions = append(alignment.Provisions, match)
		if overlap > bestOverlap {
			bestOverlap = overlap
		}
	}

	sort.SliceStable(alignment.Provisions, func(i, j int) bool {
		if alignment.Provisions[i].Score != alignment.Provisions[j].Score {
			return alignment.Provisions[i].Score > alignment.Provisions[j].Score
		}
		return alignment.Provisions[i].URI < alignment.Provisions[j].URI
	})
	if len(alignment.Provisions) > maxProvisionsPerPrinciple {
		alignment.Provisions = alignment.Provisions[:maxProvisionsPerPrinciple]
	}

	alignment.Confidence = a.confidence(alignment, bestOverlap)
	return alignment
}

// keyTerms collects support-type keyword hits plus the principle's own label
// tokens, deduplicated.
func (a *PrincipleAligner) keyTerms(principle *models.CaseEntity) []string {
	text := strings.ToLower(entityText(principle))

	var terms []string
	seen := make(map[string]bool)
	add := func(term string) {
		if term != "" && !seen[term] {
			terms = append(terms, term)
			seen[term] = true
		}
	}

	for _, entry := range a.domainCfg.SupportTypeKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, kw) {
				add(kw)
			}
		}
	}
	for _, token := range tokenize(principle.Label) {
		add(token)
	}

	return terms
}

// universalCategory maps the principle name through the domain's configured
// table, falling back to keyword classification.
func (a *PrincipleAligner) universalCategory(principle *models.CaseEntity) string {
	name := strings.ToLower(strings.TrimSpace(principle.Label))
	if category, ok := a.domainCfg.PrincipleCategories[name]; ok {
		return category
	}
	return a.domainCfg.UniversalCategoryClassifier().Classify(entityText(principle))
}

// scoreProvision computes term overlap (0.2/term) + provision-level weight +
// direct word overlap (0.02/word). Returns the match and the term overlap
// count for confidence computation.
func (a *PrincipleAligner) scoreProvision(keyTerms []string, principleText string, provision *models.CaseEntity) (models.ProvisionMatch, int) {
	provisionText := strings.ToLower(entityText(provision))

	overlap := 0
	for _, term := range keyTerms {
		if strings.Contains(provisionText, term) {
			overlap++
		}
	}

	level := provision.Attribute("level")
	if level == "" {
		level = models.ProvisionUnknown
	}

	score := float64(overlap)*termOverlapScore +
		a.domainCfg.ProvisionWeight(level) +
		float64(wordOverlap(principleText, provisionText))*directWordScore

	return models.ProvisionMatch{
		URI:     provision.URI,
		Label:   provision.Label,
		Section: provision.Attribute("section"),
		Level:   level,
		Score:   score,
	}, overlap
}

// confidence = 0.3 base + up to 0.3 for provision count + 0.2 if any match
// is a fundamental canon + 0.1 if term overlap with any match is strong.
func (a *PrincipleAligner) confidence(alignment models.PrincipleAlignment, bestOverlap int) float64 {
	confidence := confidenceBase

	provisionBonus := float64(len(alignment.Provisions)) * confidencePerProvision
	if provisionBonus > confidenceProvisionCap {
		provisionBonus = confidenceProvisionCap
	}
	confidence += provisionBonus

	for _, p := range alignment.Provisions {
		if p.Level == models.ProvisionFundamentalCanon {
			confidence += confidenceFundamental
			break
		}
	}

	if bestOverlap >= strongOverlapTermCount {
		confidence += confidenceStrongOverlap
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

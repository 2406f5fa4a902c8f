package services

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
)

// fakeEntityRepo is an in-memory CaseEntityRepository for pipeline tests.
// Function fields override individual methods when a test needs errors.
type fakeEntityRepo struct {
	entities []*models.CaseEntity

	// Captured by ReplaceExtractions.
	replaced map[string][]*models.CaseEntity

	GetByEntityTypeFunc    func(ctx context.Context, caseID, entityType string) ([]*models.CaseEntity, error)
	ReplaceExtractionsFunc func(ctx context.Context, caseID string, batches map[string][]*models.CaseEntity) error
}

var _ repositories.CaseEntityRepository = (*fakeEntityRepo)(nil)

func newFakeEntityRepo(entities ...*models.CaseEntity) *fakeEntityRepo {
	return &fakeEntityRepo{entities: entities}
}

func (r *fakeEntityRepo) add(entities ...*models.CaseEntity) {
	r.entities = append(r.entities, entities...)
}

func (r *fakeEntityRepo) GetByEntityType(ctx context.Context, caseID, entityType string) ([]*models.CaseEntity, error) {
	if r.GetByEntityTypeFunc != nil {
		return r.GetByEntityTypeFunc(ctx, caseID, entityType)
	}
	var out []*models.CaseEntity
	for _, e := range r.entities {
		if e.CaseID == caseID && e.EntityType == entityType {
			out = append(out, e)
		}
	}
	sortEntities(out)
	return out, nil
}

func (r *fakeEntityRepo) GetByExtractionType(ctx context.Context, caseID, extractionType string) ([]*models.CaseEntity, error) {
	var out []*models.CaseEntity
	for _, e := range r.entities {
		if e.CaseID == caseID && e.ExtractionType == extractionType {
			out = append(out, e)
		}
	}
	sortEntities(out)
	return out, nil
}

func (r *fakeEntityRepo) ListRefs(ctx context.Context, caseID string) ([]models.EntityRef, error) {
	seen := make(map[string]bool)
	var refs []models.EntityRef
	for _, e := range r.entities {
		if e.CaseID == caseID && !seen[e.URI] {
			seen[e.URI] = true
			refs = append(refs, models.EntityRef{URI: e.URI, Label: e.Label})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].URI < refs[j].URI })
	return refs, nil
}

func (r *fakeEntityRepo) Create(ctx context.Context, entity *models.CaseEntity) error {
	r.entities = append(r.entities, entity)
	return nil
}

func (r *fakeEntityRepo) ReplaceExtractions(ctx context.Context, caseID string, batches map[string][]*models.CaseEntity) error {
	if r.ReplaceExtractionsFunc != nil {
		return r.ReplaceExtractionsFunc(ctx, caseID, batches)
	}
	for tag, records := range batches {
		for _, rec := range records {
			if err := repositories.ValidateExtractionPayload(tag, rec.Attributes); err != nil {
				return err
			}
		}
	}
	r.replaced = batches
	return nil
}

func sortEntities(entities []*models.CaseEntity) {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Label != entities[j].Label {
			return entities[i].Label < entities[j].Label
		}
		return entities[i].URI < entities[j].URI
	})
}

// entity builds a test case entity with optional JSON attributes.
func entity(t *testing.T, caseID, entityType, uri, label, definition string, attrs map[string]any) *models.CaseEntity {
	t.Helper()
	e := &models.CaseEntity{
		CaseID:     caseID,
		EntityType: entityType,
		URI:        uri,
		Label:      label,
		Definition: definition,
	}
	if attrs != nil {
		raw, err := json.Marshal(attrs)
		if err != nil {
			t.Fatalf("marshal attributes: %v", err)
		}
		e.Attributes = raw
	}
	return e
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

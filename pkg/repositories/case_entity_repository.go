// Package repositories provides data access for the case-scoped entity store.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ethosworks/ethos-engine/pkg/database"
	"github.com/ethosworks/ethos-engine/pkg/models"
)

// CaseEntityRepository provides read access to extracted case entities and
// replace-on-rerun persistence for pipeline outputs. The pipeline never
// mutates extracted entities.
type CaseEntityRepository interface {
	// GetByEntityType returns extracted entities of one type for a case,
	// ordered by label.
	GetByEntityType(ctx context.Context, caseID, entityType string) ([]*models.CaseEntity, error)

	// GetByExtractionType returns pipeline output records of one tag for a
	// case, ordered by label.
	GetByExtractionType(ctx context.Context, caseID, extractionType string) ([]*models.CaseEntity, error)

	// ListRefs returns every distinct (uri, label) pair stored for a case.
	ListRefs(ctx context.Context, caseID string) ([]models.EntityRef, error)

	// Create inserts a single entity record.
	Create(ctx context.Context, entity *models.CaseEntity) error

	// ReplaceExtractions deletes all prior records of the given tags for the
	// case and inserts the new batches, in one transaction. Payloads are
	// validated against the per-tag schema before any write.
	ReplaceExtractions(ctx context.Context, caseID string, batches map[string][]*models.CaseEntity) error
}

type caseEntityRepository struct {
	db *database.DB
}

// NewCaseEntityRepository creates a new CaseEntityRepository.
func NewCaseEntityRepository(db *database.DB) CaseEntityRepository {
	return &caseEntityRepository{db: db}
}

var _ CaseEntityRepository = (*caseEntityRepository)(nil)

func (r *caseEntityRepository) GetByEntityType(ctx context.Context, caseID, entityType string) ([]*models.CaseEntity, error) {
	query := `
		SELECT id, case_id, entity_type, extraction_type,
		       entity_uri, entity_label, entity_definition,
		       attributes, created_at
		FROM engine_case_entities
		WHERE case_id = $1 AND entity_type = $2
		ORDER BY entity_label, entity_uri`

	rows, err := r.db.Query(ctx, query, caseID, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to query case entities: %w", err)
	}
	defer rows.Close()

	var entities []*models.CaseEntity
	for rows.Next() {
		entity := &models.CaseEntity{}
		if err := rows.Scan(
			&entity.ID, &entity.CaseID, &entity.EntityType, &entity.ExtractionType,
			&entity.URI, &entity.Label, &entity.Definition,
			&entity.Attributes, &entity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan case entity: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case entities: %w", err)
	}

	return entities, nil
}

func (r *caseEntityRepository) GetByExtractionType(ctx context.Context, caseID, extractionType string) ([]*models.CaseEntity, error) {
	query := `
		SELECT id, case_id, entity_type, extraction_type,
		       entity_uri, entity_label, entity_definition,
		       attributes, created_at
		FROM engine_case_entities
		WHERE case_id = $1 AND extraction_type = $2
		ORDER BY entity_label, entity_uri`

	rows, err := r.db.Query(ctx, query, caseID, extractionType)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction records: %w", err)
	}
	defer rows.Close()

	var entities []*models.CaseEntity
	for rows.Next() {
		entity := &models.CaseEntity{}
		if err := rows.Scan(
			&entity.ID, &entity.CaseID, &entity.EntityType, &entity.ExtractionType,
			&entity.URI, &entity.Label, &entity.Definition,
			&entity.Attributes, &entity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan extraction record: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction records: %w", err)
	}

	return entities, nil
}

func (r *caseEntityRepository) ListRefs(ctx context.Context, caseID string) ([]models.EntityRef, error) {
	query := `
		SELECT DISTINCT entity_uri, entity_label
		FROM engine_case_entities
		WHERE case_id = $1
		ORDER BY entity_uri, entity_label`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity refs: %w", err)
	}
	defer rows.Close()

	var refs []models.EntityRef
	for rows.Next() {
		var ref models.EntityRef
		if err := rows.Scan(&ref.URI, &ref.Label); err != nil {
			return nil, fmt.Errorf("failed to scan entity ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity refs: %w", err)
	}

	return refs, nil
}

func (r *caseEntityRepository) Create(ctx context.Context, entity *models.CaseEntity) error {
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO engine_case_entities (
			id, case_id, entity_type, extraction_type,
			entity_uri, entity_label, entity_definition,
			attributes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		entity.ID, entity.CaseID, entity.EntityType, entity.ExtractionType,
		entity.URI, entity.Label, entity.Definition,
		entity.Attributes, entity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create case entity: %w", err)
	}

	return nil
}

func (r *caseEntityRepository) ReplaceExtractions(ctx context.Context, caseID string, batches map[string][]*models.CaseEntity) error {
	// Validate everything up front so a bad payload cannot leave a partial
	// result set behind.
	for tag, records := range batches {
		for _, rec := range records {
			if err := ValidateExtractionPayload(tag, rec.Attributes); err != nil {
				return fmt.Errorf("record %q under tag %q: %w", rec.Label, tag, err)
			}
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	for tag, records := range batches {
		if _, err := tx.Exec(ctx,
			`DELETE FROM engine_case_entities WHERE case_id = $1 AND extraction_type = $2`,
			caseID, tag,
		); err != nil {
			return fmt.Errorf("failed to delete prior %s records: %w", tag, err)
		}

		for _, rec := range records {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			rec.CaseID = caseID
			rec.ExtractionType = tag

			if _, err := tx.Exec(ctx,
				`INSERT INTO engine_case_entities (
					id, case_id, entity_type, extraction_type,
					entity_uri, entity_label, entity_definition,
					attributes, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				rec.ID, rec.CaseID, rec.EntityType, rec.ExtractionType,
				rec.URI, rec.Label, rec.Definition,
				rec.Attributes, rec.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert %s record: %w", tag, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit extraction replacement: %w", err)
	}

	return nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/services"
)

// PlatformRepository implements the platform collaborator services on the
// shared database: collection metadata, record CRUD, scripts, and email
// templates.
type PlatformRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPlatformRepository(db *sql.DB, logger *slog.Logger) *PlatformRepository {
	return &PlatformRepository{
		db:     db,
		logger: logger.With("module", "persistence"),
	}
}

func (r *PlatformRepository) FindCollection(ctx context.Context, tenantID, collectionID string) (*models.Collection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, label FROM collections WHERE tenant_id = $1 AND id = $2`,
		tenantID, collectionID)

	return scanCollection(row)
}

func (r *PlatformRepository) FindCollectionByName(ctx context.Context, tenantID, name string) (*models.Collection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, label FROM collections WHERE tenant_id = $1 AND name = $2`,
		tenantID, name)

	return scanCollection(row)
}

func scanCollection(row *sql.Row) (*models.Collection, error) {
	var (
		collection models.Collection
		label      sql.NullString
	)

	err := row.Scan(&collection.ID, &collection.TenantID, &collection.Name, &label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrCollectionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}

	collection.Label = label.String

	return &collection, nil
}

func (r *PlatformRepository) CreateRecord(ctx context.Context, tenantID, collectionID string, data map[string]any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize record data: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO records (id, tenant_id, collection_id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, tenantID, collectionID, payload, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	return id, nil
}

func (r *PlatformRepository) UpdateRecord(ctx context.Context, tenantID, collectionID, recordID string, updates map[string]any) error {
	payload, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("failed to serialize record updates: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE records SET data = data || $4::jsonb, updated_at = $5
		 WHERE tenant_id = $1 AND collection_id = $2 AND id = $3`,
		tenantID, collectionID, recordID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return services.ErrRecordNotFound
	}

	return nil
}

func (r *PlatformRepository) DeleteRecord(ctx context.Context, tenantID, collectionID, recordID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE tenant_id = $1 AND collection_id = $2 AND id = $3`,
		tenantID, collectionID, recordID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return services.ErrRecordNotFound
	}

	return nil
}

func (r *PlatformRepository) FindScript(ctx context.Context, tenantID, scriptID string) (*models.Script, error) {
	var script models.Script

	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, active FROM scripts WHERE tenant_id = $1 AND id = $2`,
		tenantID, scriptID).
		Scan(&script.ID, &script.TenantID, &script.Name, &script.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrScriptNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan script: %w", err)
	}

	return &script, nil
}

func (r *PlatformRepository) FindTemplate(ctx context.Context, tenantID, templateID string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate

	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, subject, body_html FROM email_templates WHERE tenant_id = $1 AND id = $2`,
		tenantID, templateID).
		Scan(&template.ID, &template.TenantID, &template.Name, &template.Subject, &template.BodyHTML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrTemplateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan email template: %w", err)
	}

	return &template, nil
}

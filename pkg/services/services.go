// Package services defines the platform collaborators the workflow subsystem
// depends on: collection metadata, record CRUD, scripts, and email templates.
// The platform's data layer provides the production implementations.
package services

import (
	"context"

	"github.com/tenbase/tenbase/pkg/models"
)

// CollectionService resolves collection metadata within a tenant.
type CollectionService interface {
	// FindCollection returns the collection or ErrCollectionNotFound.
	FindCollection(ctx context.Context, tenantID, collectionID string) (*models.Collection, error)

	// FindCollectionByName resolves a collection by its name.
	FindCollectionByName(ctx context.Context, tenantID, name string) (*models.Collection, error)
}

// RecordService performs record CRUD on behalf of workflow actions.
type RecordService interface {
	// CreateRecord inserts a record and returns its generated identifier.
	CreateRecord(ctx context.Context, tenantID, collectionID string, data map[string]any) (string, error)

	// UpdateRecord applies a partial update to an existing record.
	UpdateRecord(ctx context.Context, tenantID, collectionID, recordID string, updates map[string]any) error

	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, tenantID, collectionID, recordID string) error
}

// ScriptService resolves tenant-defined scripts.
type ScriptService interface {
	// FindScript returns the script or ErrScriptNotFound.
	FindScript(ctx context.Context, tenantID, scriptID string) (*models.Script, error)
}

// EmailTemplateService resolves tenant-defined email templates.
type EmailTemplateService interface {
	// FindTemplate returns the template or ErrTemplateNotFound.
	FindTemplate(ctx context.Context, tenantID, templateID string) (*models.EmailTemplate, error)
}

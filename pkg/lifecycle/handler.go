// Package lifecycle provides per-collection hooks that run inside record
// save and delete paths for system collections. Hooks inject defaults and
// validate records before persistence; after-hooks observe committed changes.
package lifecycle

import "context"

// ValidationError is one field-scoped validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BeforeSaveResult carries a hook's verdict on a pending save: field values
// to fold into the record, or validation errors that block it.
type BeforeSaveResult struct {
	FieldUpdates     map[string]any    `json:"field_updates,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

// Ok returns a result with no updates and no errors.
func Ok() BeforeSaveResult {
	return BeforeSaveResult{}
}

// WithFieldUpdates returns a result carrying field updates.
func WithFieldUpdates(updates map[string]any) BeforeSaveResult {
	return BeforeSaveResult{FieldUpdates: updates}
}

// Error returns a result carrying a single validation error.
func Error(field, message string) BeforeSaveResult {
	return BeforeSaveResult{
		ValidationErrors: []ValidationError{{Field: field, Message: message}},
	}
}

// Errors returns a result carrying the given validation errors.
func Errors(errs []ValidationError) BeforeSaveResult {
	return BeforeSaveResult{ValidationErrors: errs}
}

// Blocked reports whether the result blocks the save.
func (r BeforeSaveResult) Blocked() bool {
	return len(r.ValidationErrors) > 0
}

// Handler is a lifecycle hook for one system collection. Before-hooks may
// block a save; after-hooks are observational and must not return errors that
// affect the committed change.
type Handler interface {
	// CollectionName returns the collection this handler is bound to.
	CollectionName() string

	// BeforeCreate runs before a record is inserted.
	BeforeCreate(ctx context.Context, record map[string]any, tenantID string) BeforeSaveResult

	// BeforeUpdate runs before a record is updated. previous is the stored
	// record state.
	BeforeUpdate(ctx context.Context, recordID string, record, previous map[string]any, tenantID string) BeforeSaveResult

	// AfterCreate runs after a record is inserted.
	AfterCreate(ctx context.Context, recordID string, record map[string]any, tenantID string)

	// AfterUpdate runs after a record is updated.
	AfterUpdate(ctx context.Context, recordID string, record, previous map[string]any, tenantID string)

	// AfterDelete runs after a record is removed.
	AfterDelete(ctx context.Context, recordID string, record map[string]any, tenantID string)
}

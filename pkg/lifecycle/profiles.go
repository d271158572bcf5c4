package lifecycle

import (
	"context"
	"log/slog"
	"strings"
)

// ProfilesHandler validates records in the profiles system collection: the
// profile name must be non-blank, and the "system" flag defaults to false
// when absent.
type ProfilesHandler struct {
	logger *slog.Logger
}

func NewProfilesHandler(logger *slog.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		logger: logger.With("module", "lifecycle", "collection", "profiles"),
	}
}

func (h *ProfilesHandler) CollectionName() string {
	return "profiles"
}

func (h *ProfilesHandler) BeforeCreate(_ context.Context, record map[string]any, _ string) BeforeSaveResult {
	if result := requireName(record); result.Blocked() {
		return result
	}

	if _, present := record["system"]; !present {
		return WithFieldUpdates(map[string]any{"system": false})
	}

	return Ok()
}

func (h *ProfilesHandler) BeforeUpdate(_ context.Context, _ string, record, _ map[string]any, _ string) BeforeSaveResult {
	if _, present := record["name"]; present {
		return requireName(record)
	}

	return Ok()
}

func (h *ProfilesHandler) AfterCreate(ctx context.Context, recordID string, _ map[string]any, tenantID string) {
	h.logger.DebugContext(ctx, "Profile created", "record_id", recordID, "tenant_id", tenantID)
}

func (h *ProfilesHandler) AfterUpdate(ctx context.Context, recordID string, _, _ map[string]any, tenantID string) {
	h.logger.DebugContext(ctx, "Profile updated", "record_id", recordID, "tenant_id", tenantID)
}

func (h *ProfilesHandler) AfterDelete(ctx context.Context, recordID string, _ map[string]any, tenantID string) {
	h.logger.DebugContext(ctx, "Profile deleted", "record_id", recordID, "tenant_id", tenantID)
}

func requireName(record map[string]any) BeforeSaveResult {
	name, _ := record["name"].(string)
	if strings.TrimSpace(name) == "" {
		return Error("name", "Profile name is required")
	}

	return Ok()
}

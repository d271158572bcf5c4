package lifecycle

import (
	"context"
	"log/slog"
	"strings"
)

// Defaults injected into user records when the caller omits them.
const (
	defaultUserLocale   = "en-US"
	defaultUserTimezone = "UTC"
	defaultUserStatus   = "ACTIVE"
)

// UsersHandler normalizes and validates records in the users system
// collection: email is lowercased and must carry an "@" with a domain;
// locale, timezone, and status default only when absent.
type UsersHandler struct {
	logger *slog.Logger
}

func NewUsersHandler(logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		logger: logger.With("module", "lifecycle", "collection", "users"),
	}
}

func (h *UsersHandler) CollectionName() string {
	return "users"
}

func (h *UsersHandler) BeforeCreate(_ context.Context, record map[string]any, _ string) BeforeSaveResult {
	updates := make(map[string]any)

	if result := normalizeEmail(record, updates); result.Blocked() {
		return result
	}

	if _, present := record["locale"]; !present {
		updates["locale"] = defaultUserLocale
	}

	if _, present := record["timezone"]; !present {
		updates["timezone"] = defaultUserTimezone
	}

	if _, present := record["status"]; !present {
		updates["status"] = defaultUserStatus
	}

	if len(updates) == 0 {
		return Ok()
	}

	return WithFieldUpdates(updates)
}

func (h *UsersHandler) BeforeUpdate(_ context.Context, _ string, record, _ map[string]any, _ string) BeforeSaveResult {
	updates := make(map[string]any)

	if result := normalizeEmail(record, updates); result.Blocked() {
		return result
	}

	if len(updates) == 0 {
		return Ok()
	}

	return WithFieldUpdates(updates)
}

func (h *UsersHandler) AfterCreate(ctx context.Context, recordID string, _ map[string]any, tenantID string) {
	h.logger.DebugContext(ctx, "User created", "record_id", recordID, "tenant_id", tenantID)
}

func (h *UsersHandler) AfterUpdate(ctx context.Context, recordID string, _, _ map[string]any, tenantID string) {
	h.logger.DebugContext(ctx, "User updated", "record_id", recordID, "tenant_id", tenantID)
}

func (h *UsersHandler) AfterDelete(ctx context.Context, recordID string, _ map[string]any, tenantID string) {
	h.logger.DebugContext(ctx, "User deleted", "record_id", recordID, "tenant_id", tenantID)
}

// normalizeEmail lowercases the email field when present and validates its
// shape. A lowered value is written to updates only when it differs from the
// stored value.
func normalizeEmail(record, updates map[string]any) BeforeSaveResult {
	raw, present := record["email"]
	if !present {
		return Ok()
	}

	email, isString := raw.(string)
	if !isString {
		return Error("email", "Email must be a string")
	}

	normalized := strings.ToLower(strings.TrimSpace(email))

	at := strings.Index(normalized, "@")
	if at <= 0 || at == len(normalized)-1 {
		return Error("email", "Email must contain an @ and a domain")
	}

	if normalized != email {
		updates["email"] = normalized
	}

	return Ok()
}

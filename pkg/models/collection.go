package models

// Collection is the metadata identity of a user-defined collection. The
// schema model itself lives outside this module; the engine only needs
// enough to resolve action targets.
type Collection struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name" validate:"required"`
	Label    string `json:"label,omitempty"`
}

// Script is a tenant-authored server-side script referenced by the
// INVOKE_SCRIPT action.
type Script struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// EmailTemplate holds a reusable subject/body pair for EMAIL_ALERT actions.
type EmailTemplate struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
}

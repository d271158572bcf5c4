// Package web provides the internal HTTP surface the record pipeline calls
// into: synchronous before-save evaluation and rule validation.
package web

// BeforeSaveRequest is the request body for a synchronous before-save
// evaluation. The record pipeline sends the uncommitted record state and
// applies the returned field updates before persisting.
type BeforeSaveRequest struct {
	TenantID       string         `json:"tenantId"       validate:"required"`
	CollectionID   string         `json:"collectionId"   validate:"required"`
	CollectionName string         `json:"collectionName" validate:"required"`
	RecordID       string         `json:"recordId"`
	Data           map[string]any `json:"data"`
	PreviousData   map[string]any `json:"previousData,omitempty"`
	ChangedFields  []string       `json:"changedFields,omitempty"`
	UserID         string         `json:"userId,omitempty"`
	ChangeType     string         `json:"changeType"     validate:"required,oneof=CREATE UPDATE DELETE"`
}

// ValidationErrorResponse is one field-level rejection reported back to the
// record pipeline.
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BeforeSaveResponse is the before-save evaluation outcome. A non-empty
// errors list means the save must be rejected; fieldUpdates are then empty.
type BeforeSaveResponse struct {
	FieldUpdates    map[string]any            `json:"fieldUpdates"`
	RulesEvaluated  int                       `json:"rulesEvaluated"`
	ActionsExecuted int                       `json:"actionsExecuted"`
	Errors          []ValidationErrorResponse `json:"errors,omitempty"`
}

// ValidateRuleResponse reports whether a rule document is valid.
type ValidateRuleResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

package workflow

// ValidationError is one field-scoped validation failure raised by a
// lifecycle handler before a save.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BeforeSaveOutcome summarizes one synchronous before-save evaluation: the
// field updates to fold into the record, counters for observability, and any
// validation errors that block the save.
type BeforeSaveOutcome struct {
	FieldUpdates    map[string]any    `json:"field_updates"`
	RulesEvaluated  int               `json:"rules_evaluated"`
	ActionsExecuted int               `json:"actions_executed"`
	Errors          []ValidationError `json:"errors,omitempty"`
}

// Blocked reports whether validation errors prevent the save.
func (o *BeforeSaveOutcome) Blocked() bool {
	return len(o.Errors) > 0
}

package workflow

import "context"

// ActionHandler executes one action type. Implementations parse their own
// opaque JSON configuration and must not panic on malformed input.
type ActionHandler interface {
	// ActionTypeKey returns the stable registry key, such as "FIELD_UPDATE".
	ActionTypeKey() string

	// Execute runs the action. Failures are reported through the result,
	// not the error return; an error is reserved for infrastructure faults
	// that should abort the firing.
	Execute(ctx context.Context, actionCtx ActionContext, config string) (ActionResult, error)

	// Validate checks a rule's configuration for this action type at
	// authoring time.
	Validate(config string) error
}

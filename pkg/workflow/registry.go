package workflow

import (
	"log/slog"
	"sort"
)

// HandlerRegistry maps action-type keys to handlers. It is built once at
// startup and read-only afterwards, so lookups need no locking.
type HandlerRegistry struct {
	handlers map[string]ActionHandler
}

// NewHandlerRegistry builds a registry from the given handlers. Duplicate
// keys keep the last handler registered, mirroring how overriding a built-in
// action type is expected to behave.
func NewHandlerRegistry(logger *slog.Logger, handlers []ActionHandler) *HandlerRegistry {
	registry := &HandlerRegistry{
		handlers: make(map[string]ActionHandler, len(handlers)),
	}

	for _, handler := range handlers {
		if handler == nil {
			continue
		}

		key := handler.ActionTypeKey()

		if _, exists := registry.handlers[key]; exists {
			logger.Warn("Overriding previously registered action handler", "action_type", key)
		}

		registry.handlers[key] = handler
	}

	return registry
}

// GetHandler returns the handler for an action-type key. The second return
// is false when no handler is registered, which callers treat as a benign
// no-op rather than an error.
func (r *HandlerRegistry) GetHandler(actionType string) (ActionHandler, bool) {
	handler, exists := r.handlers[actionType]

	return handler, exists
}

// RegisteredTypes returns the sorted action-type keys.
func (r *HandlerRegistry) RegisteredTypes() []string {
	types := make([]string, 0, len(r.handlers))
	for key := range r.handlers {
		types = append(types, key)
	}

	sort.Strings(types)

	return types
}

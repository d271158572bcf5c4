package lifecycle

import "log/slog"

// Registry maps collection names to lifecycle handlers. Built once at
// startup; lookups are lock-free.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from the given handlers. A nil or empty list
// yields an empty registry. Duplicate collection names keep the last handler
// registered.
func NewRegistry(logger *slog.Logger, handlers []Handler) *Registry {
	registry := &Registry{
		handlers: make(map[string]Handler, len(handlers)),
	}

	for _, handler := range handlers {
		if handler == nil {
			continue
		}

		name := handler.CollectionName()

		if _, exists := registry.handlers[name]; exists {
			logger.Warn("Overriding previously registered lifecycle handler", "collection", name)
		}

		registry.handlers[name] = handler
	}

	return registry
}

// GetHandler returns the handler for a collection name. The second return is
// false when the collection has no lifecycle hook.
func (r *Registry) GetHandler(collectionName string) (Handler, bool) {
	handler, exists := r.handlers[collectionName]

	return handler, exists
}

// Size returns the number of registered handlers.
func (r *Registry) Size() int {
	return len(r.handlers)
}

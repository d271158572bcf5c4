package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	// ErrRuleNotFound indicates a workflow rule was not found by its identifier.
	ErrRuleNotFound = errors.New("workflow rule not found")

	// ErrCollectionNotFound indicates a collection could not be resolved.
	ErrCollectionNotFound = errors.New("collection not found")
)

// IsRuleNotFound checks if an error indicates a workflow rule was not found.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

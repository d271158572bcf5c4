package services

import "errors"

// Standard error types returned by collaborator services.
var (
	// ErrCollectionNotFound indicates a collection could not be resolved
	// within the tenant.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrRecordNotFound indicates a record lookup missed.
	ErrRecordNotFound = errors.New("record not found")

	// ErrScriptNotFound indicates a script could not be resolved within the
	// tenant.
	ErrScriptNotFound = errors.New("script not found")

	// ErrTemplateNotFound indicates an email template could not be resolved
	// within the tenant.
	ErrTemplateNotFound = errors.New("email template not found")
)

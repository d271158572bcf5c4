// Package cmd provides common initialization helpers for the command-line
// entrypoints.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tenbase/tenbase/pkg/persistence/postgresql"
)

// NewPersistence opens the workflow store and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*postgresql.Persistence, error) {
	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres persistence: %w", err)
	}

	return store, nil
}

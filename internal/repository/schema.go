package repository

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL creating the tables hermes reads.
func Schema() string {
	return schema
}

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	r.log.InfoContext(ctx, "Database schema is up to date")

	return nil
}

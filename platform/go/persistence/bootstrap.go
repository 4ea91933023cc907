package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/petalmarket/companypage-api/database"
)

// Bootstrap applies the embedded DDL in a single transaction, in dependency
// order: profiles, companypages, floristslides, packages. SQL is embedded at
// build time so binaries stay self-contained. The helper is idempotent and
// intended for local development and tests; production schemas are managed
// outside this service.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.ProfilesSQL)...)
	statements = append(statements, splitStatements(sqlassets.CompanyPagesSQL)...)
	statements = append(statements, splitStatements(sqlassets.FloristSlidesSQL)...)
	statements = append(statements, splitStatements(sqlassets.PackagesSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks an embedded DDL asset into individual statements.
// The assets contain plain statements only, so a semicolon split is enough.
func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

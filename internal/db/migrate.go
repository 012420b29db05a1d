package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are re-run on every open,
// so each one must be idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillSizes(db); err != nil {
		return fmt.Errorf("backfilling artifact sizes: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		key        TEXT PRIMARY KEY,
		content    BLOB NOT NULL,
		revision   INTEGER NOT NULL DEFAULT 1 CHECK(revision > 0),
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS artifact_revisions (
		key         TEXT NOT NULL REFERENCES artifacts(key) ON DELETE CASCADE,
		revision    INTEGER NOT NULL,
		content     BLOB NOT NULL,
		replaced_at TEXT NOT NULL,
		PRIMARY KEY (key, revision)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_artifact_revisions_key ON artifact_revisions(key)`,

	// Revision listings report sizes.
	`ALTER TABLE artifacts ADD COLUMN size_bytes INTEGER NOT NULL DEFAULT -1`,
	`ALTER TABLE artifact_revisions ADD COLUMN size_bytes INTEGER NOT NULL DEFAULT -1`,
}

// migrateBackfillSizes fills size_bytes for rows written before the column
// existed. Idempotent: only rows still at -1 are touched.
func migrateBackfillSizes(db *sql.DB) error {
	ctx := context.Background()
	for _, table := range []string{"artifacts", "artifact_revisions"} {
		q := fmt.Sprintf(`UPDATE %s SET size_bytes = length(content) WHERE size_bytes < 0`, table)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("updating %s: %w", table, err)
		}
	}
	return nil
}

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run on
// every open.
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
	if err := migrateBackfillClosedAt(db); err != nil {
		return fmt.Errorf("backfilling closed_at: %w", err)
	}
	return nil
}

// migrateBackfillClosedAt stamps won/lost deals written before closed_at
// existed with their last update time.
func migrateBackfillClosedAt(db *sql.DB) error {
	_, err := db.Exec(`UPDATE deals SET closed_at = updated_at
		WHERE closed_at IS NULL AND status IN ('won','lost')`)
	return err
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS pipelines (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stages (
		id          TEXT PRIMARY KEY,
		pipeline_id TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		position    INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stages_pipeline ON stages(pipeline_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_stages_title ON stages(pipeline_id, title COLLATE NOCASE)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		company    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS deals (
		id              TEXT PRIMARY KEY,
		pipeline_id     TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
		stage_id        TEXT NOT NULL REFERENCES stages(id),
		title           TEXT NOT NULL,
		client_name     TEXT NOT NULL DEFAULT '',
		potential_value INTEGER NOT NULL DEFAULT 0 CHECK(potential_value >= 0),
		currency        TEXT NOT NULL DEFAULT 'USD',
		status          TEXT NOT NULL DEFAULT 'open'
		                CHECK(status IN ('open','won','lost','archived')),
		owner_id        TEXT NOT NULL DEFAULT '',
		contact_id      TEXT REFERENCES contacts(id) ON DELETE SET NULL,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_deals_pipeline ON deals(pipeline_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status)`,

	// Added after the first release.
	`ALTER TABLE deals ADD COLUMN notes TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE deals ADD COLUMN closed_at TEXT`,
}

package repositories

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	details           TEXT NOT NULL DEFAULT '',
	subtasks          JSONB NOT NULL DEFAULT '[]'::jsonb,
	deadline          DATE,
	is_date_tentative BOOLEAN NOT NULL DEFAULT FALSE,
	priority          TEXT NOT NULL DEFAULT 'normal',
	critical          BOOLEAN NOT NULL DEFAULT FALSE,
	shared            BOOLEAN NOT NULL DEFAULT FALSE,
	cost              BIGINT NOT NULL DEFAULT 0 CHECK (cost >= 0),
	ariane            BOOLEAN NOT NULL DEFAULT FALSE,
	pavel             BOOLEAN NOT NULL DEFAULT FALSE,
	expanded          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Migrate creates the tasks table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

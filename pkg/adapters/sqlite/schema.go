package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is a single schema step applied inside a transaction.
// PRAGMA user_version tracks the last applied step.
type migration struct {
	version     int
	description string
	up          func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS blobs (
    fingerprint TEXT PRIMARY KEY,
    content     BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    head        INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
    id          TEXT PRIMARY KEY,
    artifact_id TEXT NOT NULL REFERENCES artifacts(id),
    seq         INTEGER NOT NULL,
    fingerprint TEXT NOT NULL REFERENCES blobs(fingerprint),
    message     TEXT NOT NULL,
    author      TEXT NOT NULL DEFAULT '',
    variables   TEXT NOT NULL DEFAULT '[]',
    created_at  TIMESTAMP NOT NULL,
    UNIQUE (artifact_id, seq)
);

CREATE TABLE IF NOT EXISTS tags (
    version_id TEXT NOT NULL REFERENCES versions(id),
    label      TEXT NOT NULL,
    PRIMARY KEY (version_id, label)
);

CREATE TABLE IF NOT EXISTS metrics (
    version_id TEXT NOT NULL REFERENCES versions(id),
    name       TEXT NOT NULL,
    value      REAL NOT NULL,
    PRIMARY KEY (version_id, name)
);

CREATE INDEX IF NOT EXISTS idx_versions_artifact ON versions(artifact_id, seq);
`)
			return err
		},
	},
}

func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.transact(ctx, func(tx *sql.Tx) error {
			if err := m.up(tx); err != nil {
				return err
			}
			_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		}); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
	}
	return nil
}

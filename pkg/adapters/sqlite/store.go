// Package sqlite provides the durable core.Store backed by a single
// SQLite database file under the project's .pit directory. All writes
// run inside transactions so a commit that returned has hit disk.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"
	_ "github.com/mattn/go-sqlite3"

	"github.com/itisrmk/pit/pkg/core"
)

// Config holds the sqlite adapter configuration.
type Config struct {
	// Path is the database file location, e.g. <root>/.pit/pit.db.
	Path        string
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// Store implements core.Store on SQLite.
type Store struct {
	db     *sql.DB
	config Config
}

// New opens (without migrating) a sqlite store. Call Initialize before
// first use.
func New(config Config) (*Store, error) {
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 30 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=1",
		config.Path, int(config.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer; keep the pool at a single connection
	// so transactions never contend with themselves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, config: config}, nil
}

// Initialize applies pending schema migrations.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return err
	}
	if s.config.Logger != nil {
		s.config.Logger.Debug("sqlite store ready", "path", s.config.Path)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) transact(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Put stores a blob under its fingerprint, verifying on collision.
func (s *Store) Put(ctx context.Context, data []byte) (core.Fingerprint, error) {
	fp := core.ComputeFingerprint(data)

	err := s.transact(ctx, func(tx *sql.Tx) error {
		var existing []byte
		err := tx.QueryRowContext(ctx, "SELECT content FROM blobs WHERE fingerprint = ?", string(fp)).Scan(&existing)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, "INSERT INTO blobs (fingerprint, content) VALUES (?, ?)", string(fp), data)
			return err
		case err != nil:
			return err
		default:
			if !bytes.Equal(existing, data) {
				return core.ErrIntegrity
			}
			return nil
		}
	})
	if err != nil {
		return "", err
	}
	return fp, nil
}

// Get returns the blob bytes for a fingerprint.
func (s *Store) Get(ctx context.Context, fp core.Fingerprint) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT content FROM blobs WHERE fingerprint = ?", string(fp)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, &core.NotFoundError{Kind: "blob", Key: fp.Short()}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes a blob unless a version still references it.
func (s *Store) Delete(ctx context.Context, fp core.Fingerprint) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		var refs int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM versions WHERE fingerprint = ?", string(fp)).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return core.ErrReferencedContent
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM blobs WHERE fingerprint = ?", string(fp))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &core.NotFoundError{Kind: "blob", Key: fp.Short()}
		}
		return nil
	})
}

// CreateArtifact registers a new artifact.
func (s *Store) CreateArtifact(ctx context.Context, a core.Artifact) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM artifacts WHERE name = ?", a.Name).Scan(&exists); err != nil {
			return err
		}
		if exists > 0 {
			return core.ErrAlreadyExists
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO artifacts (id, name, description, head, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, a.Description, a.Head, a.CreatedAt, a.UpdatedAt)
		return err
	})
}

// GetArtifact returns an artifact by name.
func (s *Store) GetArtifact(ctx context.Context, name string) (core.Artifact, error) {
	var a core.Artifact
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, head, created_at, updated_at FROM artifacts WHERE name = ?", name).
		Scan(&a.ID, &a.Name, &a.Description, &a.Head, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return core.Artifact{}, &core.NotFoundError{Kind: "artifact", Key: name}
	}
	if err != nil {
		return core.Artifact{}, err
	}
	return a, nil
}

// DeleteArtifact removes an artifact that has no versions.
func (s *Store) DeleteArtifact(ctx context.Context, name string) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, "SELECT id FROM artifacts WHERE name = ?", name).Scan(&id)
		if err == sql.ErrNoRows {
			return &core.NotFoundError{Kind: "artifact", Key: name}
		}
		if err != nil {
			return err
		}
		var refs int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM versions WHERE artifact_id = ?", id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("artifact %q: %w", name, core.ErrReferencedContent)
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM artifacts WHERE id = ?", id)
		return err
	})
}

// ListArtifacts returns all artifacts ordered by name.
func (s *Store) ListArtifacts(ctx context.Context) ([]core.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, head, created_at, updated_at FROM artifacts ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Artifact
	for rows.Next() {
		var a core.Artifact
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Head, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AppendVersion appends a version and moves HEAD, atomically.
func (s *Store) AppendVersion(ctx context.Context, v core.Version) error {
	vars, err := json.Marshal(v.Variables)
	if err != nil {
		return fmt.Errorf("encode variables: %w", err)
	}

	return s.transact(ctx, func(tx *sql.Tx) error {
		artifactID, err := artifactIDTx(ctx, tx, v.Artifact)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO versions (id, artifact_id, seq, fingerprint, message, author, variables, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			v.ID, artifactID, v.Sequence, string(v.Fingerprint), v.Message, v.Author, string(vars), v.CreatedAt); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE artifacts SET head = ?, updated_at = ? WHERE id = ?",
			v.Sequence, v.CreatedAt, artifactID)
		return err
	})
}

// Versions returns the full ascending sequence for an artifact.
func (s *Store) Versions(ctx context.Context, artifact string) ([]core.Version, error) {
	if _, err := s.GetArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT v.id, v.seq, v.fingerprint, v.message, v.author, v.variables, v.created_at
FROM versions v JOIN artifacts a ON a.id = v.artifact_id
WHERE a.name = ? ORDER BY v.seq`, artifact)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Version
	for rows.Next() {
		v, err := scanVersion(rows, artifact)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadTagsAndMetrics(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LatestSequence returns the highest appended sequence, 0 when empty.
func (s *Store) LatestSequence(ctx context.Context, artifact string) (int, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM artifacts WHERE name = ?", artifact).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &core.NotFoundError{Kind: "artifact", Key: artifact}
	}
	if err != nil {
		return 0, err
	}

	var latest int
	err = s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM versions WHERE artifact_id = ?", id).Scan(&latest)
	if err != nil {
		return 0, err
	}
	return latest, nil
}

// Version returns a single version by sequence number.
func (s *Store) Version(ctx context.Context, artifact string, seq int) (core.Version, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT v.id, v.seq, v.fingerprint, v.message, v.author, v.variables, v.created_at
FROM versions v JOIN artifacts a ON a.id = v.artifact_id
WHERE a.name = ? AND v.seq = ?`, artifact, seq)

	v, err := scanVersion(row, artifact)
	if err == sql.ErrNoRows {
		return core.Version{}, &core.NotFoundError{Kind: "version", Key: fmt.Sprintf("%s@%d", artifact, seq)}
	}
	if err != nil {
		return core.Version{}, err
	}
	if err := s.loadTagsAndMetrics(ctx, &v); err != nil {
		return core.Version{}, err
	}
	return v, nil
}

// SetHead moves the artifact HEAD pointer.
func (s *Store) SetHead(ctx context.Context, artifact string, seq int) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		if _, err := versionIDTx(ctx, tx, artifact, seq); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE artifacts SET head = ? WHERE name = ?", seq, artifact)
		return err
	})
}

// AddTag adds a label to a version's tag set, idempotently.
func (s *Store) AddTag(ctx context.Context, artifact string, seq int, label string) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		id, err := versionIDTx(ctx, tx, artifact, seq)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO tags (version_id, label) VALUES (?, ?)", id, label)
		return err
	})
}

// SetMetric records a metric value on a version, last write wins.
func (s *Store) SetMetric(ctx context.Context, artifact string, seq int, name string, value float64) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		id, err := versionIDTx(ctx, tx, artifact, seq)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO metrics (version_id, name, value) VALUES (?, ?, ?)
ON CONFLICT (version_id, name) DO UPDATE SET value = excluded.value`, id, name, value)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner, artifact string) (core.Version, error) {
	var v core.Version
	var fp, vars string
	if err := row.Scan(&v.ID, &v.Sequence, &fp, &v.Message, &v.Author, &vars, &v.CreatedAt); err != nil {
		return core.Version{}, err
	}
	v.Artifact = artifact
	v.Fingerprint = core.Fingerprint(fp)
	if err := json.Unmarshal([]byte(vars), &v.Variables); err != nil {
		return core.Version{}, fmt.Errorf("decode variables: %w", err)
	}
	return v, nil
}

func (s *Store) loadTagsAndMetrics(ctx context.Context, v *core.Version) error {
	rows, err := s.db.QueryContext(ctx, "SELECT label FROM tags WHERE version_id = ? ORDER BY label", v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return err
		}
		v.Tags = append(v.Tags, label)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	mrows, err := s.db.QueryContext(ctx, "SELECT name, value FROM metrics WHERE version_id = ?", v.ID)
	if err != nil {
		return err
	}
	defer mrows.Close()
	for mrows.Next() {
		var name string
		var value float64
		if err := mrows.Scan(&name, &value); err != nil {
			return err
		}
		if v.Metrics == nil {
			v.Metrics = make(map[string]float64)
		}
		v.Metrics[name] = value
	}
	return mrows.Err()
}

func artifactIDTx(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM artifacts WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", &core.NotFoundError{Kind: "artifact", Key: name}
	}
	return id, err
}

func versionIDTx(ctx context.Context, tx *sql.Tx, artifact string, seq int) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
SELECT v.id FROM versions v JOIN artifacts a ON a.id = v.artifact_id
WHERE a.name = ? AND v.seq = ?`, artifact, seq).Scan(&id)
	if err == sql.ErrNoRows {
		return "", &core.NotFoundError{Kind: "version", Key: fmt.Sprintf("%s@%d", artifact, seq)}
	}
	return id, err
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	var blobs, artifacts, versions int
	s.db.QueryRow("SELECT COUNT(*) FROM blobs").Scan(&blobs)
	s.db.QueryRow("SELECT COUNT(*) FROM artifacts").Scan(&artifacts)
	s.db.QueryRow("SELECT COUNT(*) FROM versions").Scan(&versions)
	return struct {
		Path      string `json:"path"`
		Blobs     int    `json:"blobs"`
		Artifacts int    `json:"artifacts"`
		Versions  int    `json:"versions"`
	}{s.config.Path, blobs, artifacts, versions}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "sqlite-store" }

var _ core.Store = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

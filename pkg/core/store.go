package core

import "context"

// ContentStore stores immutable text blobs keyed by content fingerprint.
// Identical content is deduplicated: Put is idempotent and returns the
// same fingerprint for the same bytes.
type ContentStore interface {
	// Put stores content and returns its fingerprint. If the
	// fingerprint already exists the stored bytes are compared against
	// the new ones; a mismatch fails with ErrIntegrity and nothing is
	// written.
	Put(ctx context.Context, data []byte) (Fingerprint, error)

	// Get returns the blob bytes, or ErrNotFound.
	Get(ctx context.Context, fp Fingerprint) ([]byte, error)

	// Delete removes an unreferenced blob. It fails with
	// ErrReferencedContent while any version still points at fp.
	// Garbage collection may be deferred indefinitely.
	Delete(ctx context.Context, fp Fingerprint) error
}

// VersionStore persists artifacts and their append-only version
// sequences. Implementations must make AppendVersion durable before
// returning and must never expose a version whose blob write has not
// completed.
type VersionStore interface {
	// CreateArtifact registers a new artifact. ErrAlreadyExists on
	// name collision.
	CreateArtifact(ctx context.Context, a Artifact) error

	// GetArtifact returns an artifact by name, or ErrNotFound.
	GetArtifact(ctx context.Context, name string) (Artifact, error)

	// DeleteArtifact removes an artifact that has no versions yet.
	// ErrNotFound if missing, ErrReferencedContent if any version
	// exists. Lets a caller undo an artifact registration whose first
	// append never happened.
	DeleteArtifact(ctx context.Context, name string) error

	// ListArtifacts returns all artifacts ordered by name.
	ListArtifacts(ctx context.Context) ([]Artifact, error)

	// AppendVersion appends v (sequence already assigned by the
	// caller) and moves the artifact HEAD to it, atomically.
	AppendVersion(ctx context.Context, v Version) error

	// Versions returns the full ascending sequence for an artifact.
	Versions(ctx context.Context, artifact string) ([]Version, error)

	// LatestSequence returns the highest appended sequence, or 0 when
	// the artifact has no versions yet. Checkout moves HEAD, not this.
	LatestSequence(ctx context.Context, artifact string) (int, error)

	// Version returns a single version, or ErrNotFound.
	Version(ctx context.Context, artifact string, seq int) (Version, error)

	// SetHead moves the HEAD pointer. Pure pointer move; fails with
	// ErrNotFound if seq is out of range.
	SetHead(ctx context.Context, artifact string, seq int) error

	// AddTag adds a label to a version's tag set, idempotently.
	AddTag(ctx context.Context, artifact string, seq int, label string) error

	// SetMetric records a metric value on a version, last write wins.
	SetMetric(ctx context.Context, artifact string, seq int, name string, value float64) error
}

// Store is the full persistence boundary: blobs plus version records.
// Both built-in adapters (memory, sqlite) implement it.
type Store interface {
	ContentStore
	VersionStore

	// Initialize prepares the underlying storage (schema migration,
	// directory creation). Safe to call more than once.
	Initialize(ctx context.Context) error

	Close() error
}

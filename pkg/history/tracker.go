// Package history owns the per-artifact append-only version sequences:
// commits, checkouts, tags, metric ingestion, filtered log iteration
// and semantic diffs between versions. Mutations on one artifact are
// serialized; different artifacts proceed in parallel.
package history

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/itisrmk/pit/pkg/core"
	"github.com/itisrmk/pit/pkg/query"
)

// diffCacheSize bounds the LRU of computed semantic diffs. Entries are
// caches keyed by fingerprint pair; the engine output is always
// recomputable.
const diffCacheSize = 256

// Tracker is the history graph over a core.Store.
type Tracker struct {
	store  core.Store
	engine core.DiffEngine
	logger *slog.Logger

	diffCache *lru.Cache[string, core.SemanticDiff]

	// locks serializes commit/checkout/tag per artifact.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a tracker. engine may be nil only if Diff is never used;
// logger may be nil for quiet operation.
func New(store core.Store, engine core.DiffEngine, logger *slog.Logger) *Tracker {
	cache, _ := lru.New[string, core.SemanticDiff](diffCacheSize)
	return &Tracker{
		store:     store,
		engine:    engine,
		logger:    logger,
		diffCache: cache,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) artifactLock(name string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[name]
	if !ok {
		l = &sync.Mutex{}
		t.locks[name] = l
	}
	return l
}

// CreateArtifact registers an empty artifact with a description.
func (t *Tracker) CreateArtifact(ctx context.Context, name, description string) (core.Artifact, error) {
	now := time.Now().UTC()
	a := core.Artifact{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.store.CreateArtifact(ctx, a); err != nil {
		return core.Artifact{}, err
	}
	if t.logger != nil {
		t.logger.Info("artifact created", "artifact", name)
	}
	return a, nil
}

// Artifact returns an artifact by name.
func (t *Tracker) Artifact(ctx context.Context, name string) (core.Artifact, error) {
	return t.store.GetArtifact(ctx, name)
}

// Artifacts lists all artifacts ordered by name.
func (t *Tracker) Artifacts(ctx context.Context) ([]core.Artifact, error) {
	return t.store.ListArtifacts(ctx)
}

// Commit appends a new version with the next sequence number and moves
// HEAD to it. The artifact is created on first commit. The blob write
// completes before the version record becomes visible, so no reader
// observes a version without content.
func (t *Tracker) Commit(ctx context.Context, artifact, content, message, author string) (core.Version, error) {
	lock := t.artifactLock(artifact)
	lock.Lock()
	defer lock.Unlock()

	// The blob goes in first: it is content-addressed and unreferenced
	// until the version record lands, so a failure after this point
	// leaves no observable artifact state behind.
	fp, err := t.store.Put(ctx, []byte(content))
	if err != nil {
		return core.Version{}, fmt.Errorf("store content: %w", err)
	}

	created := false
	if _, err := t.store.GetArtifact(ctx, artifact); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return core.Version{}, err
		}
		if _, cerr := t.CreateArtifact(ctx, artifact, ""); cerr != nil {
			return core.Version{}, fmt.Errorf("create artifact %q: %w", artifact, cerr)
		}
		created = true
	}

	// HEAD may have been moved back by a checkout; commits always
	// append after the latest sequence. A just-created artifact has
	// none.
	latest := 0
	if !created {
		latest, err = t.store.LatestSequence(ctx, artifact)
		if err != nil {
			return core.Version{}, err
		}
	}

	now := time.Now().UTC()
	v := core.Version{
		ID:          uuid.NewString(),
		Artifact:    artifact,
		Sequence:    latest + 1,
		Fingerprint: fp,
		Variables:   extractVariables(content),
		Message:     message,
		Author:      author,
		CreatedAt:   now,
	}

	if err := t.store.AppendVersion(ctx, v); err != nil {
		if created {
			// Undo the auto-registration so a failed first commit
			// leaves no empty artifact behind.
			_ = t.store.DeleteArtifact(ctx, artifact)
		}
		return core.Version{}, fmt.Errorf("append version: %w", err)
	}

	if t.logger != nil {
		t.logger.Info("version committed",
			"artifact", artifact, "sequence", v.Sequence, "fingerprint", fp.Short())
	}
	return v, nil
}

// Checkout moves HEAD to seq and returns that version. Pure pointer
// move; history is untouched.
func (t *Tracker) Checkout(ctx context.Context, artifact string, seq int) (core.Version, error) {
	lock := t.artifactLock(artifact)
	lock.Lock()
	defer lock.Unlock()

	v, err := t.store.Version(ctx, artifact, seq)
	if err != nil {
		return core.Version{}, err
	}
	if err := t.store.SetHead(ctx, artifact, seq); err != nil {
		return core.Version{}, err
	}
	if t.logger != nil {
		t.logger.Info("checked out", "artifact", artifact, "sequence", seq)
	}
	return v, nil
}

// Tag adds a label to a version's tag set. Idempotent.
func (t *Tracker) Tag(ctx context.Context, artifact string, seq int, label string) error {
	lock := t.artifactLock(artifact)
	lock.Lock()
	defer lock.Unlock()

	return t.store.AddTag(ctx, artifact, seq, label)
}

// RecordMetric ingests one (metric, value) observation from an
// external test run. Last write wins per metric key.
func (t *Tracker) RecordMetric(ctx context.Context, artifact string, seq int, name string, value float64) error {
	lock := t.artifactLock(artifact)
	lock.Lock()
	defer lock.Unlock()

	return t.store.SetMetric(ctx, artifact, seq, name, value)
}

// Log returns the artifact's versions in ascending sequence order as a
// lazy iterator, optionally filtered. Stopping early costs nothing on
// the remainder; content is only loaded for filters that reference it.
func (t *Tracker) Log(ctx context.Context, artifact string, filter query.Expr) (iter.Seq2[core.Version, error], error) {
	versions, err := t.store.Versions(ctx, artifact)
	if err != nil {
		return nil, err
	}

	return func(yield func(core.Version, error) bool) {
		for _, v := range versions {
			if filter != nil {
				v := v
				content := func() (string, error) {
					data, err := t.store.Get(ctx, v.Fingerprint)
					if err != nil {
						return "", err
					}
					return string(data), nil
				}
				if !query.Eval(filter, v, content) {
					continue
				}
			}
			if !yield(v, nil) {
				return
			}
		}
	}, nil
}

// Content returns the decoded blob text of a version.
func (t *Tracker) Content(ctx context.Context, artifact string, seq int) (string, error) {
	v, err := t.store.Version(ctx, artifact, seq)
	if err != nil {
		return "", err
	}
	data, err := t.store.Get(ctx, v.Fingerprint)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Diff computes the semantic diff between two versions of an artifact.
// Results are cached by fingerprint pair; the cache is never authority.
func (t *Tracker) Diff(ctx context.Context, artifact string, seqA, seqB int) (core.SemanticDiff, error) {
	if t.engine == nil {
		return core.SemanticDiff{}, fmt.Errorf("no diff engine configured")
	}

	va, err := t.store.Version(ctx, artifact, seqA)
	if err != nil {
		return core.SemanticDiff{}, err
	}
	vb, err := t.store.Version(ctx, artifact, seqB)
	if err != nil {
		return core.SemanticDiff{}, err
	}

	key := string(va.Fingerprint) + ":" + string(vb.Fingerprint)
	if cached, ok := t.diffCache.Get(key); ok {
		return cached, nil
	}

	ba, err := t.store.Get(ctx, va.Fingerprint)
	if err != nil {
		return core.SemanticDiff{}, err
	}
	bb, err := t.store.Get(ctx, vb.Fingerprint)
	if err != nil {
		return core.SemanticDiff{}, err
	}

	diff := t.engine.Categorize(ba, bb)
	t.diffCache.Add(key, diff)
	return diff, nil
}

// State implements introspection.Introspectable.
func (t *Tracker) State() any {
	t.mu.Lock()
	defer t.mu.Unlock()

	storeType := "store"
	if comp, ok := t.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}
	return struct {
		StoreType     string `json:"store_type"`
		DiffCacheSize int    `json:"diff_cache_size"`
		ArtifactLocks int    `json:"artifact_locks"`
	}{storeType, t.diffCache.Len(), len(t.locks)}
}

// ComponentType implements introspection.Component.
func (t *Tracker) ComponentType() string { return "tracker" }

var _ introspection.Introspectable = (*Tracker)(nil)
var _ introspection.Component = (*Tracker)(nil)

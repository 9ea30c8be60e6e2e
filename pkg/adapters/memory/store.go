// Package memory provides the in-memory core.Store used by tests and
// throwaway sessions. Reads return deep copies so callers never observe
// a partially applied mutation.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/itisrmk/pit/pkg/core"
)

// Store keeps blobs and version records in process memory.
type Store struct {
	mu        sync.RWMutex
	blobs     map[core.Fingerprint][]byte
	artifacts map[string]core.Artifact
	versions  map[string][]core.Version // artifact name -> ascending sequence
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		blobs:     make(map[core.Fingerprint][]byte),
		artifacts: make(map[string]core.Artifact),
		versions:  make(map[string][]core.Version),
	}
}

// Initialize is a no-op for the memory adapter.
func (s *Store) Initialize(ctx context.Context) error { return nil }

// Close is a no-op for the memory adapter.
func (s *Store) Close() error { return nil }

// Put stores content under its fingerprint. A fingerprint hit with
// differing bytes fails with core.ErrIntegrity.
func (s *Store) Put(ctx context.Context, data []byte) (core.Fingerprint, error) {
	fp := core.ComputeFingerprint(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.blobs[fp]; ok {
		if !bytes.Equal(existing, data) {
			return "", core.ErrIntegrity
		}
		return fp, nil
	}

	s.blobs[fp] = append([]byte(nil), data...)
	return fp, nil
}

// Get returns the blob bytes for a fingerprint.
func (s *Store) Get(ctx context.Context, fp core.Fingerprint) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[fp]
	if !ok {
		return nil, &core.NotFoundError{Kind: "blob", Key: fp.Short()}
	}
	return append([]byte(nil), data...), nil
}

// Delete removes a blob unless a version still references it.
func (s *Store) Delete(ctx context.Context, fp core.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[fp]; !ok {
		return &core.NotFoundError{Kind: "blob", Key: fp.Short()}
	}
	for _, seq := range s.versions {
		for _, v := range seq {
			if v.Fingerprint == fp {
				return core.ErrReferencedContent
			}
		}
	}
	delete(s.blobs, fp)
	return nil
}

// CreateArtifact registers a new artifact.
func (s *Store) CreateArtifact(ctx context.Context, a core.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[a.Name]; ok {
		return core.ErrAlreadyExists
	}
	s.artifacts[a.Name] = a
	return nil
}

// GetArtifact returns an artifact by name.
func (s *Store) GetArtifact(ctx context.Context, name string) (core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[name]
	if !ok {
		return core.Artifact{}, &core.NotFoundError{Kind: "artifact", Key: name}
	}
	return a, nil
}

// DeleteArtifact removes an artifact that has no versions.
func (s *Store) DeleteArtifact(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[name]; !ok {
		return &core.NotFoundError{Kind: "artifact", Key: name}
	}
	if len(s.versions[name]) > 0 {
		return fmt.Errorf("artifact %q: %w", name, core.ErrReferencedContent)
	}
	delete(s.artifacts, name)
	delete(s.versions, name)
	return nil
}

// ListArtifacts returns all artifacts ordered by name.
func (s *Store) ListArtifacts(ctx context.Context) ([]core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AppendVersion appends a version and moves HEAD to it.
func (s *Store) AppendVersion(ctx context.Context, v core.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[v.Artifact]
	if !ok {
		return &core.NotFoundError{Kind: "artifact", Key: v.Artifact}
	}

	s.versions[v.Artifact] = append(s.versions[v.Artifact], v.Clone())
	a.Head = v.Sequence
	a.UpdatedAt = v.CreatedAt
	s.artifacts[v.Artifact] = a
	return nil
}

// Versions returns the full ascending sequence for an artifact.
func (s *Store) Versions(ctx context.Context, artifact string) ([]core.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.artifacts[artifact]; !ok {
		return nil, &core.NotFoundError{Kind: "artifact", Key: artifact}
	}
	seq := s.versions[artifact]
	out := make([]core.Version, 0, len(seq))
	for _, v := range seq {
		out = append(out, v.Clone())
	}
	return out, nil
}

// LatestSequence returns the highest appended sequence, 0 when empty.
func (s *Store) LatestSequence(ctx context.Context, artifact string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.artifacts[artifact]; !ok {
		return 0, &core.NotFoundError{Kind: "artifact", Key: artifact}
	}
	return len(s.versions[artifact]), nil
}

// Version returns a single version by sequence number.
func (s *Store) Version(ctx context.Context, artifact string, seq int) (core.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionLocked(artifact, seq)
}

func (s *Store) versionLocked(artifact string, seq int) (core.Version, error) {
	list := s.versions[artifact]
	// Sequences are 1-based and gapless, so index directly.
	if seq < 1 || seq > len(list) {
		return core.Version{}, &core.NotFoundError{Kind: "version", Key: versionKey(artifact, seq)}
	}
	return list[seq-1].Clone(), nil
}

// SetHead moves the artifact HEAD pointer.
func (s *Store) SetHead(ctx context.Context, artifact string, seq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[artifact]
	if !ok {
		return &core.NotFoundError{Kind: "artifact", Key: artifact}
	}
	if _, err := s.versionLocked(artifact, seq); err != nil {
		return err
	}
	a.Head = seq
	s.artifacts[artifact] = a
	return nil
}

// AddTag adds a label to a version's tag set, idempotently.
func (s *Store) AddTag(ctx context.Context, artifact string, seq int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.versions[artifact]
	if seq < 1 || seq > len(list) {
		return &core.NotFoundError{Kind: "version", Key: versionKey(artifact, seq)}
	}
	v := &list[seq-1]
	if v.HasTag(label) {
		return nil
	}
	v.Tags = append(v.Tags, label)
	return nil
}

// SetMetric records a metric value on a version, last write wins.
func (s *Store) SetMetric(ctx context.Context, artifact string, seq int, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.versions[artifact]
	if seq < 1 || seq > len(list) {
		return &core.NotFoundError{Kind: "version", Key: versionKey(artifact, seq)}
	}
	v := &list[seq-1]
	if v.Metrics == nil {
		v.Metrics = make(map[string]float64)
	}
	v.Metrics[name] = value
	return nil
}

func versionKey(artifact string, seq int) string {
	return artifact + "@" + strconv.Itoa(seq)
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, seq := range s.versions {
		total += len(seq)
	}
	return struct {
		Blobs     int `json:"blobs"`
		Artifacts int `json:"artifacts"`
		Versions  int `json:"versions"`
	}{len(s.blobs), len(s.artifacts), total}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "memory-store" }

var _ core.Store = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

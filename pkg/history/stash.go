package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/itisrmk/pit/internal/fsutil"
	"github.com/itisrmk/pit/pkg/core"
)

// StashEntry is one work-in-progress snapshot set aside without
// committing. Content lives in the content store; the entry only
// carries its fingerprint.
type StashEntry struct {
	Index       int              `json:"index"`
	Artifact    string           `json:"artifact"`
	Fingerprint core.Fingerprint `json:"fingerprint"`
	Message     string           `json:"message"`
	Author      string           `json:"author,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Stash keeps per-artifact stacks of WIP snapshots, persisted as JSON
// under <dir>/stash/. Index 0 is the most recent entry.
type Stash struct {
	blobs  core.ContentStore
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStash creates a stash manager persisting under dir (the project's
// .pit directory).
func NewStash(blobs core.ContentStore, dir string, logger *slog.Logger) *Stash {
	return &Stash{blobs: blobs, dir: filepath.Join(dir, "stash"), logger: logger}
}

// Push stores content and puts a new entry on top of the artifact's
// stack.
func (s *Stash) Push(ctx context.Context, artifact, content, message, author string) (StashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := s.blobs.Put(ctx, []byte(content))
	if err != nil {
		return StashEntry{}, fmt.Errorf("store stash content: %w", err)
	}

	entries, err := s.load(artifact)
	if err != nil {
		return StashEntry{}, err
	}

	entry := StashEntry{
		Artifact:    artifact,
		Fingerprint: fp,
		Message:     message,
		Author:      author,
		CreatedAt:   time.Now().UTC(),
	}
	entries = append([]StashEntry{entry}, entries...)
	for i := range entries {
		entries[i].Index = i
	}

	if err := s.save(artifact, entries); err != nil {
		return StashEntry{}, err
	}
	if s.logger != nil {
		s.logger.Info("stashed", "artifact", artifact, "fingerprint", fp.Short())
	}
	return entry, nil
}

// Pop removes the top entry and returns it with its content.
func (s *Stash) Pop(ctx context.Context, artifact string) (StashEntry, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(artifact)
	if err != nil {
		return StashEntry{}, "", err
	}
	if len(entries) == 0 {
		return StashEntry{}, "", &core.NotFoundError{Kind: "stash entry", Key: artifact}
	}

	top := entries[0]
	data, err := s.blobs.Get(ctx, top.Fingerprint)
	if err != nil {
		return StashEntry{}, "", err
	}

	rest := entries[1:]
	for i := range rest {
		rest[i].Index = i
	}
	if err := s.save(artifact, rest); err != nil {
		return StashEntry{}, "", err
	}
	return top, string(data), nil
}

// List returns the artifact's stack, most recent first.
func (s *Stash) List(artifact string) ([]StashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(artifact)
}

// Drop removes the entry at index without restoring its content.
func (s *Stash) Drop(artifact string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(artifact)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return &core.NotFoundError{Kind: "stash entry", Key: fmt.Sprintf("%s@%d", artifact, index)}
	}

	entries = append(entries[:index], entries[index+1:]...)
	for i := range entries {
		entries[i].Index = i
	}
	return s.save(artifact, entries)
}

func (s *Stash) path(artifact string) string {
	// Artifact names may contain path separators; escape so every
	// stack stays a flat file.
	return filepath.Join(s.dir, url.PathEscape(artifact)+".json")
}

func (s *Stash) load(artifact string) ([]StashEntry, error) {
	data, err := os.ReadFile(s.path(artifact))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stash: %w", err)
	}
	var entries []StashEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode stash: %w", err)
	}
	return entries, nil
}

func (s *Stash) save(artifact string, entries []StashEntry) error {
	if entries == nil {
		entries = []StashEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stash: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path(artifact), data, 0644)
}

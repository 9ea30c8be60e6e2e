package bisect

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

	"github.com/aretw0/introspection"

	"github.com/itisrmk/pit/internal/fsutil"
	"github.com/itisrmk/pit/pkg/core"
)

// Manager owns bisect sessions, one per artifact, persisted as JSON
// files under <dir>/bisect/. Sessions on different artifacts are
// independent; there is no process-wide current session.
type Manager struct {
	store  core.VersionStore
	dir    string
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session // artifact -> active/converged session
	loaded   bool
}

// NewManager creates a bisect manager persisting under dir (the
// project's .pit directory). A nil logger disables logging.
func NewManager(store core.VersionStore, dir string, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		dir:      filepath.Join(dir, "bisect"),
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start opens a session for the artifact. Zero bounds default to the
// first sequence (goodSeq) and HEAD (badSeq). Fails with
// ErrSessionInProgress if a session is already active, ErrInvalidRange
// if low >= high after defaulting.
func (m *Manager) Start(ctx context.Context, artifact, failingInput string, goodSeq, badSeq int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return nil, err
	}
	if existing, ok := m.sessions[artifact]; ok && existing.State == StateActive {
		return nil, core.ErrSessionInProgress
	}

	a, err := m.store.GetArtifact(ctx, artifact)
	if err != nil {
		return nil, err
	}

	low, high := goodSeq, badSeq
	if low == 0 {
		low = 1
	}
	if high == 0 {
		high = a.Head
	}
	if low >= high {
		return nil, &core.RangeError{Low: low, High: high, Err: core.ErrInvalidRange}
	}
	// Both bounds must name real versions.
	if _, err := m.store.Version(ctx, artifact, low); err != nil {
		return nil, err
	}
	if _, err := m.store.Version(ctx, artifact, high); err != nil {
		return nil, err
	}

	s := &Session{
		Artifact:     artifact,
		FailingInput: failingInput,
		State:        StateActive,
		Low:          low,
		High:         high,
		Current:      midpoint(low, high),
		StartedAt:    time.Now().UTC(),
	}
	// low+1 == high means the answer is already determined.
	if high-low == 1 {
		s.State = StateConverged
		s.FirstBad = high
		s.Current = 0
		t := s.StartedAt
		s.ClosedAt = &t
	}

	m.sessions[artifact] = s
	if err := m.saveLocked(artifact); err != nil {
		delete(m.sessions, artifact)
		return nil, err
	}

	if m.logger != nil {
		m.logger.Info("bisect started", "artifact", artifact, "low", low, "high", high, "current", s.Current)
	}
	return s.clone(), nil
}

// Mark records a verdict. seq == 0 means the session's current
// sequence. On success the returned session reflects the narrowed
// bounds; convergence sets FirstBad.
func (m *Manager) Mark(ctx context.Context, artifact string, verdict Verdict, seq int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return nil, err
	}
	s, ok := m.sessions[artifact]
	if !ok || s.State != StateActive {
		return nil, core.ErrSessionNotActive
	}

	if seq == 0 {
		seq = s.Current
	}

	// Mutate a copy so a persistence failure leaves state untouched.
	next := s.clone()
	if err := next.mark(verdict, seq, time.Now().UTC()); err != nil {
		return nil, err
	}

	m.sessions[artifact] = next
	if err := m.saveLocked(artifact); err != nil {
		m.sessions[artifact] = s
		return nil, err
	}

	if m.logger != nil {
		m.logger.Info("bisect narrowed",
			"artifact", artifact, "verdict", verdict, "sequence", seq,
			"low", next.Low, "high", next.High, "state", next.State)
	}
	return next.clone(), nil
}

// Log returns the session for an artifact, in any state, without side
// effects.
func (m *Manager) Log(artifact string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return nil, err
	}
	s, ok := m.sessions[artifact]
	if !ok {
		return nil, core.ErrSessionNotActive
	}
	return s.clone(), nil
}

// Reset abandons the artifact's session from any state. Its bounds
// become unusable for further marks.
func (m *Manager) Reset(artifact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return err
	}
	s, ok := m.sessions[artifact]
	if !ok {
		return core.ErrSessionNotActive
	}
	s.State = StateAbandoned
	s.Current = 0
	now := time.Now().UTC()
	s.ClosedAt = &now
	if err := m.saveLocked(artifact); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("bisect reset", "artifact", artifact)
	}
	return nil
}

func (s *Session) clone() *Session {
	out := *s
	out.Judgments = append([]Judgment(nil), s.Judgments...)
	if s.ClosedAt != nil {
		t := *s.ClosedAt
		out.ClosedAt = &t
	}
	return &out
}

func (m *Manager) loadLocked() error {
	if m.loaded {
		return nil
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			m.loaded = true
			return nil
		}
		return fmt.Errorf("read bisect dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read session %s: %w", e.Name(), err)
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode session %s: %w", e.Name(), err)
		}
		m.sessions[s.Artifact] = &s
	}
	m.loaded = true
	return nil
}

func (m *Manager) saveLocked(artifact string) error {
	s := m.sessions[artifact]
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// Artifact names may contain path separators (watch uses relative
	// file paths); escape so every session stays a flat file.
	path := filepath.Join(m.dir, url.PathEscape(artifact)+".json")
	return fsutil.WriteFileAtomic(path, data, 0644)
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for _, s := range m.sessions {
		if s.State == StateActive {
			active++
		}
	}
	return struct {
		Dir      string `json:"dir"`
		Sessions int    `json:"sessions"`
		Active   int    `json:"active"`
	}{m.dir, len(m.sessions), active}
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string { return "bisect-manager" }

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)

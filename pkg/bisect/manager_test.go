package bisect_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itisrmk/pit/pkg/adapters/memory"
	"github.com/itisrmk/pit/pkg/bisect"
	"github.com/itisrmk/pit/pkg/core"
)

// seedArtifact creates an artifact with n committed versions.
func seedArtifact(t *testing.T, s *memory.Store, name string, n int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateArtifact(ctx, core.Artifact{ID: name, Name: name}))
	for i := 1; i <= n; i++ {
		fp, err := s.Put(ctx, []byte(fmt.Sprintf("%s content %d", name, i)))
		require.NoError(t, err)
		require.NoError(t, s.AppendVersion(ctx, core.Version{
			ID: fmt.Sprintf("%s-%d", name, i), Artifact: name, Sequence: i, Fingerprint: fp,
		}))
	}
}

func newManager(t *testing.T, versions int) (*bisect.Manager, *memory.Store) {
	t.Helper()
	store := memory.New()
	seedArtifact(t, store, "support", versions)
	return bisect.NewManager(store, t.TempDir(), nil), store
}

func TestBisect_Walkthrough(t *testing.T) {
	// good=1, bad=10: the search probes 5, 3, 4 and lands on 4.
	m, _ := newManager(t, 10)
	ctx := context.Background()

	s, err := m.Start(ctx, "support", "refund request", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, bisect.StateActive, s.State)
	assert.Equal(t, 5, s.Current)

	s, err = m.Mark(ctx, "support", bisect.VerdictBad, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, s.High)
	assert.Equal(t, 3, s.Current)

	s, err = m.Mark(ctx, "support", bisect.VerdictGood, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Low)
	assert.Equal(t, 4, s.Current)

	s, err = m.Mark(ctx, "support", bisect.VerdictBad, 4)
	require.NoError(t, err)
	assert.Equal(t, bisect.StateConverged, s.State)
	assert.Equal(t, 4, s.FirstBad)
	assert.NotNil(t, s.ClosedAt)
	assert.Equal(t, 0, s.Remaining())
}

func TestBisect_MarkDefaultsToCurrent(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	_, err := m.Start(ctx, "support", "", 1, 10)
	require.NoError(t, err)

	// seq 0 judges the suggested sequence (5).
	s, err := m.Mark(ctx, "support", bisect.VerdictGood, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Low)
}

func TestBisect_DefaultBounds(t *testing.T) {
	m, _ := newManager(t, 8)
	ctx := context.Background()

	s, err := m.Start(ctx, "support", "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Low)
	assert.Equal(t, 8, s.High)
}

func TestBisect_InvalidRange(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	for _, bounds := range [][2]int{{5, 5}, {7, 3}} {
		_, err := m.Start(ctx, "support", "", bounds[0], bounds[1])
		require.ErrorIs(t, err, core.ErrInvalidRange, "bounds %v", bounds)
	}

	// Bounds must name real versions.
	_, err := m.Start(ctx, "support", "", 1, 99)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestBisect_AdjacentBoundsConvergeImmediately(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	s, err := m.Start(ctx, "support", "", 4, 5)
	require.NoError(t, err)
	assert.Equal(t, bisect.StateConverged, s.State)
	assert.Equal(t, 5, s.FirstBad)
}

func TestBisect_SessionInProgress(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	_, err := m.Start(ctx, "support", "", 1, 10)
	require.NoError(t, err)

	_, err = m.Start(ctx, "support", "", 1, 10)
	require.ErrorIs(t, err, core.ErrSessionInProgress)

	// A converged session does not block a new one.
	_, err = m.Mark(ctx, "support", bisect.VerdictBad, 0) // 5
	require.NoError(t, err)
	_, err = m.Mark(ctx, "support", bisect.VerdictBad, 0) // 3
	require.NoError(t, err)
	s, err := m.Mark(ctx, "support", bisect.VerdictBad, 0) // 2 -> converged
	require.NoError(t, err)
	require.Equal(t, bisect.StateConverged, s.State)
	assert.Equal(t, 2, s.FirstBad)

	_, err = m.Start(ctx, "support", "", 1, 10)
	require.NoError(t, err)
}

func TestBisect_BoundaryJudgmentsAreNoOps(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	_, err := m.Start(ctx, "support", "", 2, 9)
	require.NoError(t, err)

	// Restating what the bounds already say changes nothing.
	s, err := m.Mark(ctx, "support", bisect.VerdictGood, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Low)
	assert.Equal(t, 9, s.High)
	assert.Empty(t, s.Judgments)

	s, err = m.Mark(ctx, "support", bisect.VerdictBad, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, s.High)
	assert.Empty(t, s.Judgments)
}

func TestBisect_OutOfRange(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	_, err := m.Start(ctx, "support", "", 3, 8)
	require.NoError(t, err)

	for _, seq := range []int{1, 2, 9, 10} {
		_, err := m.Mark(ctx, "support", bisect.VerdictGood, seq)
		require.ErrorIs(t, err, core.ErrOutOfRange, "seq %d", seq)

		var re *core.RangeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, 3, re.Low)
		assert.Equal(t, 8, re.High)
	}
}

func TestBisect_Reset(t *testing.T) {
	m, _ := newManager(t, 10)
	ctx := context.Background()

	_, err := m.Start(ctx, "support", "", 1, 10)
	require.NoError(t, err)
	require.NoError(t, m.Reset("support"))

	_, err = m.Mark(ctx, "support", bisect.VerdictGood, 0)
	require.ErrorIs(t, err, core.ErrSessionNotActive)

	s, err := m.Log("support")
	require.NoError(t, err)
	assert.Equal(t, bisect.StateAbandoned, s.State)

	// Reset frees the artifact for a fresh session.
	_, err = m.Start(ctx, "support", "", 1, 10)
	require.NoError(t, err)
}

func TestBisect_NoSession(t *testing.T) {
	m, _ := newManager(t, 3)

	_, err := m.Log("support")
	require.ErrorIs(t, err, core.ErrSessionNotActive)
	require.ErrorIs(t, m.Reset("support"), core.ErrSessionNotActive)

	_, err = m.Mark(context.Background(), "support", bisect.VerdictBad, 0)
	require.ErrorIs(t, err, core.ErrSessionNotActive)
}

func TestBisect_SurvivesRestart(t *testing.T) {
	store := memory.New()
	seedArtifact(t, store, "support", 10)
	dir := t.TempDir()
	ctx := context.Background()

	m1 := bisect.NewManager(store, dir, nil)
	_, err := m1.Start(ctx, "support", "payload", 1, 10)
	require.NoError(t, err)
	_, err = m1.Mark(ctx, "support", bisect.VerdictBad, 5)
	require.NoError(t, err)

	// A new manager over the same directory resumes the session.
	m2 := bisect.NewManager(store, dir, nil)
	s, err := m2.Log("support")
	require.NoError(t, err)
	assert.Equal(t, bisect.StateActive, s.State)
	assert.Equal(t, 5, s.High)
	assert.Equal(t, 3, s.Current)
	assert.Equal(t, "payload", s.FailingInput)
	require.Len(t, s.Judgments, 1)
}

func TestBisect_ConvergenceWithinLogBound(t *testing.T) {
	// Over 64 versions the search must finish in at most 7 probes.
	m, _ := newManager(t, 64)
	ctx := context.Background()

	firstBad := 37
	s, err := m.Start(ctx, "support", "", 1, 64)
	require.NoError(t, err)

	probes := 0
	for s.State == bisect.StateActive {
		probes++
		require.LessOrEqual(t, probes, 7, "binary search exceeded log2 bound")
		verdict := bisect.VerdictGood
		if s.Current >= firstBad {
			verdict = bisect.VerdictBad
		}
		s, err = m.Mark(ctx, "support", verdict, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, firstBad, s.FirstBad)
}

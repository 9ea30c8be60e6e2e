package history_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itisrmk/pit/pkg/adapters/memory"
	"github.com/itisrmk/pit/pkg/core"
	"github.com/itisrmk/pit/pkg/history"
	"github.com/itisrmk/pit/pkg/query"
	"github.com/itisrmk/pit/pkg/semdiff"
)

func newTracker(t *testing.T) (*history.Tracker, *memory.Store) {
	t.Helper()
	store := memory.New()
	return history.New(store, semdiff.New(), nil), store
}

func collect(t *testing.T, tracker *history.Tracker, artifact string, filter query.Expr) []core.Version {
	t.Helper()
	seq, err := tracker.Log(context.Background(), artifact, filter)
	require.NoError(t, err)

	var out []core.Version
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

// appendFailStore fails every version append so commit error paths
// can be observed.
type appendFailStore struct {
	core.Store
}

func (s *appendFailStore) AppendVersion(ctx context.Context, v core.Version) error {
	return errors.New("disk full")
}

func TestCommit_FailedFirstCommitLeavesNoArtifact(t *testing.T) {
	store := memory.New()
	tracker := history.New(&appendFailStore{Store: store}, semdiff.New(), nil)
	ctx := context.Background()

	_, err := tracker.Commit(ctx, "support", "You are a support agent.", "init", "alice")
	require.Error(t, err)

	// The auto-registration is rolled back, so the failed commit left
	// no observable artifact behind.
	_, err = store.GetArtifact(ctx, "support")
	assert.ErrorIs(t, err, core.ErrNotFound)

	arts, err := store.ListArtifacts(ctx)
	require.NoError(t, err)
	assert.Empty(t, arts)
}

func TestCommit_SequencesAreGapless(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	for i, content := range []string{"a", "b", "c", "d", "e"} {
		v, err := tracker.Commit(ctx, "support", content, "msg", "alice")
		require.NoError(t, err)
		assert.Equal(t, i+1, v.Sequence)
	}

	a, err := tracker.Artifact(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, 5, a.Head)

	versions := collect(t, tracker, "support", nil)
	require.Len(t, versions, 5)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Sequence)
	}
}

// Commit versions with content A,B,B,C,D: the store deduplicates to 4
// blobs, the history still has 5 versions, and the byte-identical pair
// diffs empty.
func TestCommit_DeduplicatedContent(t *testing.T) {
	tracker, store := newTracker(t)
	ctx := context.Background()

	contents := []string{"A", "B", "B", "C", "D"}
	fps := make(map[core.Fingerprint]bool)
	for _, c := range contents {
		v, err := tracker.Commit(ctx, "support", c, "", "")
		require.NoError(t, err)
		fps[v.Fingerprint] = true
	}

	assert.Len(t, fps, 4, "store should hold 4 distinct blobs")
	assert.Len(t, collect(t, tracker, "support", nil), 5)

	v2, err := store.Version(ctx, "support", 2)
	require.NoError(t, err)
	v3, err := store.Version(ctx, "support", 3)
	require.NoError(t, err)
	assert.Equal(t, v2.Fingerprint, v3.Fingerprint)

	diff, err := tracker.Diff(ctx, "support", 2, 3)
	require.NoError(t, err)
	assert.True(t, diff.Empty())
}

func TestCommit_AppendsAfterCheckout(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	for _, c := range []string{"one", "two", "three"} {
		_, err := tracker.Commit(ctx, "support", c, "", "")
		require.NoError(t, err)
	}

	_, err := tracker.Checkout(ctx, "support", 1)
	require.NoError(t, err)

	// History is append-only: a commit after a backwards checkout
	// still extends the sequence instead of rewriting it.
	v, err := tracker.Commit(ctx, "support", "four", "", "")
	require.NoError(t, err)
	assert.Equal(t, 4, v.Sequence)

	old, err := tracker.Content(ctx, "support", 3)
	require.NoError(t, err)
	assert.Equal(t, "three", old)
}

func TestCommit_ExtractsVariables(t *testing.T) {
	tracker, _ := newTracker(t)

	v, err := tracker.Commit(context.Background(), "greeter",
		"Hello {{ name }}, your order {{order_id}} has shipped. Again: {{name}}.", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "order_id"}, v.Variables)
}

func TestCheckout_OutOfRange(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	_, err := tracker.Commit(ctx, "support", "content", "", "")
	require.NoError(t, err)

	_, err = tracker.Checkout(ctx, "support", 9)
	require.ErrorIs(t, err, core.ErrNotFound)

	// Failed checkout leaves HEAD untouched.
	a, err := tracker.Artifact(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Head)
}

func TestTagAndMetric(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	_, err := tracker.Commit(ctx, "support", "content", "", "")
	require.NoError(t, err)

	require.NoError(t, tracker.Tag(ctx, "support", 1, "production"))
	require.NoError(t, tracker.RecordMetric(ctx, "support", 1, "success_rate", 0.95))

	versions := collect(t, tracker, "support", nil)
	require.Len(t, versions, 1)
	assert.True(t, versions[0].HasTag("production"))
	val, ok := versions[0].Metric("success_rate")
	assert.True(t, ok)
	assert.Equal(t, 0.95, val)

	require.ErrorIs(t, tracker.Tag(ctx, "support", 7, "x"), core.ErrNotFound)
}

func TestLog_Filtered(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	for i, c := range []string{"a", "b", "c", "d"} {
		_, err := tracker.Commit(ctx, "support", c, "", "")
		require.NoError(t, err)
		if i%2 == 1 {
			require.NoError(t, tracker.RecordMetric(ctx, "support", i+1, "success_rate", 0.95))
		}
	}
	require.NoError(t, tracker.Tag(ctx, "support", 4, "production"))

	filter, err := query.Parse("success_rate > 0.9 AND tags contains 'production'")
	require.NoError(t, err)

	matched := collect(t, tracker, "support", filter)
	require.Len(t, matched, 1)
	assert.Equal(t, 4, matched[0].Sequence)
}

func TestLog_ContentFilterAndEarlyStop(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	for _, c := range []string{"alpha text", "beta text", "alpha again"} {
		_, err := tracker.Commit(ctx, "support", c, "", "")
		require.NoError(t, err)
	}

	filter, err := query.Parse("content contains 'alpha'")
	require.NoError(t, err)

	seq, err := tracker.Log(ctx, "support", filter)
	require.NoError(t, err)

	// Stop after the first match; the iterator must not mind.
	var first core.Version
	for v, err := range seq {
		require.NoError(t, err)
		first = v
		break
	}
	assert.Equal(t, 1, first.Sequence)

	matched := collect(t, tracker, "support", filter)
	require.Len(t, matched, 2)
	assert.Equal(t, 3, matched[1].Sequence)
}

func TestLog_UnknownArtifact(t *testing.T) {
	tracker, _ := newTracker(t)
	_, err := tracker.Log(context.Background(), "ghost", nil)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDiff_CachedAndDeterministic(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	_, err := tracker.Commit(ctx, "support", "You are a support agent.\n", "", "")
	require.NoError(t, err)
	_, err = tracker.Commit(ctx, "support", "You are a support agent.\nNever promise refunds.\n", "", "")
	require.NoError(t, err)

	first, err := tracker.Diff(ctx, "support", 1, 2)
	require.NoError(t, err)
	require.False(t, first.Empty())

	entry, ok := first.Entry(core.CategoryConstraints)
	require.True(t, ok)
	assert.True(t, entry.PureAddition())

	// Second call serves from cache and must be identical.
	second, err := tracker.Diff(ctx, "support", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = tracker.Diff(ctx, "support", 1, 9)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestCommit_ConcurrentArtifactsAreIndependent(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	artifacts := []string{"a", "b", "c", "d"}
	const commits = 20

	var wg sync.WaitGroup
	for _, name := range artifacts {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < commits; i++ {
				if _, err := tracker.Commit(ctx, name, name+"-"+string(rune('a'+i)), "", ""); err != nil {
					t.Errorf("commit %s/%d: %v", name, i, err)
					return
				}
			}
		}(name)
	}
	wg.Wait()

	for _, name := range artifacts {
		versions := collect(t, tracker, name, nil)
		require.Len(t, versions, commits, "artifact %s", name)
		for i, v := range versions {
			assert.Equal(t, i+1, v.Sequence, "artifact %s", name)
		}
	}
}

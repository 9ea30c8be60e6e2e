package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itisrmk/pit/pkg/adapters/sqlite"
	"github.com/itisrmk/pit/pkg/core"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(sqlite.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func artifact(name string) core.Artifact {
	now := time.Now().UTC()
	return core.Artifact{ID: name + "-id", Name: name, CreatedAt: now, UpdatedAt: now}
}

func version(art string, seq int, fp core.Fingerprint) core.Version {
	return core.Version{
		ID:          art + "-v" + string(rune('0'+seq)),
		Artifact:    art,
		Sequence:    seq,
		Fingerprint: fp,
		Variables:   []string{"name"},
		Message:     "msg",
		Author:      "alice",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "pit.db"))
	defer s.Close()

	fp, err := s.Put(ctx, []byte("blob content"))
	require.NoError(t, err)

	data, err := s.Get(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, "blob content", string(data))

	// Idempotent re-put of identical content.
	fp2, err := s.Put(ctx, []byte("blob content"))
	require.NoError(t, err)
	assert.Equal(t, fp, fp2)

	require.NoError(t, s.CreateArtifact(ctx, artifact("support")))
	require.ErrorIs(t, s.CreateArtifact(ctx, artifact("support")), core.ErrAlreadyExists)

	v := version("support", 1, fp)
	require.NoError(t, s.AppendVersion(ctx, v))

	got, err := s.Version(ctx, "support", 1)
	require.NoError(t, err)
	assert.Equal(t, v.Fingerprint, got.Fingerprint)
	assert.Equal(t, v.Message, got.Message)
	assert.Equal(t, v.Author, got.Author)
	assert.Equal(t, []string{"name"}, got.Variables)

	a, err := s.GetArtifact(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Head)
}

func TestStore_TagsAndMetrics(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "pit.db"))
	defer s.Close()

	fp, _ := s.Put(ctx, []byte("x"))
	require.NoError(t, s.CreateArtifact(ctx, artifact("a")))
	require.NoError(t, s.AppendVersion(ctx, version("a", 1, fp)))

	require.NoError(t, s.AddTag(ctx, "a", 1, "production"))
	require.NoError(t, s.AddTag(ctx, "a", 1, "production")) // idempotent

	require.NoError(t, s.SetMetric(ctx, "a", 1, "success_rate", 0.5))
	require.NoError(t, s.SetMetric(ctx, "a", 1, "success_rate", 0.93)) // overwrite

	v, err := s.Version(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"production"}, v.Tags)
	val, ok := v.Metric("success_rate")
	assert.True(t, ok)
	assert.Equal(t, 0.93, val)

	require.ErrorIs(t, s.AddTag(ctx, "a", 9, "x"), core.ErrNotFound)
	require.ErrorIs(t, s.SetMetric(ctx, "a", 9, "x", 1), core.ErrNotFound)
}

func TestStore_DeleteGuard(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "pit.db"))
	defer s.Close()

	fp, _ := s.Put(ctx, []byte("referenced"))
	require.NoError(t, s.CreateArtifact(ctx, artifact("a")))
	require.NoError(t, s.AppendVersion(ctx, version("a", 1, fp)))

	require.ErrorIs(t, s.Delete(ctx, fp), core.ErrReferencedContent)

	orphan, _ := s.Put(ctx, []byte("orphan"))
	require.NoError(t, s.Delete(ctx, orphan))
	_, err := s.Get(ctx, orphan)
	require.ErrorIs(t, err, core.ErrNotFound)

	// Same guard for artifacts: only version-less ones can go.
	require.ErrorIs(t, s.DeleteArtifact(ctx, "a"), core.ErrReferencedContent)
	require.NoError(t, s.CreateArtifact(ctx, artifact("b")))
	require.NoError(t, s.DeleteArtifact(ctx, "b"))
	_, err = s.GetArtifact(ctx, "b")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, s.DeleteArtifact(ctx, "ghost"), core.ErrNotFound)
}

func TestStore_LatestSequenceVsHead(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "pit.db"))
	defer s.Close()

	require.NoError(t, s.CreateArtifact(ctx, artifact("a")))
	for i := 1; i <= 3; i++ {
		fp, _ := s.Put(ctx, []byte{byte(i)})
		require.NoError(t, s.AppendVersion(ctx, version("a", i, fp)))
	}

	require.NoError(t, s.SetHead(ctx, "a", 1))

	latest, err := s.LatestSequence(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, latest)

	a, _ := s.GetArtifact(ctx, "a")
	assert.Equal(t, 1, a.Head)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pit.db")

	s := openStore(t, path)
	fp, _ := s.Put(ctx, []byte("durable"))
	require.NoError(t, s.CreateArtifact(ctx, artifact("a")))
	require.NoError(t, s.AppendVersion(ctx, version("a", 1, fp)))
	require.NoError(t, s.AddTag(ctx, "a", 1, "keep"))
	require.NoError(t, s.Close())

	s2 := openStore(t, path)
	defer s2.Close()

	v, err := s2.Version(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, fp, v.Fingerprint)
	assert.Equal(t, []string{"keep"}, v.Tags)

	data, err := s2.Get(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, "durable", string(data))
}

package history_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itisrmk/pit/pkg/adapters/memory"
	"github.com/itisrmk/pit/pkg/core"
	"github.com/itisrmk/pit/pkg/history"
)

func TestStash_PushPop(t *testing.T) {
	store := memory.New()
	stash := history.NewStash(store, t.TempDir(), nil)
	ctx := context.Background()

	_, err := stash.Push(ctx, "support", "draft one", "wip: rewrite intro", "alice")
	require.NoError(t, err)
	entry, err := stash.Push(ctx, "support", "draft two", "wip: new constraints", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Index, "newest entry sits on top")

	popped, content, err := stash.Pop(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, "draft two", content)
	assert.Equal(t, "wip: new constraints", popped.Message)

	popped, content, err = stash.Pop(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, "draft one", content)
	assert.Equal(t, "wip: rewrite intro", popped.Message)

	_, _, err = stash.Pop(ctx, "support")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestStash_ListAndDrop(t *testing.T) {
	store := memory.New()
	stash := history.NewStash(store, t.TempDir(), nil)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		_, err := stash.Push(ctx, "support", "content "+msg, msg, "")
		require.NoError(t, err)
	}

	entries, err := stash.List("support")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Stack order: last push first, indexes contiguous from 0.
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "first", entries[2].Message)
	for i, e := range entries {
		assert.Equal(t, i, e.Index)
	}

	require.NoError(t, stash.Drop("support", 1)) // drop "second"

	entries, err = stash.List("support")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "first", entries[1].Message)
	assert.Equal(t, 1, entries[1].Index, "indexes reflow after a drop")

	require.ErrorIs(t, stash.Drop("support", 5), core.ErrNotFound)
}

func TestStash_PerArtifactStacks(t *testing.T) {
	store := memory.New()
	stash := history.NewStash(store, t.TempDir(), nil)
	ctx := context.Background()

	_, err := stash.Push(ctx, "support", "support draft", "", "")
	require.NoError(t, err)
	_, err = stash.Push(ctx, "greeter", "greeter draft", "", "")
	require.NoError(t, err)

	_, content, err := stash.Pop(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, "support draft", content)

	entries, err := stash.List("greeter")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStash_SurvivesRestart(t *testing.T) {
	store := memory.New()
	dir := t.TempDir()
	ctx := context.Background()

	s1 := history.NewStash(store, dir, nil)
	_, err := s1.Push(ctx, "support", "durable draft", "keep me", "")
	require.NoError(t, err)

	// A fresh stash over the same directory and blob store sees the entry.
	s2 := history.NewStash(store, dir, nil)
	_, content, err := s2.Pop(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, "durable draft", content)
}

package draft

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneHandOff(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()

	first, err := Stash(ctx, store, "Blog Post", map[string]any{"title": "one"})
	require.NoError(t, err)
	second, err := Stash(ctx, store, "Blog Post", map[string]any{"title": "two", "cover": &upload{}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "blog-post-clone-"), first)
	assert.Less(t, first, second)

	payload, ok, err := TakeLatestClone(ctx, store, "Blog Post")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"title": "two", "cover": nil}, payload)

	keys, err := store.Keys(ctx, "blog-post-clone-")
	require.NoError(t, err)
	assert.Equal(t, []string{first}, keys)
}

func TestTakeLatestCloneEmpty(t *testing.T) {
	payload, ok, err := TakeLatestClone(context.Background(), newCountingStore(), "post")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestStashWriteFailure(t *testing.T) {
	store := newCountingStore()
	store.failSet = errBoom
	_, err := Stash(context.Background(), store, "post", map[string]any{})
	assert.ErrorIs(t, err, ErrStorageWrite)
}

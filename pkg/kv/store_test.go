package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", `["a"]`))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `["a"]`, v)

	require.NoError(t, s.Remove(ctx, "k"))
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "k", "v"))

	assert.Eventually(t, func() bool {
		_, found, _ := s.Get(ctx, "k")
		return !found
	}, time.Second, 10*time.Millisecond)
}

func TestPrefixedIsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore(0)
	alice := Prefixed(base, "user:alice:")
	bob := Prefixed(base, "user:bob:")

	require.NoError(t, alice.Set(ctx, "chatSelectedDatasets", "a"))
	_, found, _ := bob.Get(ctx, "chatSelectedDatasets")
	assert.False(t, found)

	v, found, _ := base.Get(ctx, "user:alice:chatSelectedDatasets")
	assert.True(t, found)
	assert.Equal(t, "a", v)

	require.NoError(t, alice.Remove(ctx, "chatSelectedDatasets"))
	_, found, _ = base.Get(ctx, "user:alice:chatSelectedDatasets")
	assert.False(t, found)
}

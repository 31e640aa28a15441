package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), mr.Addr(), "", 0, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestBindingKey(t *testing.T) {
	assert.Equal(t, "chatbot:binding:01HZX", bindingKey("01HZX"))
}

func TestStore_BindLookupUnbind(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Hour)

	_, ok, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Bind(ctx, "k1", "sess-1"))
	got, err := mr.Get(bindingKey("k1"))
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got)

	sid, ok, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", sid)

	require.NoError(t, s.Unbind(ctx, "k1"))
	_, ok, err = s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(bindingKey("k1")))

	// unbinding twice is fine
	require.NoError(t, s.Unbind(ctx, "k1"))
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Minute)

	require.NoError(t, s.Bind(ctx, "k", "sess"))
	assert.Equal(t, time.Minute, mr.TTL(bindingKey("k")))

	mr.FastForward(30 * time.Second)
	_, ok, err := s.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "lookup refreshes the ttl")
	assert.Equal(t, time.Minute, mr.TTL(bindingKey("k")))

	mr.FastForward(45 * time.Second)
	_, ok, err = s.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RebindReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Hour)

	require.NoError(t, s.Bind(ctx, "k", "old"))
	require.NoError(t, s.Bind(ctx, "k", "new"))
	sid, ok, err := s.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", sid)
}

func TestStore_ServerGone(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Hour)
	require.NoError(t, s.Bind(ctx, "k", "sess"))

	mr.Close()
	_, ok, err := s.Lookup(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, addr, "", 0, time.Hour)
	assert.Error(t, err)
}

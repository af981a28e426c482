package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cashdesk/cashdesk/internal/cache"
)

func TestMemRoundTrip(t *testing.T) {
	m := New("t:", time.Minute)
	ctx := context.Background()

	_, err := m.Get(ctx, "k")
	require.True(t, cache.IsNotFound(err))

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	require.True(t, cache.IsNotFound(err))
}

func TestMemTTL(t *testing.T) {
	m := New("t:", time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	require.True(t, cache.IsNotFound(err))
}

func TestMemPrefixIsolation(t *testing.T) {
	a := New("a:", time.Minute)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", "v", time.Minute))

	b := New("b:", time.Minute)
	_, err := b.Get(ctx, "k")
	require.True(t, cache.IsNotFound(err))
}

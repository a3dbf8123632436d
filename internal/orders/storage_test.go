package orders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTripIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStorage()
	sel := NewSelection("s1")
	sel.Toggle(prod("a", "1", 1, time.Now()))

	require.NoError(t, store.Set(ctx, sel))
	sel.Toggle(prod("b", "1", 1, time.Now()))

	got, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 1, "later changes to the caller's value are not stored")

	got.Remove("a")
	again, _ := store.Read(ctx, "s1")
	assert.Len(t, again.Entries, 1)
}

func TestLocalStorage_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStorage()

	assert.ErrorIs(t, store.Set(ctx, NewSelection("")), ErrEmptyID)

	_, err := store.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, NewSelection("s1")))
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Read(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newRedisStorage(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisStorage(mr.Addr(), "", 0, ttl)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Ping(context.Background()))
	return store, mr
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStorage(t, 30*time.Minute)
	exp := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	sel := NewSelection("s1")
	sel.TransactionID = "txn-1"
	sel.Toggle(prod("a", "12.50", 7, exp))
	require.NoError(t, sel.SetQuantity("a", 2))

	require.NoError(t, store.Set(ctx, sel))

	assert.Equal(t, 30*time.Minute, mr.TTL(redisKey("s1")))

	got, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "txn-1", got.TransactionID)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "25.00", got.Total().StringFixed(2))
	assert.Equal(t, "12.50", got.Entries[0].UnitPrice.StringFixed(2))
	assert.Equal(t, 7, got.Entries[0].Product.Quantity)
	assert.True(t, exp.Equal(got.Entries[0].Product.ExpirationDate))
}

func TestRedisStorage_Errors(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStorage(t, time.Minute)

	assert.ErrorIs(t, store.Set(ctx, NewSelection("")), ErrEmptyID)

	_, err := store.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, NewSelection("s1")))
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Read(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_SelectionExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStorage(t, time.Minute)
	require.NoError(t, store.Set(ctx, NewSelection("s1")))

	mr.FastForward(2 * time.Minute)

	_, err := store.Read(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "console:staged:abc", redisKey("abc"))
}

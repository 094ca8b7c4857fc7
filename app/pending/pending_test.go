package pending_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/pending"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/crypt"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func entry(code string, expires time.Time) pending.Entry {
	return pending.Entry{
		Code:      code,
		ExpiresAt: expires,
		Registration: pending.Registration{
			FullName: "Asha", Email: "asha@example.com", Mobile: "9000", Location: "Pune", Password: "s3cret",
		},
	}
}

func TestMemoryPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := pending.NewMemory()

	_, err := s.Get(ctx, "asha@example.com")
	assert.ErrorIs(t, err, pending.ErrNotFound)

	require.NoError(t, s.Put(ctx, "asha@example.com", entry("111111", now.Add(time.Minute))))
	require.NoError(t, s.Put(ctx, "asha@example.com", entry("222222", now.Add(time.Minute))))

	got, err := s.Get(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "asha@example.com"))
	assert.Equal(t, 0, s.Len())
}

func TestMemorySweepRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	s := pending.NewMemory()
	require.NoError(t, s.Put(ctx, "old@example.com", entry("1", now.Add(-time.Second))))
	require.NoError(t, s.Put(ctx, "new@example.com", entry("2", now.Add(time.Minute))))

	n, err := s.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(ctx, "old@example.com")
	assert.ErrorIs(t, err, pending.ErrNotFound)
	_, err = s.Get(ctx, "new@example.com")
	assert.NoError(t, err)
}

func TestEntryExpiredBoundary(t *testing.T) {
	e := entry("1", now)
	assert.False(t, e.Expired(now))
	assert.True(t, e.Expired(now.Add(time.Nanosecond)))
}

// fakeKV stands in for Redis and records TTLs.
type fakeKV struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) GetString(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vals[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.vals, k)
	}
	return nil
}

func TestRedisRoundTripIsSealed(t *testing.T) {
	ctx := context.Background()
	box, err := crypt.New("test-app-key")
	require.NoError(t, err)

	kv := newFakeKV()
	s := pending.NewRedis(kv, box).WithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, "asha@example.com", entry("123456", now.Add(10*time.Minute))))

	raw := kv.vals["pending:asha@example.com"]
	require.NotEmpty(t, raw)
	assert.NotContains(t, raw, "123456")
	assert.NotContains(t, raw, "s3cret")
	assert.Equal(t, 10*time.Minute+pending.Grace, kv.ttls["pending:asha@example.com"])

	got, err := s.Get(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)
	assert.Equal(t, "s3cret", got.Registration.Password)
	assert.True(t, got.ExpiresAt.Equal(now.Add(10*time.Minute)))

	require.NoError(t, s.Delete(ctx, "asha@example.com"))
	_, err = s.Get(ctx, "asha@example.com")
	assert.ErrorIs(t, err, pending.ErrNotFound)

	n, err := s.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisRejectsForeignKey(t *testing.T) {
	ctx := context.Background()
	a, _ := crypt.New("a")
	b, _ := crypt.New("b")
	kv := newFakeKV()

	require.NoError(t, pending.NewRedis(kv, a).Put(ctx, "x@y.z", entry("1", time.Now().Add(time.Minute))))
	_, err := pending.NewRedis(kv, b).Get(ctx, "x@y.z")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

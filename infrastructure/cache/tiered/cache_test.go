package tiered

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockCache is a mock implementation of the secondary tier
type mockCache struct {
	getFunc    func(ctx context.Context, key string) ([]byte, error)
	setFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	deleteFunc func(ctx context.Context, key string) error

	getCalls int
	setCalls int
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalls++
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return nil, errors.New("key not found")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

func TestGet_LocalTierHit(t *testing.T) {
	cache := New(16, time.Minute, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("value"), time.Minute)

	got, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Get = %s, want value", got)
	}
}

func TestGet_FullMiss(t *testing.T) {
	cache := New(16, time.Minute, nil, nil)

	got, err := cache.Get(context.Background(), "missing")

	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get error = %v, want ErrCacheMiss", err)
	}
	if got != nil {
		t.Error("Get should return nil on miss")
	}
}

func TestGet_SecondaryHitBackfillsLocal(t *testing.T) {
	l2 := &mockCache{
		getFunc: func(ctx context.Context, key string) ([]byte, error) {
			return []byte("from-l2"), nil
		},
	}
	cache := New(16, time.Minute, l2, nil)
	ctx := context.Background()

	got, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != "from-l2" {
		t.Errorf("Get = %s, want from-l2", got)
	}
	if l2.getCalls != 1 {
		t.Fatalf("secondary tier calls = %d, want 1", l2.getCalls)
	}

	// Backfilled: the next lookup must be satisfied locally.
	got, err = cache.Get(ctx, "key")
	if err != nil || string(got) != "from-l2" {
		t.Fatalf("second Get = %s, %v", got, err)
	}
	if l2.getCalls != 1 {
		t.Errorf("secondary tier calls after backfill = %d, want still 1", l2.getCalls)
	}
}

// mockTTLCache is a mockCache that also reports a remaining TTL
type mockTTLCache struct {
	mockCache
	remaining time.Duration
}

func (m *mockTTLCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	data, err := m.Get(ctx, key)
	return data, m.remaining, err
}

func TestGet_BackfilledEntryExpiresWithRemainingTTL(t *testing.T) {
	l2 := &mockTTLCache{remaining: 15 * time.Millisecond}
	l2.getFunc = func(ctx context.Context, key string) ([]byte, error) {
		return []byte("v"), nil
	}
	cache := New(16, time.Minute, l2, nil)
	ctx := context.Background()

	got, err := cache.Get(ctx, "key")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %s, %v", got, err)
	}

	// Let both the local copy's deadline and the secondary entry lapse.
	time.Sleep(30 * time.Millisecond)
	l2.getFunc = func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("key not found")
	}

	if _, err := cache.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("stale backfilled entry served past its TTL: err = %v", err)
	}
}

func TestGet_BackfillWithoutTTLIsBounded(t *testing.T) {
	l2 := &mockCache{
		getFunc: func(ctx context.Context, key string) ([]byte, error) {
			return []byte("v"), nil
		},
	}
	cache := New(16, time.Minute, l2, nil)

	if _, err := cache.Get(context.Background(), "key"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	e, ok := cache.l1.Get("key")
	if !ok {
		t.Fatal("secondary hit was not backfilled")
	}
	if e.expiresAt.IsZero() {
		t.Fatal("backfilled entry carries no deadline")
	}
	if remaining := time.Until(e.expiresAt); remaining > maxBackfillTTL {
		t.Errorf("backfilled entry lives %v, want at most %v", remaining, maxBackfillTTL)
	}
}

func TestGet_SecondaryFailureIsAMiss(t *testing.T) {
	l2 := &mockCache{
		getFunc: func(ctx context.Context, key string) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
	}
	cache := New(16, time.Minute, l2, nil)

	_, err := cache.Get(context.Background(), "key")

	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get error = %v, want ErrCacheMiss when secondary tier is down", err)
	}
}

func TestSet_SecondaryFailureDoesNotFailCall(t *testing.T) {
	l2 := &mockCache{
		setFunc: func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
			return errors.New("connection refused")
		},
	}
	cache := New(16, time.Minute, l2, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Errorf("Set returned error: %v", err)
	}

	// Local tier still serves the value.
	got, err := cache.Get(ctx, "key")
	if err != nil || string(got) != "value" {
		t.Errorf("Get after degraded Set = %s, %v", got, err)
	}
}

func TestSet_WritesThroughToSecondary(t *testing.T) {
	l2 := &mockCache{}
	cache := New(16, time.Minute, l2, nil)

	cache.Set(context.Background(), "key", []byte("value"), time.Minute)

	if l2.setCalls != 1 {
		t.Errorf("secondary tier writes = %d, want 1", l2.setCalls)
	}
}

func TestGet_EntryExpiresAfterTTL(t *testing.T) {
	cache := New(16, time.Minute, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("value"), 10*time.Millisecond)

	if _, err := cache.Get(ctx, "key"); err != nil {
		t.Fatalf("Get before TTL returned error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := cache.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after TTL = %v, want ErrCacheMiss", err)
	}
}

func TestLocalTier_SizeBounded(t *testing.T) {
	cache := New(2, time.Minute, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "a", []byte("1"), time.Minute)
	cache.Set(ctx, "b", []byte("2"), time.Minute)
	cache.Set(ctx, "c", []byte("3"), time.Minute)

	if size := cache.Stats().Size; size > 2 {
		t.Errorf("local tier size = %d, want at most 2", size)
	}
}

func TestDelete_RemovesFromBothTiers(t *testing.T) {
	deleted := ""
	l2 := &mockCache{
		deleteFunc: func(ctx context.Context, key string) error {
			deleted = key
			return nil
		},
	}
	cache := New(16, time.Minute, l2, nil)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("value"), time.Minute)
	cache.Delete(ctx, "key")

	if _, err := cache.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Error("key still present locally after Delete")
	}
	if deleted != "key" {
		t.Errorf("secondary delete key = %q, want key", deleted)
	}
}

func TestStats_HitRateGuardedAgainstDivideByZero(t *testing.T) {
	cache := New(16, time.Minute, nil, nil)

	stats := cache.Stats()
	if stats.HitRate != 0 {
		t.Errorf("HitRate with no lookups = %f, want 0", stats.HitRate)
	}
}

func TestStats_CountsHitsAndMisses(t *testing.T) {
	cache := New(16, time.Minute, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("value"), time.Minute)
	cache.Get(ctx, "key")
	cache.Get(ctx, "key")
	cache.Get(ctx, "missing")
	cache.Get(ctx, "missing2")

	stats := cache.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %f, want 0.5", stats.HitRate)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	cache := New(16, time.Minute, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("value"), time.Minute)

	got, _ := cache.Get(ctx, "key")
	got[0] = 'X'

	again, _ := cache.Get(ctx, "key")
	if string(again) != "value" {
		t.Errorf("cached value mutated through returned slice: %s", again)
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/hairhealth/pkg/metrics"
)

func activeSessionsGauge(t *testing.T) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "hairhealth_service_active_sessions" && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("active sessions gauge not registered")
	return 0
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleResult(score int) SessionResult {
	return SessionResult{
		Tips:        []string{"Drink more water to keep your scalp hydrated."},
		Score:       score,
		Risk:        "Medium",
		ResultClass: "good",
	}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))

	if n := store.Len(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, "s1", sampleResult(72)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 72 || got.Risk != "Medium" || got.ResultClass != "good" {
		t.Errorf("unexpected result: %+v", got)
	}
	if !got.CreatedAt.Equal(clock.Now()) {
		t.Errorf("expected CreatedAt %v, got %v", clock.Now(), got.CreatedAt)
	}

	// Overwrite keeps a single entry.
	if err := store.Put(ctx, "s1", sampleResult(30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := store.Len(ctx); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
	got, _ = store.Get(ctx, "s1")
	if got.Score != 30 {
		t.Errorf("expected overwritten score 30, got %d", got.Score)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Errorf("deleting unknown id should not fail: %v", err)
	}

	if err := store.Put(ctx, "", sampleResult(1)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestMemoryStore_ResultsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := sampleResult(50)
	if err := store.Put(ctx, "s1", r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Tips[0] = "mutated"

	got, _ := store.Get(ctx, "s1")
	if got.Tips[0] == "mutated" {
		t.Error("store shares the caller's tips slice")
	}
	got.Tips[0] = "mutated again"
	again, _ := store.Get(ctx, "s1")
	if again.Tips[0] == "mutated again" {
		t.Error("store hands out its internal tips slice")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithTTL(30*time.Minute))

	if err := store.Put(ctx, "s1", sampleResult(60)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.Advance(29 * time.Minute)
	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Errorf("expected live entry before TTL, got %v", err)
	}

	clock.Advance(time.Minute)
	if n := store.Len(ctx); n != 0 {
		t.Errorf("expected expired entry to be excluded from Len, got %d", n)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	// The expired entry was dropped on read.
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStore_ExpiredReadUpdatesGauge(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithTTL(time.Minute))

	for _, id := range []string{"s1", "s2"} {
		if err := store.Put(ctx, id, sampleResult(50)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := activeSessionsGauge(t); got != 2 {
		t.Fatalf("expected gauge 2 after puts, got %v", got)
	}

	clock.Advance(time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if got := activeSessionsGauge(t); got != 1 {
		t.Errorf("expected gauge 1 after expired read, got %v", got)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithTTL(time.Minute))

	for i := range 3 {
		if err := store.Put(ctx, fmt.Sprintf("old-%d", i), sampleResult(i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	clock.Advance(2 * time.Minute)
	if err := store.Put(ctx, "fresh", sampleResult(99)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if removed := store.Sweep(); removed != 3 {
		t.Errorf("expected 3 expired entries removed, got %d", removed)
	}
	if n := store.Len(ctx); n != 1 {
		t.Errorf("expected 1 live entry, got %d", n)
	}
}

func TestMemoryStore_EvictsOldestWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxEntries(2))

	for _, id := range []string{"a", "b"} {
		if err := store.Put(ctx, id, sampleResult(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Rewriting "a" makes "b" the oldest write.
	if err := store.Put(ctx, "a", sampleResult(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put(ctx, "c", sampleResult(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected b to be evicted, got %v", err)
	}
	for _, id := range []string{"a", "c"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Errorf("expected %s to survive, got %v", id, err)
		}
	}
}

func TestMemoryStore_Janitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemoryStore(WithTTL(10*time.Millisecond), WithSweepInterval(5*time.Millisecond))
	store.Start(ctx)
	defer store.Close()

	if err := store.Put(ctx, "s1", sampleResult(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		n := len(store.byID)
		store.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("janitor did not remove the expired entry")
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	store.Start(context.Background())

	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxEntries(50))

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				id := fmt.Sprintf("w%d-%d", w, i%60)
				_ = store.Put(ctx, id, sampleResult(i))
				_, _ = store.Get(ctx, id)
			}
		}()
	}
	wg.Wait()

	if n := store.Len(ctx); n > 50 {
		t.Errorf("expected at most 50 entries, got %d", n)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()

	if err := store.Put(ctx, "s1", sampleResult(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

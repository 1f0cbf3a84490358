package repository

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/hairhealth/pkg/metrics"
)

// Defaults for a new MemoryStore.
const (
	DefaultTTL           = 30 * time.Minute
	DefaultMaxEntries    = 10000
	DefaultSweepInterval = time.Minute
)

type entry struct {
	id      string
	result  SessionResult
	expires time.Time
}

// MemoryStore is an in-process Store with per-entry TTL and a size bound.
// Entries are kept in write order so eviction drops the oldest write.
type MemoryStore struct {
	mu    sync.Mutex
	byID  map[string]*list.Element
	order *list.List // front is the oldest write

	ttl           time.Duration
	maxEntries    int
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store. Call Start to run the expiry janitor.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:          make(map[string]*list.Element),
		order:         list.New(),
		ttl:           DefaultTTL,
		maxEntries:    DefaultMaxEntries,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the janitor until ctx is done or Close is called.
func (s *MemoryStore) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Close stops the janitor and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, id string, r SessionResult) error {
	if id == "" {
		return ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.Tips = slices.Clone(r.Tips)

	s.mu.Lock()
	if el, ok := s.byID[id]; ok {
		s.order.Remove(el)
	}
	s.byID[id] = s.order.PushBack(&entry{id: id, result: r, expires: now.Add(s.ttl)})
	for s.order.Len() > s.maxEntries {
		s.removeLocked(s.order.Front())
	}
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (SessionResult, error) {
	if err := ctx.Err(); err != nil {
		return SessionResult{}, err
	}
	s.mu.Lock()
	el, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return SessionResult{}, ErrNotFound
	}
	e := el.Value.(*entry)
	if !s.now().Before(e.expires) {
		s.removeLocked(el)
		n := len(s.byID)
		s.mu.Unlock()

		metrics.UpdateActiveSessions(n)
		return SessionResult{}, ErrExpired
	}
	r := e.result
	r.Tips = slices.Clone(r.Tips)
	s.mu.Unlock()
	return r, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if el, ok := s.byID[id]; ok {
		s.removeLocked(el)
	}
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	return nil
}

// Len implements Store.Len. Expired entries not yet swept are excluded.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, el := range s.byID {
		if now.Before(el.Value.(*entry).expires) {
			n++
		}
	}
	return n
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if !now.Before(el.Value.(*entry).expires) {
			s.removeLocked(el)
			removed++
		}
		el = next
	}
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	return removed
}

func (s *MemoryStore) removeLocked(el *list.Element) {
	s.order.Remove(el)
	delete(s.byID, el.Value.(*entry).id)
}

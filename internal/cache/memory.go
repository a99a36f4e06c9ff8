package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryStore implementa Store con un map en memoria. La capacidad queda
// naturalmente acotada (tenants × recursos × pocos params); MaxEntries es
// solo un tope defensivo.
type memoryStore struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	max     int
	nowFunc func() time.Time
}

type memoryEntry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

// NewMemory crea un Store en memoria. max <= 0 significa sin tope.
func NewMemory(max int) *memoryStore {
	return &memoryStore{
		data:    make(map[string]memoryEntry),
		max:     max,
		nowFunc: time.Now,
	}
}

func (s *memoryStore) Get(ctx context.Context, key Key) ([]byte, bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key.String()]
	if !ok {
		return nil, false, false
	}
	stale := s.nowFunc().Sub(e.storedAt) > e.ttl
	// copia: el caller no puede corromper la entrada mutando lo devuelto
	return append([]byte(nil), e.payload...), stale, true
}

func (s *memoryStore) Put(ctx context.Context, key Key, payload []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	if _, exists := s.data[k]; !exists && s.max > 0 && len(s.data) >= s.max {
		s.evictOldestLocked()
	}
	s.data[k] = memoryEntry{
		payload:  append([]byte(nil), payload...),
		storedAt: s.nowFunc(),
		ttl:      ttl,
	}
}

// evictOldestLocked descarta la entrada más vieja. Caller sostiene s.mu.
func (s *memoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range s.data {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, e.storedAt, false
		}
	}
	if oldestKey != "" {
		delete(s.data, oldestKey)
	}
}

func (s *memoryStore) Invalidate(ctx context.Context, key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key.String())
}

func (s *memoryStore) InvalidateTenant(ctx context.Context, tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := tenantID + "/"
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
}

// Len retorna la cantidad de entradas (incluye vencidas). Para status/tests.
func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ Store = (*memoryStore)(nil)

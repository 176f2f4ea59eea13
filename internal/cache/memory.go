package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMemoryEntries = 1024

	// maxMemoryTTL bounds how long any entry survives, whatever ttl it was
	// stored with.
	maxMemoryTTL = 24 * time.Hour
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a bounded in-process cache with per-entry expiry. When full, the
// least recently used entry is evicted.
type Memory struct {
	store *expirable.LRU[string, memoryEntry]
	now   func() time.Time
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	return &Memory{
		store: expirable.NewLRU[string, memoryEntry](maxEntries, nil, maxMemoryTTL),
		now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		m.store.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultAnalyticsTTL
	}
	m.store.Add(key, memoryEntry{value: append([]byte(nil), value...), expires: m.now().Add(ttl)})
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range m.store.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.store.Remove(key)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	return m.store.Len()
}

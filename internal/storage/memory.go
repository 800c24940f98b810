package storage

import (
	"fmt"
	"sync"

	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

// memoryArea is a mutex-guarded in-memory Area.
type memoryArea struct {
	mu    sync.RWMutex
	items map[string]string
}

func newMemoryArea() *memoryArea {
	return &memoryArea{items: make(map[string]string)}
}

func (a *memoryArea) Get(key string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.items[key]
	return v, ok
}

func (a *memoryArea) Set(key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[key] = value
	return nil
}

func (a *memoryArea) Remove(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.items, key)
	return nil
}

func (a *memoryArea) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = make(map[string]string)
	return nil
}

func (a *memoryArea) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

func (a *memoryArea) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.items))
	for k := range a.items {
		keys = append(keys, k)
	}
	return keys
}

// MemoryLocalStore keeps local areas in process memory, one area per
// (zone, partition, origin).
type MemoryLocalStore struct {
	mu    sync.Mutex
	areas map[string]*memoryArea
}

// NewMemoryLocalStore creates an empty in-memory local store.
func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{areas: make(map[string]*memoryArea)}
}

func (s *MemoryLocalStore) Area(zone id.ZoneID, part PartitionKey, origin Origin) (Area, error) {
	key := fmt.Sprintf("%s|%s|%s", zone, part, origin)

	s.mu.Lock()
	defer s.mu.Unlock()
	area, ok := s.areas[key]
	if !ok {
		area = newMemoryArea()
		s.areas[key] = area
	}
	return area, nil
}

// MemorySessionStore keeps session areas in process memory, one per
// (zone, tab, partition, origin), released when the tab closes.
type MemorySessionStore struct {
	mu    sync.Mutex
	areas map[string]*memoryArea
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{areas: make(map[string]*memoryArea)}
}

func (s *MemorySessionStore) Area(zone id.ZoneID, tab id.TabID, part PartitionKey, origin Origin) Area {
	key := sessionKey(zone, tab, part, origin)

	s.mu.Lock()
	defer s.mu.Unlock()
	area, ok := s.areas[key]
	if !ok {
		area = newMemoryArea()
		s.areas[key] = area
	}
	return area
}

func (s *MemorySessionStore) DropTab(zone id.ZoneID, tab id.TabID) {
	prefix := fmt.Sprintf("%s|%s|", zone, tab)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.areas {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.areas, key)
		}
	}
}

func sessionKey(zone id.ZoneID, tab id.TabID, part PartitionKey, origin Origin) string {
	return fmt.Sprintf("%s|%s|%s|%s", zone, tab, part, origin)
}

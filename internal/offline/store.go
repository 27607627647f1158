package offline

import (
	"errors"
	"net/http"
	"sort"
	"sync"
)

var (
	// ErrStoreNotFound is returned when a named store does not exist in the registry.
	ErrStoreNotFound = errors.New("no cache store with that name")
)

// Snapshot is a whole-entry copy of an HTTP response: status, headers and the
// fully buffered body. Entries are only ever replaced as a unit, never patched.
type Snapshot struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Store is a single named cache store keyed by request identity.
type Store interface {
	Put(key string, snap Snapshot) error
	Get(key string) (Snapshot, bool)
	Keys() []string
}

// Registry manages the named stores available to an interceptor. It mirrors
// the browser CacheStorage contract: open-or-create by name, enumerate names,
// delete by name.
type Registry interface {
	Open(name string) (Store, error)
	Names() ([]string, error)
	Delete(name string) error
}

// MemoryRegistry is a concurrency-safe in-memory Registry.
type MemoryRegistry struct {
	mu     sync.RWMutex
	stores map[string]*memoryStore
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		stores: make(map[string]*memoryStore),
	}
}

// Open returns the store with the given name, creating it if absent.
func (r *MemoryRegistry) Open(name string) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[name]
	if !ok {
		s = &memoryStore{entries: make(map[string]Snapshot)}
		r.stores[name] = s
	}
	return s, nil
}

// Names returns the names of all existing stores, sorted for stable output.
func (r *MemoryRegistry) Names() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named store and all its entries.
func (r *MemoryRegistry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stores[name]; !ok {
		return ErrStoreNotFound
	}
	delete(r.stores, name)
	return nil
}

// memoryStore holds snapshots for one cache name. Reads and writes copy the
// snapshot so callers can never mutate a stored entry in place.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]Snapshot
}

func (s *memoryStore) Put(key string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = cloneSnapshot(snap)
	return nil
}

func (s *memoryStore) Get(key string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	return cloneSnapshot(snap), true
}

func (s *memoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneSnapshot(snap Snapshot) Snapshot {
	out := Snapshot{
		StatusCode: snap.StatusCode,
		Header:     snap.Header.Clone(),
		Body:       make([]byte, len(snap.Body)),
	}
	copy(out.Body, snap.Body)
	return out
}

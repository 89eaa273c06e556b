package artifact

import (
	"context"
	"sync"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
)

type memoryEntry struct {
	artifact da.RouteArtifact
	savedAt  time.Time
}

// MemoryStore keeps at most maxEntries artifacts for ttl, evicting the oldest first.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryStore) Save(ctx context.Context, artifact da.RouteArtifact) error {
	if err := invalidArtifact(artifact); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked()
	if _, ok := m.entries[artifact.ID]; !ok {
		m.order = append(m.order, artifact.ID)
	}
	m.entries[artifact.ID] = memoryEntry{artifact: artifact, savedAt: m.now()}

	for m.maxEntries > 0 && len(m.order) > m.maxEntries {
		delete(m.entries, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (da.RouteArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok || m.expired(e) {
		return da.RouteArtifact{}, notFound(id)
	}
	return e.artifact, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return m.ttl > 0 && !m.now().Before(e.savedAt.Add(m.ttl))
}

// expireLocked drops expired entries from the front, order is insertion order.
func (m *MemoryStore) expireLocked() {
	i := 0
	for ; i < len(m.order); i++ {
		e, ok := m.entries[m.order[i]]
		if ok && !m.expired(e) {
			break
		}
		delete(m.entries, m.order[i])
	}
	m.order = m.order[i:]
}

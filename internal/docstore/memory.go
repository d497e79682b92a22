package docstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dukerupert/chorequest/internal/id"
)

var errClosed = errors.New("store closed")

// Memory keeps encoded documents in process memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	closed      bool
	now         func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string][]byte),
		now:         time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, collection, docID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get document", err)
	}
	if err := checkName(collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, unavailable("get document", errClosed)
	}

	data, ok := m.collections[collection][docID]
	if !ok {
		return nil, ErrNotFound
	}
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: docID, Data: doc}, nil
}

func (m *Memory) Set(ctx context.Context, collection, docID string, data Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set document", err)
	}
	if err := checkName(collection); err != nil {
		return err
	}
	encoded, err := merge(nil, data, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable("set document", errClosed)
	}
	m.put(collection, docID, encoded)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, docID string, data Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("update document", err)
	}
	if err := checkName(collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable("update document", errClosed)
	}

	existing, ok := m.collections[collection][docID]
	if !ok {
		return ErrNotFound
	}
	base, err := decode(existing)
	if err != nil {
		return err
	}
	encoded, err := merge(base, data, m.now())
	if err != nil {
		return err
	}
	m.put(collection, docID, encoded)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, docID string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete document", err)
	}
	if err := checkName(collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable("delete document", errClosed)
	}
	delete(m.collections[collection], docID)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("query documents", err)
	}
	if err := checkName(collection); err != nil {
		return nil, err
	}
	if err := checkFilters(filters); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, unavailable("query documents", errClosed)
	}

	var snaps []Snapshot
	for docID, data := range m.collections[collection] {
		doc, err := decode(data)
		if err != nil {
			return nil, err
		}
		ok, err := matches(doc, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			snaps = append(snaps, Snapshot{ID: docID, Data: doc})
		}
	}
	sortSnapshots(snaps)
	return snaps, nil
}

func (m *Memory) Add(ctx context.Context, collection string, data Document) (string, error) {
	docID, err := id.Generate()
	if err != nil {
		return "", err
	}
	if err := m.Set(ctx, collection, docID, data); err != nil {
		return "", err
	}
	return docID, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) put(collection, docID string, data []byte) {
	c, ok := m.collections[collection]
	if !ok {
		c = make(map[string][]byte)
		m.collections[collection] = c
	}
	c[docID] = data
}

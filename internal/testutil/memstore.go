package testutil

import (
	"context"
	"sync"

	"github.com/usermeta/usermeta/internal/docstore"
	"github.com/usermeta/usermeta/internal/model"
)

// MemoryCollection is an in-memory stand-in for the Postgres-backed
// user collection, with the same contract: absent Get is not an error,
// Create conflicts on an existing key, Delete is idempotent. Query
// ignores the SQL text and filters on the partition key argument.
type MemoryCollection struct {
	mu   sync.Mutex
	docs map[string]model.UserRecord
}

// NewMemoryCollection creates an empty MemoryCollection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{docs: make(map[string]model.UserRecord)}
}

func storageKey(id, pk string) string { return id + "|" + pk }

// Create inserts a record, failing with ErrConflict on an existing key.
func (m *MemoryCollection) Create(_ context.Context, item *model.UserRecord, pk string) error {
	if item == nil {
		return docstore.ErrNilItem
	}
	if pk == "" {
		return docstore.ErrEmptyPartitionKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := storageKey(item.ID(), pk)
	if _, exists := m.docs[key]; exists {
		return docstore.ErrConflict
	}
	m.docs[key] = *item
	return nil
}

// Get retrieves a record; absent is found == false with a nil error.
func (m *MemoryCollection) Get(_ context.Context, id, pk string) (model.UserRecord, bool, error) {
	if id == "" {
		return model.UserRecord{}, false, docstore.ErrEmptyID
	}
	if pk == "" {
		return model.UserRecord{}, false, docstore.ErrEmptyPartitionKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, found := m.docs[storageKey(id, pk)]
	return record, found, nil
}

// Query returns all records whose owner matches the first argument.
func (m *MemoryCollection) Query(_ context.Context, query string, args ...any) ([]model.UserRecord, error) {
	if query == "" {
		return nil, docstore.ErrEmptyQuery
	}

	pk, _ := args[0].(string)

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]model.UserRecord, 0)
	for _, record := range m.docs {
		if record.OwnerID == pk {
			results = append(results, record)
		}
	}
	return results, nil
}

// Upsert inserts or replaces a record unconditionally.
func (m *MemoryCollection) Upsert(_ context.Context, id, pk string, item *model.UserRecord) error {
	if id == "" {
		return docstore.ErrEmptyID
	}
	if pk == "" {
		return docstore.ErrEmptyPartitionKey
	}
	if item == nil {
		return docstore.ErrNilItem
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[storageKey(id, pk)] = *item
	return nil
}

// Delete removes a record; deleting an absent record is success.
func (m *MemoryCollection) Delete(_ context.Context, id, pk string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, storageKey(id, pk))
	return nil
}

// Table returns the table name used in query expressions.
func (m *MemoryCollection) Table() string { return "documents" }

// Len reports the number of stored records.
func (m *MemoryCollection) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

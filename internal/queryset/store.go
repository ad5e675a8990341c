package queryset

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/reportengine/internal/database"
)

// Store resolves the base query set of a model.
type Store interface {
	All(ctx context.Context, model *Model) (QuerySet, error)
}

// MemoryStore keeps records per model name.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

// Insert appends records for the named model.
func (s *MemoryStore) Insert(model string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[model] = append(s.records[model], records...)
}

// Models returns the sorted names of models with records.
func (s *MemoryStore) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.records)
}

// All implements Store. The returned query set sees a snapshot of the
// records present at call time.
func (s *MemoryStore) All(_ context.Context, model *Model) (QuerySet, error) {
	if model == nil {
		return nil, fmt.Errorf("queryset: nil model")
	}

	s.mu.RLock()
	records := append([]Record(nil), s.records[model.Name]...)
	s.mu.RUnlock()

	return NewMemory(model, records), nil
}

// TableStore builds Table query sets over a database.
type TableStore struct {
	DB      database.Queryer
	Dialect database.Dialect
}

// All implements Store.
func (s TableStore) All(_ context.Context, model *Model) (QuerySet, error) {
	if model == nil {
		return nil, fmt.Errorf("queryset: nil model")
	}

	if s.DB == nil {
		return nil, fmt.Errorf("queryset: no database configured for model %s", model.Name)
	}

	return NewTable(s.DB, s.Dialect, model), nil
}

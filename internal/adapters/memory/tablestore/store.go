package tablestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// Store is an in-memory implementation of tablestore.Store.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	byName map[tablestore.Name]tablestore.Table
}

func NewStore() *Store {
	return &Store{
		byName: make(map[tablestore.Name]tablestore.Table),
	}
}

func (s *Store) Read(ctx context.Context, name tablestore.Name) (tablestore.Table, error) {
	_ = ctx
	if !name.Valid() {
		return tablestore.Table{}, fmt.Errorf("%w: %q", tablestore.ErrUnknownTable, name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byName[name]
	if !ok {
		return tablestore.Table{}, tablestore.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) Write(ctx context.Context, tables ...tablestore.Table) error {
	_ = ctx
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tables {
		s.byName[t.Name] = t.Clone()
	}
	return nil
}

// Drop removes a table so later reads report it as absent.
func (s *Store) Drop(name tablestore.Name) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byName, name)
}

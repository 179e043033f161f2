package memory

import (
	"context"
	"sort"
	"sync"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

var (
	_ sheets.Table           = (*Store)(nil)
	_ sheets.PartitionLister = (*Store)(nil)
)

// Store keeps partitions in process memory. Rows are copied on the way in and
// out so callers never share maps with the store.
type Store struct {
	mu    sync.Mutex
	parts map[core.PartitionKey][]core.Row

	// ReadErr and WriteErr, when set, are returned by the next calls.
	ReadErr  error
	WriteErr error
}

func New() *Store {
	return &Store{parts: make(map[core.PartitionKey][]core.Row)}
}

// NewSeeded returns a store holding the given partitions.
func NewSeeded(seed map[core.PartitionKey][]core.Row) *Store {
	s := New()
	for k, rows := range seed {
		s.parts[k] = cloneRows(rows)
	}
	return s
}

func (s *Store) ReadTable(_ context.Context, key core.PartitionKey) ([]core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	return cloneRows(s.parts[key]), nil
}

func (s *Store) WriteTable(_ context.Context, key core.PartitionKey, rows []core.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.parts[key] = cloneRows(rows)
	return nil
}

// ListPartitions returns every partition ever written, sorted.
func (s *Store) ListPartitions(_ context.Context) ([]core.PartitionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	out := make([]core.PartitionKey, 0, len(s.parts))
	for k := range s.parts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// SetErrors swaps the injected failures under the store lock.
func (s *Store) SetErrors(read, write error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReadErr = read
	s.WriteErr = write
}

func cloneRows(in []core.Row) []core.Row {
	if in == nil {
		return nil
	}
	out := make([]core.Row, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

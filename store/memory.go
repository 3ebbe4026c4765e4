package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore implements Store in process memory. Runs are copied on save
// and retrieval.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]Run)}
}

// Save stores the run.
func (s *InMemoryStore) Save(_ context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = cloneRun(run)
	return nil
}

// Get retrieves a run by ID.
func (s *InMemoryStore) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	cp := cloneRun(run)
	return &cp, nil
}

// List returns summaries of all stored runs, newest first.
func (s *InMemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, summarize(&run))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

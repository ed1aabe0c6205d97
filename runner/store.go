package runner

// This file contains the run registry. The store is explicitly owned
// (by the runner, and transitively by the serving process) rather than
// living in module-level mutable state.

import (
	"fmt"
	"sync"

	"github.com/e2etap/e2etap/model"
)

// Store holds completed and in-flight runs keyed by run id.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]*model.Run
	order []string
}

// NewStore returns an empty run store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*model.Run)}
}

// Add registers a run. Later Adds with the same id are ignored; run ids
// are unique per process.
func (s *Store) Add(run *model.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
}

// Get returns the run with the given id.
func (s *Store) Get(id string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("unknown run %q (%d runs recorded)", id, len(s.runs))
	}
	return run, nil
}

// Latest returns the most recently added run, or nil when empty.
func (s *Store) Latest() *model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil
	}
	return s.runs[s.order[len(s.order)-1]]
}

// List returns all runs in insertion order.
func (s *Store) List() []*model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Run, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.runs[id])
	}
	return out
}

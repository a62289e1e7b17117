package services

import (
	"sync"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// RunStore is an in-memory registry of completed runs. It keeps the most
// recent maxRuns runs and evicts the oldest first.
type RunStore struct {
	mu      sync.RWMutex
	runs    map[string]*domain.Run
	order   []string // insertion order, oldest first
	maxRuns int
}

// NewRunStore creates a run store; maxRuns < 1 means unbounded
func NewRunStore(maxRuns int) *RunStore {
	return &RunStore{
		runs:    make(map[string]*domain.Run),
		maxRuns: maxRuns,
	}
}

// Add registers a run, replacing any run with the same id
func (s *RunStore) Add(run *domain.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run

	for s.maxRuns > 0 && len(s.order) > s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// Get returns the run with the given id
func (s *RunStore) Get(id string) (*domain.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// List returns run summaries, newest first
func (s *RunStore) List() []domain.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.RunSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		summaries = append(summaries, s.runs[s.order[i]].Summary())
	}
	return summaries
}

// Len returns the number of stored runs
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

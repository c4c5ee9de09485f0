package scheduler

import (
	"sync"
	"time"
)

// MemoryExecutionStore keeps the most recent executions of every job in memory.
type MemoryExecutionStore struct {
	mu         sync.RWMutex
	executions map[string][]JobExecution
	limit      int
}

// NewMemoryExecutionStore keeps at most limit executions per job; a limit of
// zero or less keeps nothing.
func NewMemoryExecutionStore(limit int) *MemoryExecutionStore {
	return &MemoryExecutionStore{
		executions: make(map[string][]JobExecution),
		limit:      limit,
	}
}

// Add records an execution, evicting the oldest one beyond the limit.
func (s *MemoryExecutionStore) Add(execution JobExecution) {
	if s.limit <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.executions[execution.JobID], execution)
	if len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	s.executions[execution.JobID] = list
}

// Update replaces the execution with the same ID.
func (s *MemoryExecutionStore) Update(execution JobExecution) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.executions[execution.JobID]
	for i := range list {
		if list[i].ID == execution.ID {
			list[i] = execution
			return true
		}
	}
	return false
}

// Get returns a copy of the recorded executions of jobID, oldest first.
func (s *MemoryExecutionStore) Get(jobID string) []JobExecution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.executions[jobID]
	out := make([]JobExecution, len(list))
	copy(out, list)
	return out
}

// CleanupBefore drops finished executions that ended before the given time.
// Running executions are kept.
func (s *MemoryExecutionStore) CleanupBefore(before time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for jobID, list := range s.executions {
		filtered := list[:0]
		for _, exec := range list {
			if exec.Status == JobStatusRunning || !exec.EndTime.Before(before) {
				filtered = append(filtered, exec)
			}
		}
		if len(filtered) == 0 {
			delete(s.executions, jobID)
			continue
		}
		s.executions[jobID] = filtered
	}
}

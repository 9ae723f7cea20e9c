// Package runs tracks the lifecycle of research runs.
package runs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status values for a run. Transitions are pending → running → {completed,
// error}; completed and error are terminal.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Run is the lifecycle record for one research run. Only the Registry
// mutates it; callers receive copies.
type Run struct {
	ID         string     `json:"run_id"`
	Status     string     `json:"status"`
	Topic      string     `json:"topic,omitempty"`
	Depth      string     `json:"depth,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Registry is the process-wide store of run records. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

// Create allocates a run ID and stores a pending record.
func (r *Registry) Create(topic, depth string) Run {
	run := &Run{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Topic:     topic,
		Depth:     depth,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()
	return *run
}

// Start transitions a run to running and stamps its start time.
func (r *Registry) Start(id string) error {
	return r.transition(id, func(run *Run) {
		now := time.Now().UTC()
		run.Status = StatusRunning
		run.StartedAt = &now
	})
}

// Finish transitions a run to completed and stamps its finish time.
func (r *Registry) Finish(id string) error {
	return r.transition(id, func(run *Run) {
		now := time.Now().UTC()
		run.Status = StatusCompleted
		run.FinishedAt = &now
	})
}

// Error transitions a run to error with a captured description.
func (r *Registry) Error(id, errMsg string) error {
	return r.transition(id, func(run *Run) {
		now := time.Now().UTC()
		run.Status = StatusError
		run.Error = errMsg
		run.FinishedAt = &now
	})
}

// Get returns a copy of the run record, or false when the ID is unknown.
func (r *Registry) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List returns copies of all known runs, newest-created first.
func (r *Registry) List() []Run {
	r.mu.RLock()
	out := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, *run)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) transition(id string, apply func(*Run)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("runs: unknown run %q", id)
	}
	apply(run)
	return nil
}

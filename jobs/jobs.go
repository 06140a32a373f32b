// Package jobs keeps the in-memory table of asynchronous processing jobs.
// Jobs live in a mutex-guarded map; each job is written exactly once after
// creation, by the pipeline execution bound to it, and evicted by a periodic
// sweep once it goes stale.
package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docingest/ocr-server/pipeline"
)

// Job statuses. A job is in exactly one of these states at any time.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// Job is one asynchronous processing request. Result is set iff status is
// done; Error is set iff status is error.
type Job struct {
	ID        string           `json:"jobId"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Table is the in-memory job store.
type Table struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	retention time.Duration
}

// NewTable creates a Table that evicts jobs whose last update is older than
// retention.
func NewTable(retention time.Duration) *Table {
	return &Table{
		jobs:      make(map[string]*Job),
		retention: retention,
	}
}

// Create inserts a new job in processing state and returns its identifier.
// The id combines a millisecond timestamp with a random suffix so live ids
// never collide.
func (t *Table) Create() string {
	id := fmt.Sprintf("job_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
	now := time.Now()

	t.mu.Lock()
	t.jobs[id] = &Job{
		ID:        id,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.mu.Unlock()

	return id
}

// Complete transitions a processing job to done and attaches the result.
// No-op if the id was already evicted.
func (t *Table) Complete(id string, result *pipeline.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = StatusDone
	job.Result = result
	job.UpdatedAt = time.Now()
}

// Fail transitions a processing job to error and attaches the message.
// No-op if the id was already evicted.
func (t *Table) Fail(id, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = StatusError
	job.Error = message
	job.UpdatedAt = time.Now()
}

// Lookup returns a snapshot of the job's current state.
func (t *Table) Lookup(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// StartSweeper runs the retention sweep on the given interval until stop is
// closed.
func (t *Table) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.sweep(time.Now())
			case <-stop:
				return
			}
		}
	}()
}

// sweep removes every job whose last update is older than the retention
// window, regardless of status. A stuck processing job is reclaimed too; its
// result becomes unrecoverable, which bounds memory.
func (t *Table) sweep(now time.Time) {
	cutoff := now.Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, job := range t.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(t.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("Job sweep removed %d stale job(s), %d remaining", removed, len(t.jobs))
	}
}

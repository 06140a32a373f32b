package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docingest/ocr-server/pipeline"
)

func TestCreateAndLookup(t *testing.T) {
	table := NewTable(time.Hour)

	id := table.Create()
	assert.NotEmpty(t, id)

	job, ok := table.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Nil(t, job.Result)
	assert.Empty(t, job.Error)
	assert.False(t, job.CreatedAt.IsZero())
	assert.False(t, job.UpdatedAt.Before(job.CreatedAt))
}

func TestCompleteAttachesExactResult(t *testing.T) {
	table := NewTable(time.Hour)
	id := table.Create()

	result := &pipeline.Result{
		Success:    true,
		Text:       "hello",
		TotalPages: 1,
		Pages:      []pipeline.PageResult{{PageNumber: 1, Text: "hello", TextLength: 5}},
	}
	table.Complete(id, result)

	job, ok := table.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, StatusDone, job.Status)
	assert.Same(t, result, job.Result)
	assert.Empty(t, job.Error)
}

func TestFail(t *testing.T) {
	table := NewTable(time.Hour)
	id := table.Create()

	table.Fail(id, "conversion failed")

	job, ok := table.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, StatusError, job.Status)
	assert.Equal(t, "conversion failed", job.Error)
	assert.Nil(t, job.Result)
}

func TestCompleteAndFailAreNoOpsOnUnknownID(t *testing.T) {
	table := NewTable(time.Hour)

	table.Complete("job_missing", &pipeline.Result{})
	table.Fail("job_missing", "nope")

	_, ok := table.Lookup("job_missing")
	assert.False(t, ok)
}

func TestIDsDoNotCollide(t *testing.T) {
	table := NewTable(time.Hour)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := table.Create()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSweepRemovesStaleJobsOnly(t *testing.T) {
	table := NewTable(time.Hour)

	stale := table.Create()
	staleDone := table.Create()
	table.Complete(staleDone, &pipeline.Result{Success: true})
	fresh := table.Create()

	// Age the first two past the retention window.
	table.mu.Lock()
	table.jobs[stale].UpdatedAt = time.Now().Add(-2 * time.Hour)
	table.jobs[staleDone].UpdatedAt = time.Now().Add(-90 * time.Minute)
	table.mu.Unlock()

	table.sweep(time.Now())

	_, ok := table.Lookup(stale)
	assert.False(t, ok, "stale processing job must be evicted")
	_, ok = table.Lookup(staleDone)
	assert.False(t, ok, "stale done job must be evicted")
	_, ok = table.Lookup(fresh)
	assert.True(t, ok, "fresh job must survive the sweep")
}

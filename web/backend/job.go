package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Another0Noob/title-dedupe/internal/match"
)

// ProgressUpdate represents a status update during processing
type ProgressUpdate struct {
	Type    string `json:"type"` // "info", "progress", "error", "complete"
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobComplete  JobState = "complete"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Job is one uploaded record set waiting for, or done with, matching.
// Progress is closed by the worker once the job has finished.
type Job struct {
	ID        string
	Records   []match.Record
	Options   match.Options
	Progress  chan ProgressUpdate
	Ctx       context.Context
	CancelFn  context.CancelFunc
	CreatedAt time.Time

	mu     sync.Mutex
	state  JobState
	groups []match.Group
	err    error
}

func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Result returns the groups of a complete job or the error of a failed one.
func (j *Job) Result() (JobState, []match.Group, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, j.groups, j.err
}

// start moves a queued job to running. It fails if the job was cancelled.
func (j *Job) start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != JobQueued {
		return false
	}
	j.state = JobRunning
	return true
}

// cancel stops a job that has not started yet.
func (j *Job) cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != JobQueued {
		return false
	}
	j.state = JobCancelled
	j.err = context.Canceled
	j.CancelFn()
	return true
}

func (j *Job) finish(groups []match.Group, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case err == nil:
		j.state = JobComplete
		j.groups = groups
	case errors.Is(err, context.Canceled):
		j.state = JobCancelled
		j.err = err
	default:
		j.state = JobFailed
		j.err = err
	}
}

// send delivers an update without blocking the worker.
func (j *Job) send(typ, msg string, data any) {
	select {
	case j.Progress <- ProgressUpdate{Type: typ, Message: msg, Data: data}:
	default:
		// Channel full, skip this update
	}
}

// JobManager tracks jobs by id
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
	}
}

// Create registers a queued job. timeout bounds how long it may wait in
// the queue before it is dropped.
func (jm *JobManager) Create(parent context.Context, records []match.Record, opts match.Options, timeout time.Duration) *Job {
	ctx, cancel := context.WithTimeout(parent, timeout)
	job := &Job{
		ID:        uuid.New().String(),
		Records:   records,
		Options:   opts,
		Progress:  make(chan ProgressUpdate, 16),
		Ctx:       ctx,
		CancelFn:  cancel,
		CreatedAt: time.Now(),
		state:     JobQueued,
	}

	jm.mu.Lock()
	jm.jobs[job.ID] = job
	jm.mu.Unlock()
	return job
}

func (jm *JobManager) Get(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	job, ok := jm.jobs[id]
	return job, ok
}

func (jm *JobManager) Remove(id string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if job, ok := jm.jobs[id]; ok {
		job.CancelFn()
		delete(jm.jobs, id)
	}
}

// CleanupStale removes jobs older than maxAge
func (jm *JobManager) CleanupStale(maxAge time.Duration) int {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, job := range jm.jobs {
		if now.Sub(job.CreatedAt) > maxAge {
			job.CancelFn()
			delete(jm.jobs, id)
			removed++
		}
	}
	return removed
}

func (jm *JobManager) Len() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return len(jm.jobs)
}

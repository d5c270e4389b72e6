package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Another0Noob/title-dedupe/internal/match"
)

func TestJobLifecycle(t *testing.T) {
	jm := NewJobManager()
	job := jm.Create(context.Background(), nil, match.DefaultOptions(), time.Minute)

	assert.Equal(t, JobQueued, job.State())
	require.True(t, job.start())
	assert.False(t, job.start())
	assert.False(t, job.cancel())

	groups := []match.Group{{Canonical: match.Record{ID: "1"}}}
	job.finish(groups, nil)
	state, got, err := job.Result()
	assert.Equal(t, JobComplete, state)
	assert.Equal(t, groups, got)
	assert.NoError(t, err)
}

func TestJobFinishFailed(t *testing.T) {
	job := NewJobManager().Create(context.Background(), nil, match.DefaultOptions(), time.Minute)
	boom := errors.New("boom")
	job.finish(nil, boom)

	state, _, err := job.Result()
	assert.Equal(t, JobFailed, state)
	assert.ErrorIs(t, err, boom)
}

func TestJobSendDoesNotBlock(t *testing.T) {
	job := NewJobManager().Create(context.Background(), nil, match.DefaultOptions(), time.Minute)
	for range cap(job.Progress) + 5 {
		job.send("info", "tick", nil)
	}
	assert.Len(t, job.Progress, cap(job.Progress))
}

func TestJobManager(t *testing.T) {
	jm := NewJobManager()
	a := jm.Create(context.Background(), nil, match.DefaultOptions(), time.Minute)
	b := jm.Create(context.Background(), nil, match.DefaultOptions(), time.Minute)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, jm.Len())

	got, ok := jm.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	jm.Remove(a.ID)
	_, ok = jm.Get(a.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, a.Ctx.Err(), context.Canceled)

	b.CreatedAt = time.Now().Add(-2 * time.Hour)
	assert.Equal(t, 1, jm.CleanupStale(time.Hour))
	assert.Equal(t, 0, jm.Len())
}

package jobs

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/strata/internal/export"
)

func TestJobStore_CreateGetRoundTrip(t *testing.T) {
	store := NewJobStore()

	job := Job{
		ID:     "job-1",
		Repo:   "/repo/acme",
		Status: JobStatus{State: JobStateSubmitted},
		Params: ScanParams{Workers: 4, Persist: true},
	}

	require.NoError(t, store.Create(job))

	got, err := store.Get("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Repo, got.Repo)
	assert.Equal(t, JobStateSubmitted, got.Status.State)
	assert.Equal(t, 4, got.Params.Workers)
}

func TestJobStore_DuplicateCreateReturnsError(t *testing.T) {
	store := NewJobStore()

	job := Job{ID: "dup-1", Repo: "/repo"}
	require.NoError(t, store.Create(job))

	err := store.Create(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestJobStore_GetNonExistentReturnsError(t *testing.T) {
	store := NewJobStore()

	got, err := store.Get("does-not-exist")
	require.ErrorIs(t, err, ErrJobNotFound)
	assert.Nil(t, got)
}

func TestJobStore_GetReturnsDeepCopy(t *testing.T) {
	store := NewJobStore()

	job := Job{
		ID:     "deep-1",
		Repo:   "/repo",
		Status: JobStatus{State: JobStateCompleted},
		Params: ScanParams{IgnoreDirs: []string{"generated"}},
		Report: &export.ScanReport{Repo: "/repo"},
	}
	require.NoError(t, store.Create(job))

	got, err := store.Get("deep-1")
	require.NoError(t, err)

	got.Params.IgnoreDirs[0] = "mutated"
	got.Report.Repo = "mutated"

	again, err := store.Get("deep-1")
	require.NoError(t, err)
	assert.Equal(t, "generated", again.Params.IgnoreDirs[0])
	assert.Equal(t, "/repo", again.Report.Repo)
}

func TestJobStore_UpdateInPlace(t *testing.T) {
	store := NewJobStore()
	require.NoError(t, store.Create(Job{ID: "u-1", Status: JobStatus{State: JobStateSubmitted}}))

	require.NoError(t, store.Update("u-1", func(j *Job) {
		j.Status.State = JobStateWorking
	}))

	got, err := store.Get("u-1")
	require.NoError(t, err)
	assert.Equal(t, JobStateWorking, got.Status.State)
}

func TestJobStore_UpdateMissingReturnsError(t *testing.T) {
	store := NewJobStore()
	err := store.Update("nope", func(j *Job) {})
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStore_ListFiltersByState(t *testing.T) {
	store := NewJobStore()
	for i, state := range []JobState{JobStateCompleted, JobStateWorking, JobStateCompleted} {
		require.NoError(t, store.Create(Job{
			ID:     fmt.Sprintf("job-%d", i),
			Status: JobStatus{State: state},
		}))
	}

	resp, err := store.List(ListJobsRequest{State: "completed"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalSize)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, "job-0", resp.Jobs[0].ID)
	assert.Equal(t, "job-2", resp.Jobs[1].ID)
}

func TestJobStore_ListPagination(t *testing.T) {
	store := NewJobStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(Job{ID: fmt.Sprintf("job-%d", i)}))
	}

	page1, err := store.List(ListJobsRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page1.Jobs, 2)
	assert.Equal(t, 5, page1.TotalSize)
	assert.Equal(t, "job-1", page1.NextPageToken)

	page2, err := store.List(ListJobsRequest{PageSize: 2, PageToken: page1.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page2.Jobs, 2)
	assert.Equal(t, "job-2", page2.Jobs[0].ID)
	assert.Equal(t, "job-3", page2.NextPageToken)

	page3, err := store.List(ListJobsRequest{PageSize: 2, PageToken: page2.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page3.Jobs, 1)
	assert.Empty(t, page3.NextPageToken)
}

func TestJobStore_ListInvalidPageToken(t *testing.T) {
	store := NewJobStore()
	_, err := store.List(ListJobsRequest{PageToken: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page token")
}

func TestJobStore_ConcurrentAccess(t *testing.T) {
	store := NewJobStore()
	require.NoError(t, store.Create(Job{ID: "c-1", Status: JobStatus{State: JobStateSubmitted}}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Update("c-1", func(j *Job) { j.Status.State = JobStateWorking })
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Get("c-1")
		}()
	}
	wg.Wait()

	got, err := store.Get("c-1")
	require.NoError(t, err)
	assert.Equal(t, JobStateWorking, got.Status.State)
}

func TestJobStateIsTerminal(t *testing.T) {
	terminal := []JobState{JobStateCompleted, JobStateFailed, JobStateCanceled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range []JobState{JobStateSubmitted, JobStateWorking} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestNewJobIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewJobID()
		assert.Len(t, id, 36)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

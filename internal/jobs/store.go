package jobs

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NewJobID generates a UUID v4 job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// JobStore is a concurrency-safe in-memory store for job tracking. Jobs live
// in a map keyed by ID with a separate slice maintaining insertion order for
// deterministic pagination.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	orderIDs []string // insertion-order job IDs
}

// NewJobStore returns an initialized JobStore ready for use.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:     make(map[string]*Job),
		orderIDs: make([]string, 0),
	}
}

// Create stores a new job. It returns an error if a job with the same ID
// already exists.
func (s *JobStore) Create(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("jobs: job %q already exists", job.ID)
	}
	s.jobs[job.ID] = &job
	s.orderIDs = append(s.orderIDs, job.ID)
	return nil
}

// Get returns a deep copy of the job with the given ID. The returned copy is
// safe to mutate without affecting the store.
func (s *JobStore) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}
	return deepCopyJob(j), nil
}

// Update applies the mutation function fn to the job identified by id under
// a write lock. The function receives the stored job pointer, so mutations
// apply in place.
func (s *JobStore) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}
	fn(j)
	return nil
}

// List returns jobs matching the filter criteria with pagination support.
//
// Filtering: if State is non-empty, only jobs whose current state matches are
// included.
//
// Pagination: PageToken is the ID of the last job from the previous page;
// results start after that job in insertion order. PageSize <= 0 means return
// all matching jobs.
func (s *JobStore) List(filter ListJobsRequest) (*ListJobsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := 0
	if filter.PageToken != "" {
		found := false
		for i, id := range s.orderIDs {
			if id == filter.PageToken {
				startIdx = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("jobs: invalid page token %q", filter.PageToken)
		}
	}

	var matched []Job
	for i := startIdx; i < len(s.orderIDs); i++ {
		j := s.jobs[s.orderIDs[i]]
		if !matchesFilter(j, filter) {
			continue
		}
		matched = append(matched, *deepCopyJob(j))
	}

	// Matches before startIdx still count toward the total size.
	totalBefore := 0
	for i := 0; i < startIdx; i++ {
		if matchesFilter(s.jobs[s.orderIDs[i]], filter) {
			totalBefore++
		}
	}
	totalSize := totalBefore + len(matched)

	var nextPageToken string
	if filter.PageSize > 0 && len(matched) > filter.PageSize {
		nextPageToken = matched[filter.PageSize-1].ID
		matched = matched[:filter.PageSize]
	}

	if matched == nil {
		matched = []Job{}
	}

	return &ListJobsResponse{
		Jobs:          matched,
		TotalSize:     totalSize,
		NextPageToken: nextPageToken,
	}, nil
}

func matchesFilter(j *Job, filter ListJobsRequest) bool {
	return filter.State == "" || string(j.Status.State) == filter.State
}

// deepCopyJob returns a new Job that shares no mutable state with src. The
// report is the one structure with interior slices worth isolating.
func deepCopyJob(src *Job) *Job {
	dst := *src

	if src.Params.IgnoreDirs != nil {
		dst.Params.IgnoreDirs = make([]string, len(src.Params.IgnoreDirs))
		copy(dst.Params.IgnoreDirs, src.Params.IgnoreDirs)
	}

	if src.Report != nil {
		r := *src.Report
		r.Clusters = append(r.Clusters[:0:0], src.Report.Clusters...)
		r.Matches = append(r.Matches[:0:0], src.Report.Matches...)
		r.Orphaned = append(r.Orphaned[:0:0], src.Report.Orphaned...)
		dst.Report = &r
	}

	return &dst
}

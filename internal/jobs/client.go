package jobs

import "context"

// Client is the interface for talking to a scan service.
type Client interface {
	// SubmitScan submits a repository scan and returns the job snapshot.
	SubmitScan(ctx context.Context, endpoint string, req SubmitScanRequest) (*Job, error)

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, endpoint string, req GetJobRequest) (*Job, error)

	// ListJobs queries jobs with filtering and pagination.
	ListJobs(ctx context.Context, endpoint string, req ListJobsRequest) (*ListJobsResponse, error)

	// CancelJob cancels a running job.
	CancelJob(ctx context.Context, endpoint string, req CancelJobRequest) (*Job, error)

	// StreamJob opens an SSE stream of job events.
	StreamJob(ctx context.Context, endpoint string, jobID string) (<-chan StreamEvent, error)

	// Discover fetches the service card from the well-known URI.
	Discover(ctx context.Context, baseURL string) (*ServiceCard, error)
}

package jobs

import (
	"context"
	"net/http"
)

// Handler processes incoming scan-service requests.
type Handler interface {
	// HandleSubmitScan starts a scan job and returns its initial snapshot.
	HandleSubmitScan(ctx context.Context, req SubmitScanRequest) (*Job, error)

	// HandleGetJob returns the current state of a job.
	HandleGetJob(ctx context.Context, req GetJobRequest) (*Job, error)

	// HandleListJobs returns jobs matching the filter.
	HandleListJobs(ctx context.Context, req ListJobsRequest) (*ListJobsResponse, error)

	// HandleCancelJob cancels a running job.
	HandleCancelJob(ctx context.Context, req CancelJobRequest) (*Job, error)

	// Subscribe opens an event stream for a job.
	Subscribe(ctx context.Context, id string) (<-chan StreamEvent, error)
}

// Server exposes a Handler over HTTP as JSON-RPC plus SSE.
type Server struct {
	card    ServiceCard
	handler Handler
	http    *http.Server
}

// NewServer creates a scan-service server.
func NewServer(card ServiceCard, handler Handler) *Server {
	return &Server{
		card:    card,
		handler: handler,
	}
}

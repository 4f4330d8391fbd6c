// Package jobs runs repository scans as trackable background jobs behind a
// JSON-RPC 2.0 HTTP service with SSE progress streaming.
package jobs

import (
	"errors"
	"time"

	"github.com/dusk-indust/strata/internal/export"
)

// Sentinel errors callers and the RPC layer branch on.
var (
	ErrJobNotFound      = errors.New("jobs: job not found")
	ErrJobNotCancelable = errors.New("jobs: job not cancelable")
)

// JobState represents the lifecycle state of a scan job.
type JobState string

const (
	JobStateSubmitted JobState = "submitted"
	JobStateWorking   JobState = "working"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
	JobStateCanceled  JobState = "canceled"
)

// IsTerminal returns true if the job state is a final state.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateCanceled:
		return true
	}
	return false
}

// JobStatus tracks the current state and when it changed.
type JobStatus struct {
	State     JobState  `json:"state"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanParams are the scan options a submitter can set over the wire.
type ScanParams struct {
	IgnoreDirs []string `json:"ignoreDirs,omitempty"`
	Workers    int      `json:"workers,omitempty"`
	MaxDepth   int      `json:"maxDepth,omitempty"`
	MinFiles   int      `json:"minFiles,omitempty"`
	MinOverlap float64  `json:"minOverlap,omitempty"`
	Persist    bool     `json:"persist,omitempty"`
}

// Job is one tracked scan invocation.
type Job struct {
	ID     string     `json:"id"`
	Repo   string     `json:"repo"`
	Status JobStatus  `json:"status"`
	Params ScanParams `json:"params"`
	// Report is set once the job completes.
	Report *export.ScanReport `json:"report,omitempty"`
}

// --- Service Card ---

// ServiceCard is the self-describing manifest served at the well-known URI.
type ServiceCard struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Version      string              `json:"version"`
	Endpoint     string              `json:"endpoint"`
	Methods      []string            `json:"methods"`
	Capabilities ServiceCapabilities `json:"capabilities"`
}

// ServiceCapabilities declares which optional features the service supports.
type ServiceCapabilities struct {
	Streaming bool `json:"streaming"`
}

// DefaultCard returns the service card for one server instance.
func DefaultCard(version, endpoint string) ServiceCard {
	return ServiceCard{
		Name:        "strata",
		Description: "dependency graph scan service",
		Version:     version,
		Endpoint:    endpoint,
		Methods: []string{
			MethodSubmitScan, MethodGetJob, MethodListJobs,
			MethodCancelJob, MethodStreamJob,
		},
		Capabilities: ServiceCapabilities{Streaming: true},
	}
}

// --- Request / Response Types ---

// SubmitScanRequest starts a scan of the repository at Repo.
type SubmitScanRequest struct {
	Repo   string     `json:"repo"`
	Params ScanParams `json:"params"`
}

// GetJobRequest retrieves a job by ID.
type GetJobRequest struct {
	ID string `json:"id"`
}

// ListJobsRequest queries jobs with filtering and pagination.
type ListJobsRequest struct {
	State     string `json:"state,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

// ListJobsResponse is the paginated response for ListJobs.
type ListJobsResponse struct {
	Jobs          []Job  `json:"jobs"`
	TotalSize     int    `json:"totalSize"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// CancelJobRequest cancels a running job.
type CancelJobRequest struct {
	ID string `json:"id"`
}

// StreamJobRequest subscribes to a job's event stream.
type StreamJobRequest struct {
	ID string `json:"id"`
}

// --- Streaming Types ---

// ProgressUpdate is one pipeline phase transition of a running job.
type ProgressUpdate struct {
	Phase   string `json:"phase"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StreamEvent is a typed event delivered over an SSE subscription.
// Exactly one of Job or Progress is set; a Job event carrying a terminal
// state is the last event of a stream.
type StreamEvent struct {
	Job      *Job            `json:"job,omitempty"`
	Progress *ProgressUpdate `json:"progress,omitempty"`

	// Err is set if the stream itself encountered an error.
	Err error `json:"-"`
}

package jobs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/export"
	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/scan"
)

// Compile-time interface check.
var _ Handler = (*Runner)(nil)

// Runner executes scan jobs as background goroutines and implements the
// service Handler. Each running job holds a context cancel func for
// cancellation and a subscriber list for progress streaming.
type Runner struct {
	store  *JobStore
	parser extract.Parser

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	subs    map[string][]chan StreamEvent
}

// NewRunner creates a Runner backed by the given store. parser is shared
// across jobs; TreeSitterParser is safe for that.
func NewRunner(store *JobStore, parser extract.Parser) *Runner {
	return &Runner{
		store:   store,
		parser:  parser,
		cancels: make(map[string]context.CancelFunc),
		subs:    make(map[string][]chan StreamEvent),
	}
}

// HandleSubmitScan validates the request, records a submitted job, and starts
// the scan in the background. The returned job snapshot is in the submitted
// state; poll or stream for progress.
func (r *Runner) HandleSubmitScan(ctx context.Context, req SubmitScanRequest) (*Job, error) {
	if req.Repo == "" {
		return nil, fmt.Errorf("jobs: repo is required")
	}
	info, err := os.Stat(req.Repo)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("jobs: repo %q is not a directory", req.Repo)
	}

	job := Job{
		ID:     NewJobID(),
		Repo:   req.Repo,
		Params: req.Params,
		Status: JobStatus{State: JobStateSubmitted, Timestamp: time.Now().UTC()},
	}
	if err := r.store.Create(job); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	go r.run(runCtx, job.ID, req)

	return r.store.Get(job.ID)
}

// HandleGetJob returns the current state of a job.
func (r *Runner) HandleGetJob(_ context.Context, req GetJobRequest) (*Job, error) {
	return r.store.Get(req.ID)
}

// HandleListJobs returns jobs matching the filter.
func (r *Runner) HandleListJobs(_ context.Context, req ListJobsRequest) (*ListJobsResponse, error) {
	return r.store.List(req)
}

// HandleCancelJob cancels a running job. Jobs already in a terminal state are
// not cancelable.
func (r *Runner) HandleCancelJob(_ context.Context, req CancelJobRequest) (*Job, error) {
	job, err := r.store.Get(req.ID)
	if err != nil {
		return nil, err
	}
	if job.Status.State.IsTerminal() {
		return nil, fmt.Errorf("%w: %q is %s", ErrJobNotCancelable, req.ID, job.Status.State)
	}

	r.mu.Lock()
	cancel := r.cancels[req.ID]
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return job, nil
}

// Subscribe registers a stream of events for a job. For a job already in a
// terminal state, the stream carries the final job snapshot and closes. The
// channel closes when the job finishes.
func (r *Runner) Subscribe(_ context.Context, id string) (<-chan StreamEvent, error) {
	job, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent, 64)
	if job.Status.State.IsTerminal() {
		ch <- StreamEvent{Job: job}
		close(ch)
		return ch, nil
	}

	r.mu.Lock()
	r.subs[id] = append(r.subs[id], ch)
	r.mu.Unlock()

	// The job may have finished between the lookup and the registration. If
	// finish already drained the subscriber list our channel is closed; if
	// not, deliver the terminal snapshot ourselves and withdraw the channel
	// so finish never sees it.
	if job, err := r.store.Get(id); err == nil && job.Status.State.IsTerminal() {
		r.mu.Lock()
		channels := r.subs[id]
		for i, c := range channels {
			if c == ch {
				r.subs[id] = append(channels[:i], channels[i+1:]...)
				ch <- StreamEvent{Job: job}
				close(ch)
				break
			}
		}
		r.mu.Unlock()
	}
	return ch, nil
}

// run executes one scan job to completion, forwarding pipeline progress to
// subscribers and recording the final state.
func (r *Runner) run(ctx context.Context, id string, req SubmitScanRequest) {
	defer func() {
		r.mu.Lock()
		delete(r.cancels, id)
		r.mu.Unlock()
	}()

	r.setState(id, JobStateWorking, "")

	reporter := scan.NewProgressReporter()
	var forward sync.WaitGroup
	forward.Add(1)
	go func() {
		defer forward.Done()
		for ev := range reporter.Subscribe() {
			r.broadcast(id, StreamEvent{Progress: &ProgressUpdate{
				Phase:   ev.Phase.String(),
				Status:  string(ev.Status),
				Message: ev.Message,
			}})
		}
	}()

	scanner := scan.NewScanner(req.Repo, r.parser, scanOptions(req.Params), reporter)
	result, err := scanner.Run(ctx)
	reporter.Close()
	forward.Wait()

	switch {
	case ctx.Err() != nil:
		r.setState(id, JobStateCanceled, "scan canceled")
	case err != nil:
		r.setState(id, JobStateFailed, err.Error())
	default:
		report := export.BuildReport(req.Repo, result)
		_ = r.store.Update(id, func(j *Job) {
			j.Report = report
			j.Status = JobStatus{State: JobStateCompleted, Timestamp: time.Now().UTC()}
		})
	}

	r.finish(id)
}

func scanOptions(p ScanParams) scan.Options {
	return scan.Options{
		IgnoreDirs: p.IgnoreDirs,
		Workers:    p.Workers,
		Cluster:    cluster.Options{MaxDepth: p.MaxDepth, MinFiles: p.MinFiles},
		MinOverlap: p.MinOverlap,
		Persist:    p.Persist,
	}
}

func (r *Runner) setState(id string, state JobState, msg string) {
	_ = r.store.Update(id, func(j *Job) {
		j.Status = JobStatus{State: state, Message: msg, Timestamp: time.Now().UTC()}
	})
}

// broadcast delivers an event to every subscriber of a job, dropping it for
// subscribers whose buffer is full.
func (r *Runner) broadcast(id string, ev StreamEvent) {
	r.mu.Lock()
	channels := r.subs[id]
	r.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- ev:
		default:
		}
	}
}

// finish sends the final job snapshot to subscribers and closes their
// channels.
func (r *Runner) finish(id string) {
	job, err := r.store.Get(id)

	r.mu.Lock()
	channels := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()

	for _, ch := range channels {
		if err == nil {
			select {
			case ch <- StreamEvent{Job: job}:
			default:
			}
		}
		close(ch)
	}
}

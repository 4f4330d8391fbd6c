package scan

import "fmt"

// Phase identifies one step of the scan pipeline.
type Phase int

const (
	PhaseWalk Phase = iota
	PhaseDetect
	PhaseParse
	PhaseGraph
	PhaseCluster
	PhaseReconcile
	PhasePersist
)

// String returns the phase's display name.
func (p Phase) String() string {
	switch p {
	case PhaseWalk:
		return "walk"
	case PhaseDetect:
		return "detect"
	case PhaseParse:
		return "parse"
	case PhaseGraph:
		return "graph"
	case PhaseCluster:
		return "cluster"
	case PhaseReconcile:
		return "reconcile"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// ProgressStatus is the state of a phase within a running scan.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is one status change emitted by the pipeline.
type ProgressEvent struct {
	Phase   Phase          `json:"phase"`
	Status  ProgressStatus `json:"status"`
	Message string         `json:"message,omitempty"`
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Phase)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Phase)
	case ProgressComplete:
		if event.Message != "" {
			return fmt.Sprintf("  ✓ %s %s", event.Phase, event.Message)
		}
		return fmt.Sprintf("  ✓ %s complete", event.Phase)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Phase, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Phase)
	}
}

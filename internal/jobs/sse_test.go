package jobs

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriterWritesDataFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewSSEWriter(rec)
	sw.Init()

	require.NoError(t, sw.WriteEvent(StreamEvent{
		Progress: &ProgressUpdate{Phase: "parse", Status: "working"},
	}))
	require.NoError(t, sw.WriteEvent(StreamEvent{
		Job: &Job{ID: "job-1", Status: JobStatus{State: JobStateCompleted}},
	}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, frames, 2)
	assert.Contains(t, frames[0], `"phase":"parse"`)
	assert.Contains(t, frames[1], `"id":"job-1"`)
	for _, f := range frames {
		assert.True(t, strings.HasPrefix(f, "data: "))
	}
}

func TestReadEventsRoundTrip(t *testing.T) {
	raw := "data: {\"progress\":{\"phase\":\"walk\",\"status\":\"complete\"}}\n\n" +
		": heartbeat comment\n" +
		"data: {\"job\":{\"id\":\"job-1\",\"repo\":\"/r\",\"status\":{\"state\":\"completed\",\"timestamp\":\"2026-01-01T00:00:00Z\"},\"params\":{}}}\n\n"

	ch := ReadEvents(context.Background(), io.NopCloser(strings.NewReader(raw)))

	var events []StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}

	require.Len(t, events, 2)
	require.NotNil(t, events[0].Progress)
	assert.Equal(t, "walk", events[0].Progress.Phase)
	require.NotNil(t, events[1].Job)
	assert.Equal(t, JobStateCompleted, events[1].Job.Status.State)
}

func TestReadEventsMultilineData(t *testing.T) {
	// Two data lines in one event concatenate with a newline, which is still
	// valid JSON when the split lands between tokens.
	raw := "data: {\"progress\":\ndata: {\"phase\":\"graph\",\"status\":\"working\"}}\n\n"

	ch := ReadEvents(context.Background(), io.NopCloser(strings.NewReader(raw)))

	events := collect(t, ch)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Progress)
	assert.Equal(t, "graph", events[0].Progress.Phase)
}

func TestReadEventsMalformedJSONSetsErr(t *testing.T) {
	raw := "data: {not json}\n\ndata: {\"progress\":{\"phase\":\"walk\"}}\n\n"

	events := collect(t, ReadEvents(context.Background(), io.NopCloser(strings.NewReader(raw))))
	require.Len(t, events, 2)
	assert.Error(t, events[0].Err)
	assert.NoError(t, events[1].Err)
}

func TestReadEventsTrailingDataWithoutBlankLine(t *testing.T) {
	raw := "data: {\"progress\":{\"phase\":\"persist\",\"status\":\"complete\"}}"

	events := collect(t, ReadEvents(context.Background(), io.NopCloser(strings.NewReader(raw))))
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Progress)
	assert.Equal(t, "persist", events[0].Progress.Phase)
}

func TestReadEventsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()

	ch := ReadEvents(ctx, pr)
	_, err := pw.Write([]byte("data: {\"progress\":{\"phase\":\"walk\"}}\n\n"))
	require.NoError(t, err)

	select {
	case ev := <-ch:
		require.NotNil(t, ev.Progress)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	cancel()
	pw.Close()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func collect(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("timed out collecting events")
		}
	}
}

package jobs

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/strata/internal/graph"
)

// stubParser emits one import edge per `import "<spec>"` line.
type stubParser struct{}

func (stubParser) Parse(_ context.Context, path string, source []byte, lang graph.Language) (*graph.ParsedFile, error) {
	pf := &graph.ParsedFile{Path: path, Language: lang}
	for _, line := range strings.Split(string(source), "\n") {
		if !strings.HasPrefix(line, "import \"") {
			continue
		}
		spec := strings.TrimSuffix(strings.TrimPrefix(line, "import \""), "\"")
		if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
			pf.Imports.Internal = append(pf.Imports.Internal, spec)
		} else {
			pf.Imports.External = append(pf.Imports.External, spec)
		}
	}
	return pf, nil
}

func (stubParser) SupportedLanguages() []graph.Language {
	return []graph.Language{graph.LangTypeScript}
}

func (stubParser) Close() error { return nil }

func fixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/api/server.ts":  "import \"./routes\"\n",
		"src/api/routes.ts":  "import \"../models/user\"\n",
		"src/models/user.ts": "",
		"src/models/role.ts": "import \"./user\"\n",
	}
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func newTestService(t *testing.T) (*httptest.Server, *Runner) {
	t.Helper()
	runner := NewRunner(NewJobStore(), stubParser{})
	srv := NewServer(DefaultCard("test", "http://localhost"), runner)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, runner
}

func waitTerminal(t *testing.T, client Client, endpoint, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := client.GetJob(context.Background(), endpoint, GetJobRequest{ID: id})
		require.NoError(t, err)
		if job.Status.State.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestService_SubmitAndComplete(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()
	repo := fixtureRepo(t)

	job, err := client.SubmitScan(context.Background(), ts.URL, SubmitScanRequest{Repo: repo})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, repo, job.Repo)

	final := waitTerminal(t, client, ts.URL, job.ID)
	require.Equal(t, JobStateCompleted, final.Status.State)
	require.NotNil(t, final.Report)
	assert.Equal(t, 4, final.Report.Stats.TotalFiles)
	assert.Equal(t, 3, final.Report.Stats.TotalDependencies)
	assert.Len(t, final.Report.Clusters, 2)
}

func TestService_SubmitRejectsMissingRepo(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()

	_, err := client.SubmitScan(context.Background(), ts.URL, SubmitScanRequest{Repo: "/does/not/exist"})
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeInternal, rpcErr.Code)
}

func TestService_GetUnknownJob(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()

	_, err := client.GetJob(context.Background(), ts.URL, GetJobRequest{ID: "nope"})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeJobNotFound, rpcErr.Code)
}

func TestService_ListJobs(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()
	repo := fixtureRepo(t)

	first, err := client.SubmitScan(context.Background(), ts.URL, SubmitScanRequest{Repo: repo})
	require.NoError(t, err)
	waitTerminal(t, client, ts.URL, first.ID)

	resp, err := client.ListJobs(context.Background(), ts.URL, ListJobsRequest{State: "completed"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalSize)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, first.ID, resp.Jobs[0].ID)
}

func TestService_CancelTerminalJobFails(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()
	repo := fixtureRepo(t)

	job, err := client.SubmitScan(context.Background(), ts.URL, SubmitScanRequest{Repo: repo})
	require.NoError(t, err)
	waitTerminal(t, client, ts.URL, job.ID)

	_, err = client.CancelJob(context.Background(), ts.URL, CancelJobRequest{ID: job.ID})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeJobNotCancelable, rpcErr.Code)
}

func TestService_StreamDeliversTerminalJob(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()
	repo := fixtureRepo(t)

	job, err := client.SubmitScan(context.Background(), ts.URL, SubmitScanRequest{Repo: repo})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events, err := client.StreamJob(ctx, ts.URL, job.ID)
	require.NoError(t, err)

	var finalJob *Job
	for ev := range events {
		require.NoError(t, ev.Err)
		if ev.Job != nil {
			finalJob = ev.Job
		}
	}

	// The stream may attach after the job already finished; either way the
	// terminal snapshot is the last thing delivered.
	require.NotNil(t, finalJob)
	assert.Equal(t, JobStateCompleted, finalJob.Status.State)
}

func TestService_StreamUnknownJob(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()

	_, err := client.StreamJob(context.Background(), ts.URL, "nope")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeJobNotFound, rpcErr.Code)
}

func TestService_Discover(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()

	card, err := client.Discover(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "strata", card.Name)
	assert.True(t, card.Capabilities.Streaming)
	assert.Contains(t, card.Methods, MethodSubmitScan)
}

func TestService_MethodNotFound(t *testing.T) {
	ts, _ := newTestService(t)
	client := NewHTTPClient()

	err := client.call(context.Background(), ts.URL, "nonsense/method", struct{}{}, nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeMethodNotFound, rpcErr.Code)
}

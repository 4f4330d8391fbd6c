package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient implements the Client interface using HTTP/JSON-RPC.
type HTTPClient struct {
	http      *http.Client
	requestID atomic.Int64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout. Streaming requests override it,
// since an SSE subscription lives as long as its job.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a scan-service HTTP client.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitScan submits a scan via the scan/submit JSON-RPC method.
func (c *HTTPClient) SubmitScan(ctx context.Context, endpoint string, req SubmitScanRequest) (*Job, error) {
	var job Job
	if err := c.call(ctx, endpoint, MethodSubmitScan, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob retrieves a job via the scan/get JSON-RPC method.
func (c *HTTPClient) GetJob(ctx context.Context, endpoint string, req GetJobRequest) (*Job, error) {
	var job Job
	if err := c.call(ctx, endpoint, MethodGetJob, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs queries jobs via the scan/list JSON-RPC method.
func (c *HTTPClient) ListJobs(ctx context.Context, endpoint string, req ListJobsRequest) (*ListJobsResponse, error) {
	var resp ListJobsResponse
	if err := c.call(ctx, endpoint, MethodListJobs, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelJob cancels a job via the scan/cancel JSON-RPC method.
func (c *HTTPClient) CancelJob(ctx context.Context, endpoint string, req CancelJobRequest) (*Job, error) {
	var job Job
	if err := c.call(ctx, endpoint, MethodCancelJob, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// StreamJob opens an SSE stream of job events via scan/stream. The returned
// channel closes when the job reaches a terminal state, the server closes
// the stream, or ctx is cancelled.
func (c *HTTPClient) StreamJob(ctx context.Context, endpoint string, jobID string) (<-chan StreamEvent, error) {
	body, err := c.rpcBody(MethodStreamJob, StreamJobRequest{ID: jobID})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jobs: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	// A stream outlives any sane request timeout.
	streamClient := &http.Client{Transport: c.http.Transport}
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jobs: %s: %w", MethodStreamJob, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jobs: %s: HTTP %d: %s", MethodStreamJob, resp.StatusCode, string(respBody))
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		// The server answered with a JSON-RPC error instead of a stream.
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		var rpcResp JSONRPCResponse
		if err := json.Unmarshal(respBody, &rpcResp); err == nil && rpcResp.Error != nil {
			return nil, &RPCError{Method: MethodStreamJob, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message, Data: rpcResp.Error.Data}
		}
		return nil, fmt.Errorf("jobs: %s: unexpected content type %q", MethodStreamJob, ct)
	}

	return ReadEvents(ctx, resp.Body), nil
}

// Discover fetches the service card from the well-known URI.
func (c *HTTPClient) Discover(ctx context.Context, baseURL string) (*ServiceCard, error) {
	url := strings.TrimRight(baseURL, "/") + WellKnownPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("jobs: create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jobs: discover service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jobs: discover service: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var card ServiceCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("jobs: decode service card: %w", err)
	}
	return &card, nil
}

// nextID returns a monotonically increasing request ID for JSON-RPC calls.
func (c *HTTPClient) nextID() int64 {
	return c.requestID.Add(1)
}

// rpcBody marshals a JSON-RPC request envelope.
func (c *HTTPClient) rpcBody(method string, params any) ([]byte, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal params: %w", err)
	}

	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextID(),
		Method:  method,
		Params:  paramsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal request: %w", err)
	}
	return body, nil
}

// call performs a JSON-RPC 2.0 call over HTTP POST.
func (c *HTTPClient) call(ctx context.Context, endpoint, method string, params any, result any) error {
	body, err := c.rpcBody(method, params)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("jobs: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("jobs: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("jobs: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jobs: %s: HTTP %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("jobs: decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("jobs: decode result: %w", err)
		}
	}

	return nil
}

// RPCError represents a JSON-RPC error returned by the service.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jobs: %s: rpc error %d: %s (data: %s)", e.Method, e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("jobs: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

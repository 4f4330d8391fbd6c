package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// WellKnownPath is where the service card is served.
const WellKnownPath = "/.well-known/strata.json"

// Start creates an HTTP server, registers routes, and begins serving.
// It returns immediately after starting the server in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	go s.http.ListenAndServe()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Routes returns the server's handler, usable directly with httptest.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+WellKnownPath, s.handleCard)
	mux.HandleFunc("POST /", s.handleJSONRPC)
	return mux
}

// handleCard serves the service card as JSON at the well-known endpoint.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleJSONRPC processes incoming JSON-RPC 2.0 requests and dispatches them
// to the appropriate handler method. scan/stream switches the response to an
// SSE stream instead of a single JSON body.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeJSONRPCError(w, nil, ErrCodeParse, "Parse error: "+err.Error())
		return
	}

	ctx := r.Context()

	if req.Method == MethodStreamJob {
		s.dispatchStream(ctx, w, &req)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch req.Method {
	case MethodSubmitScan:
		dispatch(ctx, w, &req, s.handler.HandleSubmitScan)
	case MethodGetJob:
		dispatch(ctx, w, &req, s.handler.HandleGetJob)
	case MethodListJobs:
		dispatch(ctx, w, &req, s.handler.HandleListJobs)
	case MethodCancelJob:
		dispatch(ctx, w, &req, s.handler.HandleCancelJob)
	default:
		writeJSONRPCError(w, req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// dispatch unmarshals params, invokes fn, and writes the JSON-RPC response.
func dispatch[P, R any](ctx context.Context, w http.ResponseWriter, req *JSONRPCRequest, fn func(context.Context, P) (R, error)) {
	var params P
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSONRPCError(w, req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
			return
		}
	}

	result, err := fn(ctx, params)
	if err != nil {
		writeJSONRPCError(w, req.ID, errorCode(err), err.Error())
		return
	}

	writeJSONRPCResult(w, req.ID, result)
}

// dispatchStream subscribes to a job and relays its events as SSE frames
// until the stream closes or the client goes away.
func (s *Server) dispatchStream(ctx context.Context, w http.ResponseWriter, req *JSONRPCRequest) {
	var params StreamJobRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeJSONRPCError(w, req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return
	}

	events, err := s.handler.Subscribe(ctx, params.ID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeJSONRPCError(w, req.ID, errorCode(err), err.Error())
		return
	}

	sw := NewSSEWriter(w)
	sw.Init()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sw.WriteEvent(ev); err != nil {
				return
			}
		}
	}
}

// errorCode maps handler errors to JSON-RPC error codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrJobNotFound):
		return ErrCodeJobNotFound
	case errors.Is(err, ErrJobNotCancelable):
		return ErrCodeJobNotCancelable
	default:
		return ErrCodeInternal
	}
}

// writeJSONRPCResult writes a successful JSON-RPC response.
func writeJSONRPCResult(w http.ResponseWriter, id any, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		writeJSONRPCError(w, id, ErrCodeInternal, "Failed to marshal result: "+err.Error())
		return
	}

	resp := JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  data,
	}

	json.NewEncoder(w).Encode(resp)
}

// writeJSONRPCError writes a JSON-RPC error response.
func writeJSONRPCError(w http.ResponseWriter, id any, code int, message string) {
	resp := JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(resp)
}

// Package rpc exposes the workflow orchestrator over JSON-RPC 2.0 (HTTP
// POST) and provides the dispatcher the CLI reuses in-process, so both
// protocol surfaces share one method table and one error mapping.
package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hupe1980/mortgagemesh/core"
)

// JSON-RPC error codes. The -32000 range carries domain errors.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeNotFound        = -32001
	CodeAlreadyTerminal = -32002
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Error is the wire-level RPC error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

const maxRPCBodyBytes int64 = 1 << 20 // 1 MiB

// invalidParams wraps a decode failure as an invalid-params error.
func invalidParams(err error) *Error {
	return &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
}

// serviceError maps domain errors onto RPC error codes.
func serviceError(err error) *Error {
	var validationErr *core.ValidationError
	if errors.As(err, &validationErr) {
		return &Error{Code: CodeInvalidParams, Message: validationErr.Error(), Data: validationErr.Detail}
	}

	var notFoundErr *core.NotFoundError
	if errors.As(err, &notFoundErr) {
		return &Error{Code: CodeNotFound, Message: notFoundErr.Error()}
	}

	if errors.Is(err, core.ErrAlreadyTerminal) {
		return &Error{Code: CodeAlreadyTerminal, Message: err.Error()}
	}

	return &Error{Code: CodeInternalError, Message: err.Error()}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRPCBodyBytes)
	dec := json.NewDecoder(r.Body)

	var req rpcRequest
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &Error{Code: CodeParseError, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	result, rpcErr := s.dispatcher.Dispatch(r.Context(), req.Method, req.Params)
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: CodeInvalidRequest, Message: "invalid request"},
	})
}

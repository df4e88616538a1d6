package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/vango-dev/batchstore"
	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/loop"
)

type errorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, batchstore.ErrInvalidArgument):
		return http.StatusBadRequest
	case stderrors.Is(err, batchstore.ErrUnknownChannel):
		return http.StatusNotFound
	case stderrors.Is(err, batchstore.ErrIllegalReentrantCall):
		return http.StatusConflict
	case stderrors.Is(err, loop.ErrClosed), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	resp := errorResponse{Error: err.Error()}
	if se, ok := errors.As(err); ok {
		resp.Code = se.Code
	}
	return resp
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}

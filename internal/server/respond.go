package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/store"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}

	var f *llm.Failure
	if errors.As(err, &f) {
		resp.Kind = string(f.Kind)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	respondJSON(w, status, resp)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidEntity), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout
	}

	var f *llm.Failure
	if errors.As(err, &f) {
		switch f.Category() {
		case llm.CategoryContent:
			return http.StatusUnprocessableEntity
		case llm.CategoryConfiguration:
			return http.StatusBadRequest
		case llm.CategoryTransport, llm.CategoryRemote, llm.CategoryParse:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

// decode reads a JSON body into dst and validates it
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request format: %v", errBadRequest, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: validation error: %v", errBadRequest, err)
	}
	return nil
}

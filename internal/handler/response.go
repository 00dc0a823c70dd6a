package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prn-tf/theory-forum/internal/domain"
)

// Error codes returned in the error body.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_FAILED"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnavailable        = "UNAVAILABLE"
)

// APIError is a JSON error response.
type APIError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	HTTPStatusCode int    `json:"-"`
}

type errorBody struct {
	Error APIError `json:"error"`
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// mapError converts a service error into an API error.
func mapError(err error) APIError {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return APIError{Code: CodeValidation, Message: verr.Error(), Field: verr.Field, HTTPStatusCode: http.StatusBadRequest}
	case errors.Is(err, errBadRequest):
		return APIError{Code: CodeBadRequest, Message: err.Error(), HTTPStatusCode: http.StatusBadRequest}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return APIError{Code: CodeInvalidCredentials, Message: "invalid username or secret code", HTTPStatusCode: http.StatusUnauthorized}
	case errors.Is(err, domain.ErrUnauthenticated):
		return APIError{Code: CodeUnauthenticated, Message: "authentication required", HTTPStatusCode: http.StatusUnauthorized}
	case errors.Is(err, domain.ErrForbidden):
		return APIError{Code: CodeForbidden, Message: "only the author may do this", HTTPStatusCode: http.StatusForbidden}
	case errors.Is(err, domain.ErrUnauthorized):
		return APIError{Code: CodeForbidden, Message: err.Error(), HTTPStatusCode: http.StatusForbidden}
	case errors.Is(err, domain.ErrNotFound):
		return APIError{Code: CodeNotFound, Message: err.Error(), HTTPStatusCode: http.StatusNotFound}
	case errors.Is(err, domain.ErrConflict):
		return APIError{Code: CodeConflict, Message: err.Error(), HTTPStatusCode: http.StatusConflict}
	default:
		return APIError{Code: CodeInternal, Message: "internal server error", HTTPStatusCode: http.StatusInternalServerError}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeAPIError(w http.ResponseWriter, apiErr APIError) {
	writeJSON(w, apiErr.HTTPStatusCode, errorBody{Error: apiErr})
}

// writeError maps err and writes it. Internal failures are logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := mapError(err)
	if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeAPIError(w, apiErr)
}

// decodeJSON reads a JSON body of at most maxBodySize bytes into v.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

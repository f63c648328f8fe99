// Package http serves the ledger as a JSON API.
//
// This file implements the Builder Pattern for JSON responses and the
// mapping from ledger errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"weekum/internal/core"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ErrorFor maps a ledger error to its response: validation 422, unknown
// ids 404, unconfirmed destructive requests 400, storage failures 503.
func ErrorFor(err error) *ResponseBuilder {
	var (
		ve *core.ValidationError
		nf *core.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return NewResponse().
			Status(http.StatusUnprocessableEntity).
			JSON(ErrorBody{Error: ve.Error(), Field: ve.Field})
	case errors.As(err, &nf):
		return NotFoundError(nf.Error())
	case errors.Is(err, core.ErrNotConfirmed):
		return BadRequestError(err.Error() + ": pass confirm=true")
	case core.IsPersistence(err):
		// The in-memory change stands; only the write failed.
		return ErrorResponse(http.StatusServiceUnavailable, err.Error())
	default:
		return ErrorResponse(http.StatusInternalServerError, "internal error")
	}
}

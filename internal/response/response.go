// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package response writes the JSON envelope shared by every API endpoint
// and by the middleware that rejects requests before they reach one.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeValidation   = "validation_failed"
	CodeUnauthorized = "unauthorized"
	CodeTwoFactor    = "2fa_required"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeTooLarge     = "payload_too_large"
	CodeUnsupported  = "unsupported_media_type"
	CodeRateLimited  = "rate_limited"
	CodeCSRF         = "csrf_mismatch"
	CodeInternal     = "internal_error"
)

// APIError is the error object in the envelope.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Envelope wraps every JSON response. On success Data is set and Error
// is nil; on failure the reverse.
type Envelope struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: &APIError{Code: code, Message: message}})
}

// Invalid writes a 422 with per-field messages.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusUnprocessableEntity, Envelope{Error: &APIError{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}})
}

// Internal logs err and writes a generic 500. Details never reach the client.
func Internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "method", r.Method, "path", r.URL.Path)
	Error(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP endpoints of kekkon. Handlers are
// grouped by audience (Auth, Invitations, Guests, Public, Admin); each
// group is a struct holding its dependencies, built with a NewX function
// and mounted by the router.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kekkon/internal/middleware"
	"kekkon/internal/preview"
	"kekkon/internal/response"
	"kekkon/internal/session"
)

// maxJSONBody caps request bodies of JSON endpoints.
const maxJSONBody = 1 << 20

// PreviewRenderer produces social preview images. *preview.Compositor
// satisfies it.
type PreviewRenderer interface {
	Render(ctx context.Context, req preview.Request) (*preview.Image, error)
}

// decodeJSON reads a single JSON object into dst. Unknown fields, trailing
// data and oversized bodies are rejected. On failure the error response
// has already been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "request body too large")
			return false
		}
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "malformed JSON body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "body must contain a single JSON object")
		return false
	}
	return true
}

// uuidParam parses a chi URL parameter as a UUID. Malformed IDs are
// answered with 404, the same as IDs that do not exist.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// currentSession returns the session loaded by middleware. Routes using it
// sit behind RequireAuth, so it is never nil there.
func currentSession(r *http.Request) *session.Data {
	return middleware.SessionFromCtx(r.Context())
}

// pageParams reads ?limit= and ?offset=, clamping limit to [1, max].
func pageParams(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, max)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// writeImage sends an encoded image with its caching policy.
func writeImage(w http.ResponseWriter, contentType, cacheControl string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func notFound(w http.ResponseWriter, what string) {
	response.Error(w, http.StatusNotFound, response.CodeNotFound, what+" not found")
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

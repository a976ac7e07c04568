// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"

	"kekkon/internal/response"
)

// Recoverer turns a handler panic into the JSON internal_error envelope and
// logs the panic with its route and stack. http.ErrAbortHandler is passed on
// so net/http can drop the connection quietly.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			slog.Error("handler panic",
				"panic", rec,
				"method", r.Method,
				"route", routePattern(r),
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}

// routePattern is the matched chi pattern ("/api/public/{slug}/og-image"),
// or "" outside a chi router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

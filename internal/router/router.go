// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for kekkon.
// Routes are organized into auth, owner, public and admin groups, each with
// its own middleware stack.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kekkon/internal/handlers"
	"kekkon/internal/metrics"
	"kekkon/internal/middleware"
	"kekkon/internal/session"
	"kekkon/web"
)

// Deps is everything the router mounts.
type Deps struct {
	Sessions    *session.Store
	Auth        *handlers.Auth
	Invitations *handlers.Invitations
	Guests      *handlers.Guests
	Public      *handlers.Public
	Admin       *handlers.Admin

	// AuthLimiter throttles login and registration; RSVPLimiter throttles
	// the public RSVP form. Either may be nil.
	AuthLimiter *middleware.RateLimiter
	RSVPLimiter *middleware.RateLimiter

	// Uploads serves locally stored photos under /uploads/. Nil when the
	// photos live in S3.
	Uploads http.Handler

	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	csrf := middleware.NewCSRF(d.SecureCookies)

	r.Route("/api/auth", func(r chi.Router) {
		// No session yet, so no CSRF token to check.
		r.Group(func(r chi.Router) {
			r.Use(limiter(d.AuthLimiter)...)
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
		})

		// Signed in, possibly still owing the TOTP step.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(csrf)
			r.Get("/me", d.Auth.Me)
			r.Post("/logout", d.Auth.Logout)
			r.Get("/2fa/setup", d.Auth.TwoFASetup)
			r.With(limiter(d.AuthLimiter)...).Post("/2fa/verify", d.Auth.TwoFAVerify)
		})
	})

	// Owner dashboard API.
	r.Route("/api/invitations", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)
		r.Use(csrf)

		r.Get("/", d.Invitations.List)
		r.Post("/", d.Invitations.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", d.Invitations.Get)
			r.Put("/", d.Invitations.Update)
			r.Delete("/", d.Invitations.Delete)
			r.Post("/publish", d.Invitations.Publish)
			r.Post("/unpublish", d.Invitations.Unpublish)
			r.Post("/photos/{slot}", d.Invitations.UploadPhoto)
			r.Get("/preview.png", d.Invitations.Preview)

			r.Route("/guests", func(r chi.Router) {
				r.Get("/", d.Guests.List)
				r.Post("/", d.Guests.Create)
				r.Get("/summary", d.Guests.Summary)
				r.Put("/{guestID}", d.Guests.Update)
				r.Delete("/{guestID}", d.Guests.Delete)
				r.Get("/{guestID}/link", d.Guests.Link)
			})
		})
	})

	// What guests reach through a shared link.
	r.Route("/api/public/{slug}", func(r chi.Router) {
		r.Get("/", d.Public.Invitation)
		r.Get("/messages", d.Public.Messages)
		r.With(limiter(d.RSVPLimiter)...).Post("/rsvp", d.Public.RSVP)
		r.Get("/og-image", d.Public.OGImage)
		r.Get("/qr.png", d.Public.QRCode)
	})
	r.Get("/i/{slug}", d.Public.SharePage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Platform moderation.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)
		r.Use(middleware.RequireAdmin)
		r.Use(csrf)

		r.Get("/stats", d.Admin.Stats)
		r.Get("/users", d.Admin.Users)
		r.Delete("/users/{id}", d.Admin.DeleteUser)
		r.Get("/invitations", d.Admin.Invitations)
		r.Delete("/invitations/{id}", d.Admin.DeleteInvitation)
	})

	if d.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", d.Uploads))
	}

	return r
}

// limiter returns rl as a middleware list, empty when rl is nil.
func limiter(rl *middleware.RateLimiter) []func(http.Handler) http.Handler {
	if rl == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{rl.Middleware}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

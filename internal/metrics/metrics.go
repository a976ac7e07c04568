// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus collectors for HTTP traffic and the
// social preview renderer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render outcomes.
const (
	RenderOK       = "ok"
	RenderCacheHit = "cache_hit"
	RenderError    = "error"
)

var (
	ogRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kekkon_og_renders_total",
			Help: "Preview image requests by outcome",
		},
		[]string{"result"},
	)

	ogRenderSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kekkon_og_render_seconds",
			Help:    "Time spent compositing a preview image",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ogPortraitsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kekkon_og_portraits_skipped_total",
			Help: "Portraits left out of a preview image by reason",
		},
		[]string{"reason"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kekkon_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)
)

// ObserveRender records one preview request. Duration is only observed
// for actual renders.
func ObserveRender(result string, d time.Duration) {
	ogRenders.WithLabelValues(result).Inc()
	if result == RenderOK {
		ogRenderSeconds.Observe(d.Seconds())
	}
}

// PortraitSkipped records a portrait that was not composited.
func PortraitSkipped(reason string) {
	ogPortraitsSkipped.WithLabelValues(reason).Inc()
}

// HTTPRequest records one served request.
func HTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides Valkey-backed byte caches keyed by invitation slug.
// One instance holds rendered share pages, another the encoded preview
// PNGs, so a published invitation is served without touching PostgreSQL
// or re-rendering. Cache failures are logged and treated as misses.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PagePrefix namespaces cached share pages.
	PagePrefix = "page:"

	// ImagePrefix namespaces cached preview images.
	ImagePrefix = "og:"

	// DefaultPageTTL is how long a rendered share page stays cached.
	DefaultPageTTL = 5 * time.Minute

	// DefaultImageTTL is how long a rendered preview image stays cached.
	DefaultImageTTL = 24 * time.Hour
)

// PageCache stores opaque byte payloads in Valkey under a key prefix.
type PageCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPageCache creates the share page cache.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, prefix: PagePrefix, ttl: ttl}
}

// NewImageCache creates the preview image cache.
func NewImageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultImageTTL
	}
	return &PageCache{client: client, prefix: ImagePrefix, ttl: ttl}
}

// Get retrieves the cached payload for a slug. The boolean is false on a miss.
func (pc *PageCache) Get(ctx context.Context, slug string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pc.prefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("cache get error", "key", pc.prefix+slug, "error", err)
		return nil, false
	}
	slog.Debug("cache hit", "key", pc.prefix+slug)
	return val, true
}

// Set stores a payload for a slug with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, slug string, data []byte) {
	if err := pc.client.Set(ctx, pc.prefix+slug, data, pc.ttl).Err(); err != nil {
		slog.Warn("cache set error", "key", pc.prefix+slug, "error", err)
	}
}

// Invalidate removes a single slug from the cache.
func (pc *PageCache) Invalidate(ctx context.Context, slug string) {
	if err := pc.client.Del(ctx, pc.prefix+slug).Err(); err != nil {
		slog.Warn("cache invalidate error", "key", pc.prefix+slug, "error", err)
		return
	}
	slog.Debug("cache invalidated", "key", pc.prefix+slug)
}

// TTL returns the expiry applied by Set.
func (pc *PageCache) TTL() time.Duration {
	return pc.ttl
}

// Invalidator drops every cached representation of an invitation.
type Invalidator struct {
	caches []*PageCache
}

// NewInvalidator groups the caches that hold per-slug data.
func NewInvalidator(caches ...*PageCache) *Invalidator {
	return &Invalidator{caches: caches}
}

// InvalidateInvitation removes the share page and preview image of slug.
// Call it after an edit, a publish state change or a delete.
func (iv *Invalidator) InvalidateInvitation(ctx context.Context, slug string) {
	if iv == nil || slug == "" {
		return
	}
	for _, c := range iv.caches {
		c.Invalidate(ctx, slug)
	}
}

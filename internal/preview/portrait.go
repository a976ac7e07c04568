// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	_ "golang.org/x/image/webp" // register WebP decoder for uploaded portraits

	"kekkon/internal/storage"
)

// Portrait geometry.
const (
	PortraitSize = 180
	ringBox      = 190
	ringRadius   = 93
	ringStroke   = 4
	ringInset    = (ringBox - PortraitSize) / 2
)

// DefaultPortraitTimeout bounds loading and decoding a single portrait.
const DefaultPortraitTimeout = 500 * time.Millisecond

// Slot identifies which side of the canvas a portrait occupies.
type Slot string

const (
	SlotBride Slot = "bride"
	SlotGroom Slot = "groom"
)

// Origin returns the top-left corner of the slot's ring box.
func (s Slot) Origin() image.Point {
	if s == SlotGroom {
		return image.Pt(825, 220)
	}
	return image.Pt(175, 220)
}

// Valid reports whether s names a known slot.
func (s Slot) Valid() bool {
	return s == SlotBride || s == SlotGroom
}

// Per-slot portrait errors. All of them wrap ErrPortraitUnavailable and are
// never fatal to a render.
var (
	ErrPortraitUnavailable = errors.New("portrait unavailable")

	ErrNoPortrait         = fmt.Errorf("%w: no photo reference", ErrPortraitUnavailable)
	ErrPortraitNotFound   = fmt.Errorf("%w: photo not found", ErrPortraitUnavailable)
	ErrPortraitUnreadable = fmt.Errorf("%w: photo unreadable", ErrPortraitUnavailable)
	ErrPortraitTimeout    = fmt.Errorf("%w: photo load timed out", ErrPortraitUnavailable)
)

// SkipReason maps a portrait error to a short label for logs and metrics.
func SkipReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoPortrait):
		return "none"
	case errors.Is(err, ErrPortraitNotFound):
		return "not_found"
	case errors.Is(err, ErrPortraitTimeout):
		return "timeout"
	default:
		return "unreadable"
	}
}

// Source reads stored objects by key. storage.Backend satisfies it.
type Source interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Layer is a ready-to-overlay portrait: the circular photo plus its ring,
// positioned by Origin on the canvas.
type Layer struct {
	Slot   Slot
	Image  image.Image
	Origin image.Point
}

// PortraitLoader turns stored photo references into portrait layers.
type PortraitLoader struct {
	src     Source
	timeout time.Duration
}

// NewPortraitLoader creates a loader reading from src. A non-positive
// timeout selects DefaultPortraitTimeout.
func NewPortraitLoader(src Source, timeout time.Duration) *PortraitLoader {
	if timeout <= 0 {
		timeout = DefaultPortraitTimeout
	}
	return &PortraitLoader{src: src, timeout: timeout}
}

type layerResult struct {
	layer Layer
	err   error
}

// PlacePortrait loads ref and builds the layer for slot, ringed in ring.
// The returned error is one of the ErrPortrait* values.
func (l *PortraitLoader) PlacePortrait(ctx context.Context, ref string, slot Slot, ring RGB) (Layer, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || l.src == nil {
		return Layer{}, ErrNoPortrait
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	done := make(chan layerResult, 1)
	go func() {
		layer, err := l.build(ctx, ref, slot, ring)
		done <- layerResult{layer: layer, err: err}
	}()

	select {
	case res := <-done:
		return res.layer, res.err
	case <-ctx.Done():
		return Layer{}, fmt.Errorf("%w (%s): %v", ErrPortraitTimeout, slot, ctx.Err())
	}
}

func (l *PortraitLoader) build(ctx context.Context, ref string, slot Slot, ring RGB) (Layer, error) {
	data, err := l.src.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return Layer{}, fmt.Errorf("%w (%s): %s", ErrPortraitNotFound, slot, ref)
		}
		if ctx.Err() != nil {
			return Layer{}, fmt.Errorf("%w (%s): %v", ErrPortraitTimeout, slot, err)
		}
		slog.Warn("portrait read failed", "slot", slot, "ref", ref, "error", err)
		return Layer{}, fmt.Errorf("%w (%s): %v", ErrPortraitUnreadable, slot, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Warn("portrait decode failed", "slot", slot, "ref", ref, "error", err)
		return Layer{}, fmt.Errorf("%w (%s): %v", ErrPortraitUnreadable, slot, err)
	}

	return Layer{
		Slot:   slot,
		Image:  ringedPortrait(img, ring),
		Origin: slot.Origin(),
	}, nil
}

// ringedPortrait center-crops img to PortraitSize, masks it to a circle
// with an anti-aliased edge and strokes the border ring around it.
func ringedPortrait(img image.Image, ring RGB) image.Image {
	square := imaging.Fill(img, PortraitSize, PortraitSize, imaging.Center, imaging.Lanczos)

	const c = ringBox / 2.0
	dc := gg.NewContext(ringBox, ringBox)

	dc.DrawCircle(c, c, PortraitSize/2.0)
	dc.Clip()
	dc.DrawImage(square, ringInset, ringInset)
	dc.ResetClip()

	dc.DrawCircle(c, c, ringRadius)
	dc.SetColor(ring.Alpha(1))
	dc.SetLineWidth(ringStroke)
	dc.Stroke()

	return dc.Image()
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview composes the 1200x630 social preview image of an
// invitation: a themed background with the couple's names, the event date
// and, when available, the two circular portraits.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/text/language"
)

const (
	ContentType  = "image/png"
	CacheControl = "public, max-age=86400"
)

// ErrRenderFailure is returned when the base image cannot be produced.
// Portrait problems never cause it.
var ErrRenderFailure = errors.New("preview render failed")

// Request is the input of a single render.
type Request struct {
	BrideName      string
	GroomName      string
	BridePhotoRef  string
	GroomPhotoRef  string
	EventDate      *time.Time
	PrimaryColor   string
	SecondaryColor string
}

// Skip records a portrait that was left out of the image.
type Skip struct {
	Slot   Slot
	Reason string
}

// Image is an encoded preview.
type Image struct {
	Data         []byte
	ContentType  string
	CacheControl string
	Width        int
	Height       int
	Skipped      []Skip
}

// Cacheable reports whether the image would render the same again. A portrait
// that timed out or could not be decoded may show up on the next attempt.
func (i *Image) Cacheable() bool {
	for _, s := range i.Skipped {
		if s.Reason != "none" && s.Reason != "not_found" {
			return false
		}
	}
	return true
}

// Options configures a Compositor. Zero values select the defaults.
type Options struct {
	Locale          language.Tag
	Brand           string
	PortraitTimeout time.Duration
	Fonts           *FontSet
}

// Compositor renders preview images. It holds no per-render state and is
// safe for concurrent use.
type Compositor struct {
	portraits *PortraitLoader
	fonts     *FontSet
	locale    language.Tag
	brand     string
}

// New creates a Compositor reading portraits from src.
func New(src Source, opts Options) *Compositor {
	if opts.Fonts == nil {
		opts.Fonts = NewFontSet()
	}
	if opts.Locale == language.Und {
		opts.Locale = language.Indonesian
	}
	if opts.Brand == "" {
		opts.Brand = DefaultBrand
	}
	return &Compositor{
		portraits: NewPortraitLoader(src, opts.PortraitTimeout),
		fonts:     opts.Fonts,
		locale:    opts.Locale,
		brand:     opts.Brand,
	}
}

// Scene builds the scene graph for req without touching any portrait.
func (c *Compositor) Scene(req Request) (Scene, Palette) {
	palette := ResolvePalette(req.PrimaryColor, req.SecondaryColor)
	var date string
	if req.EventDate != nil {
		date = FormatDate(*req.EventDate, c.locale)
	}
	return BuildScene(palette, Content{
		Bride:  req.BrideName,
		Groom:  req.GroomName,
		Date:   date,
		Footer: c.brand,
	}), palette
}

// Render produces the PNG preview for req. Missing or unreadable portraits
// are skipped and listed in Image.Skipped; only a failure to draw or encode
// the base image is returned, wrapped in ErrRenderFailure.
func (c *Compositor) Render(ctx context.Context, req Request) (*Image, error) {
	scene, palette := c.Scene(req)

	refs := [2]struct {
		slot Slot
		ref  string
	}{
		{SlotBride, req.BridePhotoRef},
		{SlotGroom, req.GroomPhotoRef},
	}

	var (
		wg      sync.WaitGroup
		layers  [2]Layer
		layErrs [2]error
	)
	for i, r := range refs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			layers[i], layErrs[i] = c.portraits.PlacePortrait(ctx, r.ref, r.slot, palette.Primary)
		}()
	}

	base, err := c.rasterize(scene)
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	out := imaging.Clone(base)
	var skipped []Skip
	for i := range refs {
		if layErrs[i] != nil {
			skipped = append(skipped, Skip{Slot: refs[i].slot, Reason: SkipReason(layErrs[i])})
			continue
		}
		out = imaging.Overlay(out, layers[i].Image, layers[i].Origin, 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRenderFailure, err)
	}

	b := out.Bounds()
	return &Image{
		Data:         buf.Bytes(),
		ContentType:  ContentType,
		CacheControl: CacheControl,
		Width:        b.Dx(),
		Height:       b.Dy(),
		Skipped:      skipped,
	}, nil
}

// rasterize paints the scene nodes in order onto a fresh canvas.
func (c *Compositor) rasterize(s Scene) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("preview rasterize panic", "panic", r)
			img, err = nil, fmt.Errorf("rasterize: %v", r)
		}
	}()

	dc := gg.NewContext(s.Width, s.Height)
	for _, n := range s.Nodes {
		switch n := n.(type) {
		case Gradient:
			g := gg.NewLinearGradient(n.X0, n.Y0, n.X1, n.Y1)
			g.AddColorStop(0, n.From.Alpha(1))
			g.AddColorStop(1, n.To.Alpha(1))
			dc.SetFillStyle(g)
			dc.DrawRectangle(0, 0, float64(s.Width), float64(s.Height))
			dc.Fill()

		case Circle:
			dc.DrawCircle(n.X, n.Y, n.R)
			dc.SetColor(n.Fill.Alpha(n.Opacity))
			dc.Fill()

		case Heart:
			dc.Push()
			dc.Translate(n.X, n.Y)
			dc.Scale(n.Scale, n.Scale)
			dc.MoveTo(heartStart[0], heartStart[1])
			for _, p := range heartCurves {
				dc.CubicTo(p[0], p[1], p[2], p[3], p[4], p[5])
			}
			dc.ClosePath()
			dc.SetColor(n.Fill.Alpha(n.Opacity))
			dc.Fill()
			dc.Pop()

		case Text:
			face, err := c.fonts.Face(n.Font, n.Size)
			if err != nil {
				return nil, fmt.Errorf("%s font: %w", n.Role, err)
			}
			dc.SetFontFace(face)
			dc.SetColor(n.Fill.Alpha(n.Opacity))
			dc.DrawStringAnchored(n.Content, n.X, n.Y, 0.5, 0)
		}
	}
	return dc.Image(), nil
}

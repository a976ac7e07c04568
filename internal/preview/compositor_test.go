// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/text/language"

	"kekkon/internal/storage"
)

// memSource is an in-memory Source keyed by storage path.
type memSource map[string][]byte

func (m memSource) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

// slowSource blocks until the context is done.
type slowSource struct{}

func (slowSource) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := imaging.New(400, 300, c)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	return img
}

func siti() Request {
	return Request{
		BrideName:      "Siti",
		GroomName:      "Budi",
		PrimaryColor:   "#D4A373",
		SecondaryColor: "#FEFAE0",
	}
}

func TestRenderDimensionsAlwaysFixed(t *testing.T) {
	src := memSource{
		"photos/bride.png": solidPNG(t, color.NRGBA{255, 0, 0, 255}),
		"photos/groom.png": solidPNG(t, color.NRGBA{0, 0, 255, 255}),
	}
	c := New(src, Options{})

	cases := map[string]Request{
		"no portraits":   {},
		"bride only":     {BridePhotoRef: "photos/bride.png"},
		"both portraits": {BridePhotoRef: "photos/bride.png", GroomPhotoRef: "photos/groom.png"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := c.Render(context.Background(), req)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if out.Width != Width || out.Height != Height {
				t.Errorf("reported size = %dx%d", out.Width, out.Height)
			}
			b := decodePNG(t, out.Data).Bounds()
			if b.Dx() != 1200 || b.Dy() != 630 {
				t.Errorf("decoded size = %dx%d, want 1200x630", b.Dx(), b.Dy())
			}
		})
	}
}

func TestRenderWithoutPortraits(t *testing.T) {
	c := New(memSource{}, Options{})
	out, err := c.Render(context.Background(), siti())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.ContentType != "image/png" {
		t.Errorf("content type = %q", out.ContentType)
	}
	if out.CacheControl != "public, max-age=86400" {
		t.Errorf("cache control = %q", out.CacheControl)
	}
	if len(out.Skipped) != 2 {
		t.Fatalf("skipped = %v, want both slots", out.Skipped)
	}
	for _, s := range out.Skipped {
		if s.Reason != "none" {
			t.Errorf("slot %s reason = %q, want none", s.Slot, s.Reason)
		}
	}
	if !out.Cacheable() {
		t.Error("image without photos should be cacheable")
	}
}

func TestMissingBridePhotoMatchesNoPhoto(t *testing.T) {
	src := memSource{"photos/groom.png": solidPNG(t, color.NRGBA{0, 0, 255, 255})}
	c := New(src, Options{})

	withMissing := siti()
	withMissing.BridePhotoRef = "photos/does-not-exist.jpg"
	withMissing.GroomPhotoRef = "photos/groom.png"

	without := siti()
	without.GroomPhotoRef = "photos/groom.png"

	a, err := c.Render(context.Background(), withMissing)
	if err != nil {
		t.Fatalf("Render missing: %v", err)
	}
	b, err := c.Render(context.Background(), without)
	if err != nil {
		t.Fatalf("Render without: %v", err)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Error("missing bride photo should render identically to no bride photo")
	}
	if len(a.Skipped) != 1 || a.Skipped[0].Slot != SlotBride || a.Skipped[0].Reason != "not_found" {
		t.Errorf("skipped = %+v", a.Skipped)
	}

	// The groom portrait is still composited.
	px := color.NRGBAModel.Convert(decodePNG(t, a.Data).At(830+90, 225+90)).(color.NRGBA)
	if px.B < 200 || px.R > 60 {
		t.Errorf("groom portrait center = %v, want blue", px)
	}
}

func TestPortraitPlacement(t *testing.T) {
	src := memSource{"b.png": solidPNG(t, color.NRGBA{255, 0, 0, 255})}
	c := New(src, Options{})

	req := siti()
	req.BridePhotoRef = "b.png"
	out, err := c.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img := decodePNG(t, out.Data)

	center := color.NRGBAModel.Convert(img.At(180+90, 225+90)).(color.NRGBA)
	if center.R < 200 || center.G > 60 {
		t.Errorf("bride portrait center = %v, want red", center)
	}

	// Corners of the portrait square fall outside the circular mask.
	corner := color.NRGBAModel.Convert(img.At(181, 226)).(color.NRGBA)
	if corner.R > 240 && corner.G < 40 {
		t.Errorf("portrait corner = %v, expected masked out", corner)
	}

	// Top of the ring, centered horizontally: primary color stroke.
	ring := color.NRGBAModel.Convert(img.At(175+95, 220+2)).(color.NRGBA)
	if !near(ring.R, 212) || !near(ring.G, 163) || !near(ring.B, 115) {
		t.Errorf("ring pixel = %v, want primary", ring)
	}
}

func near(got, want uint8) bool {
	d := int(got) - int(want)
	return d >= -6 && d <= 6
}

func TestUnreadablePortraitIsSkipped(t *testing.T) {
	src := memSource{"broken.jpg": []byte("not an image")}
	c := New(src, Options{})

	req := siti()
	req.BridePhotoRef = "broken.jpg"
	out, err := c.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.Skipped[0]; got.Slot != SlotBride || got.Reason != "unreadable" {
		t.Errorf("skip = %+v", got)
	}
	if out.Cacheable() {
		t.Error("image with an unreadable portrait should not be cacheable")
	}
}

func TestSlowPortraitTimesOut(t *testing.T) {
	c := New(slowSource{}, Options{PortraitTimeout: 20 * time.Millisecond})

	req := siti()
	req.GroomPhotoRef = "slow.jpg"
	start := time.Now()
	out, err := c.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("render did not honor the portrait timeout")
	}
	var groom Skip
	for _, s := range out.Skipped {
		if s.Slot == SlotGroom {
			groom = s
		}
	}
	if groom.Reason != "timeout" {
		t.Errorf("groom skip = %+v, want timeout", groom)
	}
	if out.Cacheable() {
		t.Error("image with a timed out portrait should not be cacheable")
	}
}

func TestPlacePortraitErrors(t *testing.T) {
	l := NewPortraitLoader(memSource{"bad": []byte{0x00}}, 0)
	ctx := context.Background()

	if _, err := l.PlacePortrait(ctx, "  ", SlotBride, DefaultPrimary); !errors.Is(err, ErrNoPortrait) {
		t.Errorf("empty ref: %v", err)
	}
	if _, err := l.PlacePortrait(ctx, "missing", SlotBride, DefaultPrimary); !errors.Is(err, ErrPortraitNotFound) {
		t.Errorf("missing ref: %v", err)
	}
	_, err := l.PlacePortrait(ctx, "bad", SlotGroom, DefaultPrimary)
	if !errors.Is(err, ErrPortraitUnreadable) {
		t.Errorf("bad ref: %v", err)
	}
	if !errors.Is(err, ErrPortraitUnavailable) {
		t.Error("portrait errors must wrap ErrPortraitUnavailable")
	}
	if errors.Is(err, ErrRenderFailure) {
		t.Error("portrait errors must not be render failures")
	}
}

func TestRenderWithDateDiffers(t *testing.T) {
	c := New(memSource{}, Options{Locale: language.Indonesian})

	noDate, err := c.Render(context.Background(), siti())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	d := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	req := siti()
	req.EventDate = &d
	withDate, err := c.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if bytes.Equal(noDate.Data, withDate.Data) {
		t.Error("date line should change the output")
	}

	scene, _ := c.Scene(req)
	text, ok := scene.Text(RoleDate)
	if !ok || text.Content != "Sabtu, 14 Juni 2025" {
		t.Errorf("date node = %+v, %v", text, ok)
	}
	scene, _ = c.Scene(siti())
	if _, ok := scene.Text(RoleDate); ok {
		t.Error("no date node expected without an event date")
	}
}

func TestSceneForCouple(t *testing.T) {
	c := New(nil, Options{})
	scene, palette := c.Scene(siti())

	if scene.Width != 1200 || scene.Height != 630 {
		t.Fatalf("scene size = %dx%d", scene.Width, scene.Height)
	}
	bride, _ := scene.Text(RoleBride)
	groom, _ := scene.Text(RoleGroom)
	if bride.Content != "Siti" || groom.Content != "Budi" {
		t.Errorf("names = %q, %q", bride.Content, groom.Content)
	}
	if bride.Fill != palette.NameColor() {
		t.Errorf("name fill = %v, want %v", bride.Fill, palette.NameColor())
	}
	for _, n := range scene.Nodes {
		if txt, ok := n.(Text); ok {
			if txt.X != 600 {
				t.Errorf("%s not centered: x=%v", txt.Role, txt.X)
			}
			if strings.Contains(txt.Content, "undefined") {
				t.Errorf("%s leaked placeholder text", txt.Role)
			}
		}
	}
}

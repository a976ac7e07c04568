// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging normalizes uploaded couple photos before they are stored.
// Every upload is sniffed, checked against a pixel budget, rotated upright
// from its EXIF orientation, downscaled to fit the display box and
// re-encoded as JPEG. Metadata is dropped along the way.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxPixels rejects decompression bombs before the full decode.
	MaxPixels = 40_000_000

	// MaxEdge is the longest side of a normalized photo.
	MaxEdge = 1600

	// JPEGQuality is the re-encode quality.
	JPEGQuality = 85

	// ContentType of every normalized photo.
	ContentType = "image/jpeg"
)

var (
	// ErrUnsupportedType is returned for anything other than JPEG, PNG, WebP or GIF.
	ErrUnsupportedType = errors.New("imaging: unsupported image type")

	// ErrTooLarge is returned when the declared dimensions exceed MaxPixels.
	ErrTooLarge = errors.New("imaging: image dimensions too large")
)

// allowedTypes maps sniffed MIME types to accepted uploads.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ProcessedImage is a normalized photo ready for upload.
type ProcessedImage struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string
}

// Sniff returns the detected MIME type of data, or ErrUnsupportedType.
func Sniff(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if !allowedTypes[ct] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, nil
}

// Normalize validates and re-encodes an uploaded photo.
func Normalize(original []byte) (*ProcessedImage, error) {
	if _, err := Sniff(original); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: probe failed: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode failed: %w", err)
	}

	img = imaging.Fit(img, MaxEdge, MaxEdge, imaging.Lanczos)

	// JPEG has no alpha; flatten transparent regions onto white.
	b := img.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("imaging: encode failed: %w", err)
	}

	return &ProcessedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Data:        buf.Bytes(),
		ContentType: ContentType,
	}, nil
}

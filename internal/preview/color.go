// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

var (
	// DefaultPrimary is the fallback for a missing or malformed hex color.
	DefaultPrimary = RGB{212, 163, 115} // #D4A373

	// DefaultSecondary is the fallback background color of the theme pair.
	DefaultSecondary = RGB{254, 250, 224} // #FEFAE0
)

// ParseHex decodes "#rrggbb" or "rrggbb" (any case). The boolean is false
// when the input is not exactly six hex digits.
func ParseHex(s string) (RGB, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// ResolveColor parses hex, returning DefaultPrimary when it is empty or
// malformed. It never fails.
func ResolveColor(hex string) RGB {
	return ResolveColorOr(hex, DefaultPrimary)
}

// ResolveColorOr parses hex, returning fallback when it is empty or malformed.
func ResolveColorOr(hex string, fallback RGB) RGB {
	if c, ok := ParseHex(hex); ok {
		return c
	}
	return fallback
}

// Darken subtracts offset from every channel, flooring at zero.
func (c RGB) Darken(offset uint8) RGB {
	return c.Shade(offset, offset, offset)
}

// Shade subtracts a per-channel offset, flooring at zero.
func (c RGB) Shade(dr, dg, db uint8) RGB {
	return RGB{R: sub(c.R, dr), G: sub(c.G, dg), B: sub(c.B, db)}
}

func sub(v, d uint8) uint8 {
	if d >= v {
		return 0
	}
	return v - d
}

// Hex returns the lowercase "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Alpha returns c with the given opacity (0..1) as a non-premultiplied color.
func (c RGB) Alpha(opacity float64) color.NRGBA {
	switch {
	case opacity <= 0:
		opacity = 0
	case opacity > 1:
		opacity = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity*255 + 0.5)}
}

// Palette is the resolved color set used by the layout.
type Palette struct {
	Primary   RGB
	Secondary RGB
}

// ResolvePalette resolves the theme pair, each color falling back independently.
func ResolvePalette(primary, secondary string) Palette {
	return Palette{
		Primary:   ResolveColorOr(primary, DefaultPrimary),
		Secondary: ResolveColorOr(secondary, DefaultSecondary),
	}
}

// NameColor is the darker primary used for the couple's names.
func (p Palette) NameColor() RGB {
	return p.Primary.Darken(40)
}

// GradientEnd is the second stop of the background gradient.
func (p Palette) GradientEnd() RGB {
	return p.Secondary.Shade(20, 20, 10)
}

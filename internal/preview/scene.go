// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import "strings"

// Canvas geometry. These values are part of the public image contract.
const (
	Width  = 1200
	Height = 630

	centerX = 600
)

// Text baselines, all centered on x=600.
const (
	captionY   = 180
	brideY     = 340
	separatorY = 400
	groomY     = 470
	dateY      = 550
	footerY    = 610
)

// Default text content.
const (
	Caption      = "The Wedding of"
	Separator    = "&"
	DefaultBride = "Bride"
	DefaultGroom = "Groom"
	DefaultBrand = "kekkon · digital wedding invitations"
)

// FontRole selects a typeface family for a text node.
type FontRole int

const (
	FontSans FontRole = iota
	FontSerif
)

// Text roles, used to address individual text nodes.
const (
	RoleCaption   = "caption"
	RoleBride     = "bride"
	RoleSeparator = "separator"
	RoleGroom     = "groom"
	RoleDate      = "date"
	RoleFooter    = "footer"
)

// Node is one element of a Scene. Nodes are painted in slice order.
type Node interface {
	node()
}

// Gradient fills the whole canvas with a linear gradient from (X0,Y0) to (X1,Y1).
type Gradient struct {
	X0, Y0, X1, Y1 float64
	From, To       RGB
}

// Circle is a filled circle.
type Circle struct {
	X, Y, R float64
	Fill    RGB
	Opacity float64
}

// Heart is the decorative heart glyph centered at (X,Y).
type Heart struct {
	X, Y    float64
	Scale   float64
	Fill    RGB
	Opacity float64
}

// Text is a single line of text horizontally centered on X with its
// baseline at Y. Content is literal and never interpreted as markup.
type Text struct {
	Role    string
	Content string
	X, Y    float64
	Size    float64
	Font    FontRole
	Fill    RGB
	Opacity float64
}

func (Gradient) node() {}
func (Circle) node()   {}
func (Heart) node()    {}
func (Text) node()     {}

// Scene is a resolution-independent description of the preview image.
type Scene struct {
	Width, Height int
	Nodes         []Node
}

// Text returns the text node with the given role, if present.
func (s Scene) Text(role string) (Text, bool) {
	for _, n := range s.Nodes {
		if t, ok := n.(Text); ok && t.Role == role {
			return t, true
		}
	}
	return Text{}, false
}

// Content is the textual input of the layout.
type Content struct {
	Bride  string
	Groom  string
	Date   string // already formatted; empty omits the date line
	Footer string
}

// BuildScene lays out the fixed 1200x630 preview design.
func BuildScene(p Palette, c Content) Scene {
	bride := orDefault(c.Bride, DefaultBride)
	groom := orDefault(c.Groom, DefaultGroom)
	footer := orDefault(c.Footer, DefaultBrand)
	nameColor := p.NameColor()

	nodes := []Node{
		Gradient{X0: 0, Y0: 0, X1: Width, Y1: Height, From: p.Secondary, To: p.GradientEnd()},
		Circle{X: 100, Y: 100, R: 200, Fill: p.Primary, Opacity: 0.1},
		Circle{X: 1100, Y: 530, R: 250, Fill: p.Primary, Opacity: 0.1},
		Heart{X: centerX, Y: 315, Scale: 1.5, Fill: p.Primary, Opacity: 0.3},
		Text{Role: RoleCaption, Content: Caption, X: centerX, Y: captionY, Size: 32, Font: FontSans, Fill: p.Primary, Opacity: 0.8},
		Text{Role: RoleBride, Content: bride, X: centerX, Y: brideY, Size: 72, Font: FontSerif, Fill: nameColor, Opacity: 1},
		Text{Role: RoleSeparator, Content: Separator, X: centerX, Y: separatorY, Size: 48, Font: FontSerif, Fill: p.Primary, Opacity: 1},
		Text{Role: RoleGroom, Content: groom, X: centerX, Y: groomY, Size: 72, Font: FontSerif, Fill: nameColor, Opacity: 1},
	}
	if c.Date != "" {
		nodes = append(nodes, Text{Role: RoleDate, Content: c.Date, X: centerX, Y: dateY, Size: 28, Font: FontSans, Fill: p.Primary, Opacity: 0.7})
	}
	nodes = append(nodes, Text{Role: RoleFooter, Content: footer, X: centerX, Y: footerY, Size: 20, Font: FontSans, Fill: p.Primary, Opacity: 0.5})

	return Scene{Width: Width, Height: Height, Nodes: nodes}
}

// heartStart and heartCurves describe the heart outline in glyph units
// centered on the origin. Shared by the rasterizer and the SVG writer.
var heartStart = [2]float64{0, -20}

var heartCurves = [][6]float64{
	{-10, -45, -55, -40, -50, -5},
	{-47, 20, -15, 35, 0, 50},
	{15, 35, 47, 20, 50, -5},
	{55, -40, 10, -45, 0, -20},
}

func orDefault(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

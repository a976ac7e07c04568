// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
)

const svgGradientID = "bg"

// WriteSVG serializes the scene as an SVG document. Text content is
// XML-escaped by the writer, so names containing markup characters are
// rendered literally.
func WriteSVG(w io.Writer, s Scene) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(s.Width, s.Height)

	for _, n := range s.Nodes {
		switch n := n.(type) {
		case Gradient:
			canvas.Def()
			canvas.LinearGradient(svgGradientID, 0, 0, 100, 100, []svg.Offcolor{
				{Offset: 0, Color: n.From.Hex(), Opacity: 1},
				{Offset: 100, Color: n.To.Hex(), Opacity: 1},
			})
			canvas.DefEnd()
			canvas.Rect(0, 0, s.Width, s.Height, "fill:url(#"+svgGradientID+")")

		case Circle:
			canvas.Circle(int(n.X), int(n.Y), int(n.R), fillStyle(n.Fill, n.Opacity))

		case Heart:
			canvas.Gtransform(fmt.Sprintf("translate(%g,%g) scale(%g)", n.X, n.Y, n.Scale))
			canvas.Path(heartPath(), fillStyle(n.Fill, n.Opacity))
			canvas.Gend()

		case Text:
			family := "sans-serif"
			if n.Font == FontSerif {
				family = "serif"
			}
			canvas.Text(int(n.X), int(n.Y), n.Content, fmt.Sprintf(
				"text-anchor:middle;font-family:%s;font-size:%gpx;%s",
				family, n.Size, fillStyle(n.Fill, n.Opacity)))
		}
	}

	canvas.End()
	return ew.err
}

func fillStyle(c RGB, opacity float64) string {
	return fmt.Sprintf("fill:%s;fill-opacity:%g", c.Hex(), opacity)
}

func heartPath() string {
	var b strings.Builder
	fmt.Fprintf(&b, "M%g,%g", heartStart[0], heartStart[1])
	for _, p := range heartCurves {
		fmt.Fprintf(&b, " C%g,%g %g,%g %g,%g", p[0], p[1], p[2], p[3], p[4], p[5])
	}
	b.WriteString(" Z")
	return b.String()
}

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public share
// page of an invitation. The page is a small shell whose main job is to
// carry Open Graph and Twitter card tags so that chat apps unfurl the
// link with the generated preview image.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
)

//go:embed templates/share/*.html
var shareFS embed.FS

// PageData holds all data passed to share templates.
type PageData struct {
	Lang         string // html lang attribute, e.g. "id"
	Title        string // <title> and og:title
	Description  string // meta description and og:description
	CanonicalURL string // og:url
	ImageURL     string // og:image, the generated preview
	ImageWidth   int
	ImageHeight  int
	ThemeColor   string
	Data         any // page-specific data
}

// Invitation is the page-specific data of the "invitation" template.
type Invitation struct {
	BrideName      string
	GroomName      string
	BridePhotoURL  string
	GroomPhotoURL  string
	DateText       string
	VenueName      string
	VenueAddress   string
	MapURL         string
	MusicURL       string
	Story          template.HTML
	PrimaryColor   string
	SecondaryColor string
	Template       string
	FontFamily     string
	RSVPURL        string
	Messages       []Message
}

// Message is one entry of the public wishes wall.
type Message struct {
	Name    string
	Message string
}

// Renderer handles template parsing and execution for share pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// pageNames lists the content templates paired with base.html.
var pageNames = []string{"invitation", "not_found"}

// New creates a Renderer by parsing all share templates from the embedded
// filesystem. Each page template is paired with the base layout.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			// safeColor passes through #rrggbb values only, for inline CSS.
			"safeColor": func(c, fallback string) template.CSS {
				if isHexColor(c) {
					return template.CSS(c)
				}
				return template.CSS(fallback)
			},
			"initial": func(name string) string {
				for _, r := range strings.TrimSpace(name) {
					return strings.ToUpper(string(r))
				}
				return ""
			},
		},
	}

	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			shareFS, "templates/share/base.html", "templates/share/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render executes the named page into w.
func (rn *Renderer) Render(w io.Writer, name string, data *PageData) error {
	tmpl, ok := rn.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if data.Lang == "" {
		data.Lang = "id"
	}
	return executeTemplate(w, tmpl, "base.html", data)
}

// Bytes renders the named page into memory, for callers that cache the
// output.
func (rn *Renderer) Bytes(name string, data *PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := rn.Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Page renders a full page with the given status. Rendering happens into
// a buffer first so a template error still produces a clean 500.
func (rn *Renderer) Page(w http.ResponseWriter, status int, name string, data *PageData) {
	body, err := rn.Bytes(name, data)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

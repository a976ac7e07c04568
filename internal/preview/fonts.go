// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// maxFontFileSize bounds how much a single font file may occupy in memory.
const maxFontFileSize = 32 << 20

// Preferred families, most preferred first. Matching is on the lowercase
// family name stored in the font's name table.
var (
	serifFamilies = []string{"playfair display", "dejavu serif", "liberation serif", "noto serif", "times new roman", "georgia"}
	sansFamilies  = []string{"inter", "dejavu sans", "liberation sans", "noto sans", "helvetica", "arial"}
)

// FontSet resolves the two typeface roles of the layout to parsed fonts.
// Parsed fonts are shared; faces are created per render because an
// opentype face carries a glyph buffer and is not safe for concurrent use.
type FontSet struct {
	mu    sync.RWMutex
	dirs  []string
	fonts map[string]*opentype.Font // lowercase family -> font
	once  sync.Once

	sans  *opentype.Font
	serif *opentype.Font
}

// NewFontSet creates a FontSet that searches dirs for .ttf/.otf files.
// Earlier directories win when two hold the same family. With no matching
// families the bundled Go fonts are used, Go Bold standing in for serif.
func NewFontSet(dirs ...string) *FontSet {
	return &FontSet{
		dirs:  dirs,
		fonts: make(map[string]*opentype.Font),
	}
}

// Face returns a fresh face for role at the given pixel size.
func (s *FontSet) Face(role FontRole, size float64) (font.Face, error) {
	s.once.Do(s.resolve)

	f := s.sans
	if role == FontSerif {
		f = s.serif
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// Families reports the family names chosen for the sans and serif roles.
func (s *FontSet) Families() (sans, serif string) {
	s.once.Do(s.resolve)
	return familyName(s.sans), familyName(s.serif)
}

// SystemFontDirs lists the usual font directories of the host OS.
func SystemFontDirs() []string {
	home, _ := os.UserHomeDir()
	var dirs []string
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs = append(dirs, filepath.Join(windir, "Fonts"))
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
	case "darwin":
		dirs = append(dirs, "/System/Library/Fonts", "/Library/Fonts")
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	default:
		dirs = append(dirs, "/usr/share/fonts", "/usr/local/share/fonts")
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
	}
	return dirs
}

func (s *FontSet) resolve() {
	for _, dir := range s.dirs {
		s.scanDir(dir)
	}

	s.sans = s.pick(sansFamilies)
	if s.sans == nil {
		s.sans = mustParse(goregular.TTF)
	}
	s.serif = s.pick(serifFamilies)
	if s.serif == nil {
		s.serif = mustParse(gobold.TTF)
	}
}

func (s *FontSet) pick(families []string) *opentype.Font {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range families {
		if f, ok := s.fonts[name]; ok {
			return f
		}
	}
	return nil
}

func (s *FontSet) scanDir(dir string) {
	if dir == "" {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}
		if err := s.load(path, d); err != nil {
			slog.Debug("skip font", "path", path, "error", err)
		}
		return nil
	})
}

func (s *FontSet) load(path string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	if info.Size() > maxFontFileSize {
		return fmt.Errorf("font file too large (%d bytes)", info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	name := strings.ToLower(familyName(f))
	if name == "" {
		return fmt.Errorf("font has no family name")
	}
	if !isRegular(f) {
		return nil
	}

	s.mu.Lock()
	if _, exists := s.fonts[name]; !exists {
		s.fonts[name] = f
	}
	s.mu.Unlock()
	return nil
}

func familyName(f *opentype.Font) string {
	if f == nil {
		return ""
	}
	name, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return name
}

// isRegular keeps only the upright regular member of a family, so that a
// bold or italic file never shadows it.
func isRegular(f *opentype.Font) bool {
	sub, err := f.Name(nil, sfnt.NameIDSubfamily)
	if err != nil {
		return true
	}
	switch strings.ToLower(sub) {
	case "regular", "book", "roman", "normal", "":
		return true
	}
	return false
}

func mustParse(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic("preview: parse bundled font: " + err.Error())
	}
	return f
}

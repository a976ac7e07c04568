// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxObjectSize caps how much a single Get will read into memory.
const maxObjectSize = 32 << 20

// Local stores objects as files under a root directory.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the root directory if needed. baseURL is the public
// prefix files are served under, e.g. "http://localhost:8080/uploads".
func NewLocal(root, baseURL string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the absolute directory objects are written to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(k)), nil
}

// Put writes r to the file for key, replacing any previous content.
// The write goes to a temporary file first so readers never see a
// partial object.
func (l *Local) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("local put %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("local put %s: %w", key, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("local put %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("local put %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("local put %s: %w", key, err)
	}
	return nil
}

// Get reads the whole file for key.
func (l *Local) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("local get %s: %w", key, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("local get %s: %w", key, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("local get %s: object exceeds %d bytes", key, maxObjectSize)
	}
	return data, nil
}

// Delete removes the file for key. Missing files are not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (l *Local) URL(key string) string {
	return l.baseURL + "/" + strings.TrimLeft(key, "/")
}

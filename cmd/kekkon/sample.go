// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"kekkon/internal/preview"
	"kekkon/internal/storage"
)

// noPortraits is a portrait source with nothing in it.
type noPortraits struct{}

func (noPortraits) Get(context.Context, string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

// sampleRequest is a fully populated invitation without photos.
func sampleRequest() preview.Request {
	date := time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC)
	return preview.Request{
		BrideName:      "Siti Rahmawati",
		GroomName:      "Budi Santoso",
		EventDate:      &date,
		PrimaryColor:   "#D4A373",
		SecondaryColor: "#FEFAE0",
	}
}

// renderSample writes base.png and base.svg for a visual check of the
// preview layout.
func renderSample(base string, opts preview.Options) error {
	c := preview.New(noPortraits{}, opts)
	req := sampleRequest()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	img, err := c.Render(ctx, req)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".png", img.Data, 0o644); err != nil {
		return fmt.Errorf("write png: %w", err)
	}

	f, err := os.Create(base + ".svg")
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	scene, _ := c.Scene(req)
	if err := preview.WriteSVG(f, scene); err != nil {
		f.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Info("sample preview written", "png", base+".png", "svg", base+".svg", "bytes", len(img.Data))
	return nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.June, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		locale language.Tag
		want   string
	}{
		{language.Indonesian, "Sabtu, 14 Juni 2025"},
		{language.English, "Saturday, June 14, 2025"},
		{language.AmericanEnglish, "Saturday, June 14, 2025"},
		{language.Und, "Sabtu, 14 Juni 2025"},
		{language.French, "Sabtu, 14 Juni 2025"},
		{language.MustParse("en-GB"), "Saturday, June 14, 2025"},
	}
	for _, tt := range tests {
		if got := FormatDate(d, tt.locale); got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestFormatDateIndonesianNames(t *testing.T) {
	d := time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d, language.Indonesian); got != "Minggu, 4 Januari 2026" {
		t.Errorf("got %q", got)
	}
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"", language.Indonesian},
		{"id", language.Indonesian},
		{"en", language.English},
		{"en-US,en;q=0.9", language.English},
		{"fr-FR", language.Indonesian},
		{"!!", language.Indonesian},
	}
	for _, tt := range tests {
		if got := MatchLocale(tt.in); got != tt.want {
			t.Errorf("MatchLocale(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Supported date locales. Indonesian is the default.
var dateLocales = []language.Tag{
	language.Indonesian,
	language.English,
}

var dateMatcher = language.NewMatcher(dateLocales)

var (
	idDays = [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

	idMonths = [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
)

// MatchLocale picks the closest supported date locale for an Accept-Language
// style string ("en-US", "id", "en;q=0.8,id"). Unknown input yields Indonesian.
func MatchLocale(accept string) language.Tag {
	if accept == "" {
		return language.Indonesian
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return language.Indonesian
	}
	_, idx, conf := dateMatcher.Match(tags...)
	if conf == language.No {
		return language.Indonesian
	}
	return dateLocales[idx]
}

// FormatDate renders the long-form date line: weekday, day, month name and
// year, e.g. "Sabtu, 14 Juni 2025" or "Saturday, June 14, 2025". Only a
// locale that is explicitly English gets the English form; Und and every
// other language get Indonesian.
func FormatDate(t time.Time, locale language.Tag) string {
	// Base guesses "en" for Und with low confidence.
	base, conf := locale.Base()
	if en, _ := language.English.Base(); base == en && conf >= language.High {
		return t.Format("Monday, January 2, 2006")
	}
	return fmt.Sprintf("%s, %d %s %d",
		idDays[t.Weekday()], t.Day(), idMonths[t.Month()-1], t.Year())
}

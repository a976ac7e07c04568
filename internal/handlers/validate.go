// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"kekkon/internal/models"
	"kekkon/internal/preview"
	"kekkon/internal/slug"
)

// Validation limits for request fields.
const (
	maxNameLen        = 100
	maxEmailLen       = 255
	maxPhoneLen       = 30
	minPasswordLen    = 8
	maxPasswordBytes  = 72 // bcrypt ignores anything longer
	maxVenueNameLen   = 200
	maxVenueAddrLen   = 1_000
	maxURLLen         = 500
	maxStoryLen       = 10_000
	maxMessageLen     = 1_000
	minPax, maxPax    = 1, 10
	defaultTemplate   = "classic"
	defaultFontFamily = "playfair"
)

// fieldErrors maps a JSON field name to a human readable problem.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// orNil returns nil when there are no errors, so callers can test with
// a plain nil check.
func (f fieldErrors) orNil() map[string]string {
	if len(f) == 0 {
		return nil
	}
	return f
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// trimOptional trims an optional text field; blank values become nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type registerInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (in *registerInput) validate() map[string]string {
	errs := fieldErrors{}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	switch {
	case in.Email == "":
		errs.add("email", "Email is required.")
	case len(in.Email) > maxEmailLen || !validEmail(in.Email):
		errs.add("email", "Email is not a valid address.")
	}
	switch {
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		errs.add("password", "Password must be at least 8 characters.")
	case len(in.Password) > maxPasswordBytes:
		errs.add("password", "Password is too long (max 72 bytes).")
	}
	switch {
	case in.DisplayName == "":
		errs.add("display_name", "Display name is required.")
	case tooLong(in.DisplayName, maxNameLen):
		errs.add("display_name", "Display name is too long (max 100 characters).")
	}
	return errs.orNil()
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeInput struct {
	Code string `json:"code"`
}

// invitationInput is the editable part of an invitation. The wedding date
// accepts "2006-01-02" or RFC 3339.
type invitationInput struct {
	Slug           string  `json:"slug"`
	BrideName      string  `json:"bride_name"`
	GroomName      string  `json:"groom_name"`
	WeddingDate    *string `json:"wedding_date"`
	VenueName      *string `json:"venue_name"`
	VenueAddress   *string `json:"venue_address"`
	MapURL         *string `json:"map_url"`
	Story          *string `json:"story"`
	Template       string  `json:"template"`
	PrimaryColor   string  `json:"primary_color"`
	SecondaryColor string  `json:"secondary_color"`
	FontFamily     string  `json:"font_family"`
	MusicURL       *string `json:"music_url"`

	date *time.Time
}

func parseWeddingDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// validate normalizes the input in place and returns per-field errors.
func (in *invitationInput) validate() map[string]string {
	errs := fieldErrors{}

	in.Slug = strings.TrimSpace(in.Slug)
	in.BrideName = strings.TrimSpace(in.BrideName)
	in.GroomName = strings.TrimSpace(in.GroomName)
	in.VenueName = trimOptional(in.VenueName)
	in.VenueAddress = trimOptional(in.VenueAddress)
	in.MapURL = trimOptional(in.MapURL)
	in.Story = trimOptional(in.Story)
	in.MusicURL = trimOptional(in.MusicURL)
	in.WeddingDate = trimOptional(in.WeddingDate)
	in.PrimaryColor = strings.TrimSpace(in.PrimaryColor)
	in.SecondaryColor = strings.TrimSpace(in.SecondaryColor)

	for field, name := range map[string]string{"bride_name": in.BrideName, "groom_name": in.GroomName} {
		switch {
		case name == "":
			errs.add(field, "Name is required.")
		case tooLong(name, maxNameLen):
			errs.add(field, "Name is too long (max 100 characters).")
		}
	}

	if in.Slug != "" {
		switch {
		case tooLong(in.Slug, slug.MaxLength):
			errs.add("slug", "Slug is too long (max 120 characters).")
		case !slug.Valid(in.Slug):
			errs.add("slug", "Slug may only contain lowercase letters, digits and single hyphens.")
		}
	}

	if in.WeddingDate != nil {
		if d, ok := parseWeddingDate(*in.WeddingDate); ok {
			in.date = &d
		} else {
			errs.add("wedding_date", "Date must be formatted as YYYY-MM-DD.")
		}
	}

	if in.VenueName != nil && tooLong(*in.VenueName, maxVenueNameLen) {
		errs.add("venue_name", "Venue name is too long (max 200 characters).")
	}
	if in.VenueAddress != nil && tooLong(*in.VenueAddress, maxVenueAddrLen) {
		errs.add("venue_address", "Venue address is too long (max 1,000 characters).")
	}
	if in.Story != nil && tooLong(*in.Story, maxStoryLen) {
		errs.add("story", "Story is too long (max 10,000 characters).")
	}
	for field, u := range map[string]*string{"map_url": in.MapURL, "music_url": in.MusicURL} {
		if u == nil {
			continue
		}
		if len(*u) > maxURLLen || !validHTTPURL(*u) {
			errs.add(field, "Must be an http or https URL (max 500 characters).")
		}
	}

	for field, c := range map[string]string{"primary_color": in.PrimaryColor, "secondary_color": in.SecondaryColor} {
		if c == "" {
			continue
		}
		if _, ok := preview.ParseHex(c); !ok || !strings.HasPrefix(c, "#") {
			errs.add(field, "Color must be a hex value like #D4A373.")
		}
	}

	if in.Template != "" && !models.Contains(models.Templates, in.Template) {
		errs.add("template", "Unknown template.")
	}
	if in.FontFamily != "" && !models.Contains(models.Fonts, in.FontFamily) {
		errs.add("font_family", "Unknown font family.")
	}
	return errs.orNil()
}

// apply copies validated input onto inv. Empty styling fields keep the
// current value, falling back to the defaults for new invitations.
func (in *invitationInput) apply(inv *models.Invitation) {
	inv.BrideName = in.BrideName
	inv.GroomName = in.GroomName
	inv.WeddingDate = in.date
	inv.VenueName = in.VenueName
	inv.VenueAddress = in.VenueAddress
	inv.MapURL = in.MapURL
	inv.Story = in.Story
	inv.MusicURL = in.MusicURL

	inv.Template = firstNonEmpty(in.Template, inv.Template, defaultTemplate)
	inv.FontFamily = firstNonEmpty(in.FontFamily, inv.FontFamily, defaultFontFamily)
	inv.PrimaryColor = strings.ToUpper(firstNonEmpty(in.PrimaryColor, inv.PrimaryColor, preview.DefaultPrimary.Hex()))
	inv.SecondaryColor = strings.ToUpper(firstNonEmpty(in.SecondaryColor, inv.SecondaryColor, preview.DefaultSecondary.Hex()))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// guestInput is the owner-editable part of a guest.
type guestInput struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	Pax   *int    `json:"pax"`
}

func (in *guestInput) validate() map[string]string {
	errs := fieldErrors{}
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = trimOptional(in.Phone)
	in.Email = trimOptional(in.Email)

	switch {
	case in.Name == "":
		errs.add("name", "Name is required.")
	case tooLong(in.Name, maxNameLen):
		errs.add("name", "Name is too long (max 100 characters).")
	}
	if in.Phone != nil && tooLong(*in.Phone, maxPhoneLen) {
		errs.add("phone", "Phone is too long (max 30 characters).")
	}
	if in.Email != nil && (len(*in.Email) > maxEmailLen || !validEmail(*in.Email)) {
		errs.add("email", "Email is not a valid address.")
	}
	if in.Pax != nil && (*in.Pax < minPax || *in.Pax > maxPax) {
		errs.add("pax", "Pax must be between 1 and 10.")
	}
	return errs.orNil()
}

func (in *guestInput) pax() int {
	if in.Pax == nil {
		return minPax
	}
	return *in.Pax
}

// rsvpInput is a guest's answer from the public page. Token is the
// personalized link token; without it Name is required.
type rsvpInput struct {
	Token   string  `json:"token"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Pax     *int    `json:"pax"`
	Message *string `json:"message"`
}

func (in *rsvpInput) validate() map[string]string {
	errs := fieldErrors{}
	in.Token = strings.TrimSpace(in.Token)
	in.Name = strings.TrimSpace(in.Name)
	in.Message = trimOptional(in.Message)

	if in.Token == "" {
		switch {
		case in.Name == "":
			errs.add("name", "Name is required.")
		case tooLong(in.Name, maxNameLen):
			errs.add("name", "Name is too long (max 100 characters).")
		}
	}
	switch models.RSVPStatus(in.Status) {
	case models.RSVPAttending, models.RSVPDeclined:
	default:
		errs.add("status", "Status must be attending or declined.")
	}
	if in.Pax != nil && (*in.Pax < minPax || *in.Pax > maxPax) {
		errs.add("pax", "Pax must be between 1 and 10.")
	}
	if in.Message != nil && tooLong(*in.Message, maxMessageLen) {
		errs.add("message", "Message is too long (max 1,000 characters).")
	}
	return errs.orNil()
}

func (in *rsvpInput) pax() int {
	if in.Pax == nil {
		return minPax
	}
	return *in.Pax
}

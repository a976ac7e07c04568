// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"kekkon/internal/preview"
)

// InvitationStatus is the publication state of an invitation.
type InvitationStatus string

const (
	StatusDraft     InvitationStatus = "draft"
	StatusPublished InvitationStatus = "published"
)

// Valid reports whether s is a known status.
func (s InvitationStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Templates and fonts an invitation may select.
var (
	Templates = []string{"classic", "floral", "minimal", "rustic", "javanese"}
	Fonts     = []string{"playfair", "cormorant", "great-vibes", "lora", "poppins"}
)

// Invitation is a customizable wedding invitation page owned by a user.
// Photo fields hold storage keys of uploaded portraits.
type Invitation struct {
	ID             uuid.UUID        `json:"id"`
	OwnerID        uuid.UUID        `json:"owner_id"`
	Slug           string           `json:"slug"`
	BrideName      string           `json:"bride_name"`
	GroomName      string           `json:"groom_name"`
	BridePhoto     *string          `json:"bride_photo,omitempty"`
	GroomPhoto     *string          `json:"groom_photo,omitempty"`
	WeddingDate    *time.Time       `json:"wedding_date,omitempty"`
	VenueName      *string          `json:"venue_name,omitempty"`
	VenueAddress   *string          `json:"venue_address,omitempty"`
	MapURL         *string          `json:"map_url,omitempty"`
	Story          *string          `json:"story,omitempty"`
	Template       string           `json:"template"`
	PrimaryColor   string           `json:"primary_color"`
	SecondaryColor string           `json:"secondary_color"`
	FontFamily     string           `json:"font_family"`
	MusicURL       *string          `json:"music_url,omitempty"`
	Status         InvitationStatus `json:"status"`
	ViewCount      int              `json:"view_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsPublished returns true if the invitation is publicly visible.
func (i *Invitation) IsPublished() bool {
	return i.Status == StatusPublished
}

// CoupleName returns "Bride & Groom" for titles and mail subjects.
func (i *Invitation) CoupleName() string {
	return i.BrideName + " & " + i.GroomName
}

// PreviewRequest maps the invitation to the input of the social preview
// compositor. Photo fields are passed as storage keys.
func (i *Invitation) PreviewRequest() preview.Request {
	return preview.Request{
		BrideName:      i.BrideName,
		GroomName:      i.GroomName,
		BridePhotoRef:  deref(i.BridePhoto),
		GroomPhotoRef:  deref(i.GroomPhoto),
		EventDate:      i.WeddingDate,
		PrimaryColor:   i.PrimaryColor,
		SecondaryColor: i.SecondaryColor,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Contains reports whether v is one of the allowed values.
func Contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

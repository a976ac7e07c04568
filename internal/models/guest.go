// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// RSVPStatus is a guest's attendance answer.
type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPAttending RSVPStatus = "attending"
	RSVPDeclined  RSVPStatus = "declined"
)

// Valid reports whether s is a known RSVP status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPAttending, RSVPDeclined:
		return true
	}
	return false
}

// Guest is an entry on an invitation's guest list. Anonymous RSVPs from
// the public page also create guests.
type Guest struct {
	ID           uuid.UUID  `json:"id"`
	InvitationID uuid.UUID  `json:"invitation_id"`
	Name         string     `json:"name"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	RSVPStatus   RSVPStatus `json:"rsvp_status"`
	Pax          int        `json:"pax"`
	Message      *string    `json:"message,omitempty"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HasResponded returns true once the guest has answered the RSVP.
func (g *Guest) HasResponded() bool {
	return g.RSVPStatus != RSVPPending
}

// GuestMessage is a public wish shown on the invitation page.
type GuestMessage struct {
	Name      string     `json:"name"`
	Message   string     `json:"message"`
	Status    RSVPStatus `json:"rsvp_status"`
	CreatedAt time.Time  `json:"created_at"`
}

// GuestSummary aggregates an invitation's guest list.
type GuestSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Attending int `json:"attending"`
	Declined  int `json:"declined"`
	TotalPax  int `json:"total_pax"` // seats claimed by attending guests
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kekkon/internal/models"
)

// GuestStore handles guest list and RSVP operations.
type GuestStore struct {
	db *sql.DB
}

// NewGuestStore creates a new GuestStore.
func NewGuestStore(db *sql.DB) *GuestStore {
	return &GuestStore{db: db}
}

const guestColumns = `id, invitation_id, name, phone, email, rsvp_status, pax, message, responded_at, created_at`

func scanGuest(row rowScanner) (*models.Guest, error) {
	var g models.Guest
	err := row.Scan(
		&g.ID, &g.InvitationID, &g.Name, &g.Phone, &g.Email,
		&g.RSVPStatus, &g.Pax, &g.Message, &g.RespondedAt, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create adds a guest to an invitation's list.
func (s *GuestStore) Create(g *models.Guest) (*models.Guest, error) {
	created, err := scanGuest(s.db.QueryRow(`
		INSERT INTO guests (invitation_id, name, phone, email, pax)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+guestColumns,
		g.InvitationID, g.Name, g.Phone, g.Email, g.Pax))
	if err != nil {
		return nil, fmt.Errorf("create guest: %w", err)
	}
	return created, nil
}

// FindByID retrieves a guest scoped to an invitation. Returns nil if the
// guest does not exist or belongs to another invitation.
func (s *GuestStore) FindByID(invitationID, id uuid.UUID) (*models.Guest, error) {
	g, err := scanGuest(s.db.QueryRow(`
		SELECT `+guestColumns+` FROM guests WHERE id = $1 AND invitation_id = $2
	`, id, invitationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find guest: %w", err)
	}
	return g, nil
}

// ListByInvitation returns the full guest list in insertion order.
func (s *GuestStore) ListByInvitation(invitationID uuid.UUID) ([]models.Guest, error) {
	rows, err := s.db.Query(`
		SELECT `+guestColumns+`
		FROM guests WHERE invitation_id = $1
		ORDER BY created_at ASC
	`, invitationID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var guests []models.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

// Update saves the owner-editable guest fields.
func (s *GuestStore) Update(g *models.Guest) error {
	_, err := s.db.Exec(`
		UPDATE guests SET name = $1, phone = $2, email = $3, pax = $4
		WHERE id = $5 AND invitation_id = $6
	`, g.Name, g.Phone, g.Email, g.Pax, g.ID, g.InvitationID)
	if err != nil {
		return fmt.Errorf("update guest: %w", err)
	}
	return nil
}

// Delete removes a guest from an invitation.
func (s *GuestStore) Delete(invitationID, id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM guests WHERE id = $1 AND invitation_id = $2`, id, invitationID)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	return nil
}

// RecordRSVP stores a guest's answer. With a non-nil guestID the existing
// guest is updated; otherwise an anonymous guest is created from the public
// form. Returns the stored guest, or nil if guestID does not exist.
func (s *GuestStore) RecordRSVP(invitationID uuid.UUID, guestID *uuid.UUID, name string, status models.RSVPStatus, pax int, message *string) (*models.Guest, error) {
	var row *sql.Row
	if guestID != nil {
		row = s.db.QueryRow(`
			UPDATE guests SET rsvp_status = $1, pax = $2, message = $3, responded_at = NOW()
			WHERE id = $4 AND invitation_id = $5
			RETURNING `+guestColumns,
			status, pax, message, *guestID, invitationID)
	} else {
		row = s.db.QueryRow(`
			INSERT INTO guests (invitation_id, name, rsvp_status, pax, message, responded_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING `+guestColumns,
			invitationID, name, status, pax, message)
	}

	g, err := scanGuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record rsvp: %w", err)
	}
	return g, nil
}

// ListMessages returns the non-empty wishes left by guests, newest first.
func (s *GuestStore) ListMessages(invitationID uuid.UUID, limit int) ([]models.GuestMessage, error) {
	rows, err := s.db.Query(`
		SELECT name, message, rsvp_status, COALESCE(responded_at, created_at)
		FROM guests
		WHERE invitation_id = $1 AND message IS NOT NULL AND message <> ''
		ORDER BY COALESCE(responded_at, created_at) DESC
		LIMIT $2
	`, invitationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.GuestMessage
	for rows.Next() {
		var m models.GuestMessage
		if err := rows.Scan(&m.Name, &m.Message, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Summary counts guests per RSVP status and the seats claimed by those attending.
func (s *GuestStore) Summary(invitationID uuid.UUID) (*models.GuestSummary, error) {
	var sum models.GuestSummary
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE rsvp_status = 'pending'),
			COUNT(*) FILTER (WHERE rsvp_status = 'attending'),
			COUNT(*) FILTER (WHERE rsvp_status = 'declined'),
			COALESCE(SUM(pax) FILTER (WHERE rsvp_status = 'attending'), 0)
		FROM guests WHERE invitation_id = $1
	`, invitationID).Scan(&sum.Total, &sum.Pending, &sum.Attending, &sum.Declined, &sum.TotalPax)
	if err != nil {
		return nil, fmt.Errorf("guest summary: %w", err)
	}
	return &sum, nil
}

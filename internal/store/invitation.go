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

// InvitationStore handles all invitation-related database operations.
type InvitationStore struct {
	db *sql.DB
}

// NewInvitationStore creates a new InvitationStore.
func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

// invitationColumns lists the columns selected in invitation queries.
const invitationColumns = `id, owner_id, slug, bride_name, groom_name, bride_photo, groom_photo,
	wedding_date, venue_name, venue_address, map_url, story, template,
	primary_color, secondary_color, font_family, music_url, status, view_count,
	created_at, updated_at`

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.Slug, &inv.BrideName, &inv.GroomName,
		&inv.BridePhoto, &inv.GroomPhoto, &inv.WeddingDate, &inv.VenueName,
		&inv.VenueAddress, &inv.MapURL, &inv.Story, &inv.Template,
		&inv.PrimaryColor, &inv.SecondaryColor, &inv.FontFamily, &inv.MusicURL,
		&inv.Status, &inv.ViewCount, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvitationStore) findOne(query string, args ...any) (*models.Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (s *InvitationStore) list(query string, args ...any) ([]models.Invitation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// Create inserts a new draft invitation. A taken slug yields ErrDuplicateSlug.
func (s *InvitationStore) Create(inv *models.Invitation) (*models.Invitation, error) {
	created, err := scanInvitation(s.db.QueryRow(`
		INSERT INTO invitations (owner_id, slug, bride_name, groom_name, wedding_date,
			venue_name, venue_address, map_url, story, template,
			primary_color, secondary_color, font_family, music_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+invitationColumns,
		inv.OwnerID, inv.Slug, inv.BrideName, inv.GroomName, inv.WeddingDate,
		inv.VenueName, inv.VenueAddress, inv.MapURL, inv.Story, inv.Template,
		inv.PrimaryColor, inv.SecondaryColor, inv.FontFamily, inv.MusicURL,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return created, nil
}

// FindByID retrieves an invitation by ID. Returns nil if not found.
func (s *InvitationStore) FindByID(id uuid.UUID) (*models.Invitation, error) {
	inv, err := s.findOne(`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find invitation by id: %w", err)
	}
	return inv, nil
}

// FindBySlug retrieves an invitation by slug regardless of status.
// Returns nil if not found.
func (s *InvitationStore) FindBySlug(slug string) (*models.Invitation, error) {
	inv, err := s.findOne(`SELECT `+invitationColumns+` FROM invitations WHERE slug = $1`, slug)
	if err != nil {
		return nil, fmt.Errorf("find invitation by slug: %w", err)
	}
	return inv, nil
}

// FindPublishedBySlug retrieves a published invitation by slug. Drafts
// are reported as not found.
func (s *InvitationStore) FindPublishedBySlug(slug string) (*models.Invitation, error) {
	inv, err := s.findOne(`
		SELECT `+invitationColumns+`
		FROM invitations WHERE slug = $1 AND status = 'published'
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("find published invitation: %w", err)
	}
	return inv, nil
}

// ListByOwner returns all invitations of a user, most recently updated first.
func (s *InvitationStore) ListByOwner(ownerID uuid.UUID) ([]models.Invitation, error) {
	out, err := s.list(`
		SELECT `+invitationColumns+`
		FROM invitations WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list invitations by owner: %w", err)
	}
	return out, nil
}

// ListAll returns a page of all invitations for moderation, newest first.
func (s *InvitationStore) ListAll(limit, offset int) ([]models.Invitation, error) {
	out, err := s.list(`
		SELECT `+invitationColumns+`
		FROM invitations ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return out, nil
}

// Update saves the editable fields of an invitation. Status, photos and
// counters have dedicated methods.
func (s *InvitationStore) Update(inv *models.Invitation) error {
	_, err := s.db.Exec(`
		UPDATE invitations SET
			slug = $1, bride_name = $2, groom_name = $3, wedding_date = $4,
			venue_name = $5, venue_address = $6, map_url = $7, story = $8,
			template = $9, primary_color = $10, secondary_color = $11,
			font_family = $12, music_url = $13, updated_at = NOW()
		WHERE id = $14
	`, inv.Slug, inv.BrideName, inv.GroomName, inv.WeddingDate,
		inv.VenueName, inv.VenueAddress, inv.MapURL, inv.Story,
		inv.Template, inv.PrimaryColor, inv.SecondaryColor,
		inv.FontFamily, inv.MusicURL, inv.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

// SetPhoto stores the storage key of the bride or groom portrait.
func (s *InvitationStore) SetPhoto(id uuid.UUID, slot, key string) error {
	var query string
	switch slot {
	case "bride":
		query = `UPDATE invitations SET bride_photo = $1, updated_at = NOW() WHERE id = $2`
	case "groom":
		query = `UPDATE invitations SET groom_photo = $1, updated_at = NOW() WHERE id = $2`
	default:
		return fmt.Errorf("set photo: unknown slot %q", slot)
	}
	if _, err := s.db.Exec(query, key, id); err != nil {
		return fmt.Errorf("set %s photo: %w", slot, err)
	}
	return nil
}

// SetStatus publishes or unpublishes an invitation.
func (s *InvitationStore) SetStatus(id uuid.UUID, status models.InvitationStatus) error {
	_, err := s.db.Exec(`
		UPDATE invitations SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("set invitation status: %w", err)
	}
	return nil
}

// Delete removes an invitation and, by cascade, its guests.
func (s *InvitationStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM invitations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// IncrementViews bumps the public view counter.
func (s *InvitationStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE invitations SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// SlugExists checks whether a slug is taken by an invitation other than
// excludeID. Pass uuid.Nil to check against all invitations.
func (s *InvitationStore) SlugExists(slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM invitations WHERE slug = $1 AND id <> $2)
	`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

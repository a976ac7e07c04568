// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"kekkon/internal/models"
)

// StatsStore computes admin dashboard aggregates.
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Platform returns platform-wide counters in a single round trip.
func (s *StatsStore) Platform() (*models.PlatformStats, error) {
	var st models.PlatformStats
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM invitations),
			(SELECT COUNT(*) FROM invitations WHERE status = 'published'),
			(SELECT COUNT(*) FROM guests),
			(SELECT COUNT(*) FROM guests WHERE rsvp_status = 'attending'),
			(SELECT COUNT(*) FROM guests WHERE rsvp_status = 'declined'),
			(SELECT COUNT(*) FROM guests WHERE rsvp_status = 'pending'),
			(SELECT COALESCE(SUM(view_count), 0) FROM invitations)
	`).Scan(&st.Users, &st.Invitations, &st.Published, &st.Guests,
		&st.Attending, &st.Declined, &st.Pending, &st.TotalViews)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return &st, nil
}

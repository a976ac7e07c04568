// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides the shared helpers for store tests: a sqlmock
// database for unit tests and a real PostgreSQL helper for integration
// tests, which are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"kekkon/internal/database"
)

// newMock returns a sqlmock-backed *sql.DB whose expectations are verified
// when the test ends.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var uniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

var fixedTime = time.Date(2025, time.May, 1, 9, 30, 0, 0, time.UTC)

// testDSN returns the PostgreSQL connection string for integration tests.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "kekkon")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "kekkon")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable&connect_timeout=2"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email; invitations and guests cascade.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

var (
	userCols       = []string{"id", "email", "password_hash", "display_name", "role", "totp_secret", "totp_enabled", "created_at", "updated_at"}
	invitationCols = []string{"id", "owner_id", "slug", "bride_name", "groom_name", "bride_photo", "groom_photo",
		"wedding_date", "venue_name", "venue_address", "map_url", "story", "template",
		"primary_color", "secondary_color", "font_family", "music_url", "status", "view_count",
		"created_at", "updated_at"}
	guestCols = []string{"id", "invitation_id", "name", "phone", "email", "rsvp_status", "pax", "message", "responded_at", "created_at"}
)

func invitationRow(id, owner uuid.UUID, slug, status string) *sqlmock.Rows {
	return sqlmock.NewRows(invitationCols).AddRow(
		id.String(), owner.String(), slug, "Siti", "Budi", "invitations/x/bride.jpg", nil,
		fixedTime, "Gedung Serbaguna", nil, nil, "We met in Bandung.", "classic",
		"#D4A373", "#FEFAE0", "playfair", nil, status, 7,
		fixedTime, fixedTime,
	)
}

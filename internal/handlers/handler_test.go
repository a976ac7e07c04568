// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Stores run against sqlmock and caches and sessions against miniredis, so
// these tests need no external services. Integration tests that need a
// real PostgreSQL are skipped when it is unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	"kekkon/internal/cache"
	"kekkon/internal/database"
	"kekkon/internal/middleware"
	"kekkon/internal/models"
	"kekkon/internal/preview"
	"kekkon/internal/render"
	"kekkon/internal/response"
	"kekkon/internal/session"
	"kekkon/internal/storage"
	"kekkon/internal/store"
	"kekkon/internal/token"
)

const testBaseURL = "https://kekkon.test"

var fixedTime = time.Date(2025, time.May, 1, 9, 30, 0, 0, time.UTC)

var uniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

// fakePreviews is a PreviewRenderer that records its calls.
type fakePreviews struct {
	mu    sync.Mutex
	calls int
	last  preview.Request
	img   *preview.Image
	err   error
}

func (f *fakePreviews) Render(_ context.Context, req preview.Request) (*preview.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func (f *fakePreviews) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// sentMail is one message captured by fakeMailer.
type sentMail struct {
	To, Subject, HTML, Text string
}

type fakeMailer struct {
	sent chan sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html, text string) error {
	m.sent <- sentMail{To: to, Subject: subject, HTML: html, Text: text}
	return nil
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Mock        sqlmock.Sqlmock
	Redis       *miniredis.Miniredis
	Valkey      *redis.Client
	Sessions    *session.Store
	Storage     *storage.Local
	Previews    *fakePreviews
	ImageCache  *cache.PageCache
	PageCache   *cache.PageCache
	Signer      *token.Signer
	Invitations *Invitations
	Guests      *Guests
	Public      *Public
	Admin       *Admin
	Auth        *Auth
}

// newTestEnv wires every handler group against sqlmock and miniredis.
// Unmet database expectations fail the test.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	mr := miniredis.RunT(t)
	vk := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { vk.Close() })

	local, err := storage.NewLocal(t.TempDir(), testBaseURL+"/uploads")
	require.NoError(t, err)

	renderer, err := render.New()
	require.NoError(t, err)

	users := store.NewUserStore(db)
	invitations := store.NewInvitationStore(db)
	guests := store.NewGuestStore(db)
	stats := store.NewStatsStore(db)

	sessions := session.NewStore(vk, false)
	imageCache := cache.NewImageCache(vk, time.Hour)
	pageCache := cache.NewPageCache(vk, time.Minute)
	invalidator := cache.NewInvalidator(pageCache, imageCache)
	signer := token.NewSigner("test-secret")
	previews := &fakePreviews{img: &preview.Image{
		Data:         []byte("\x89PNG fake"),
		ContentType:  preview.ContentType,
		CacheControl: preview.CacheControl,
		Width:        preview.Width,
		Height:       preview.Height,
	}}

	return &testEnv{
		Mock:        mock,
		Redis:       mr,
		Valkey:      vk,
		Sessions:    sessions,
		Storage:     local,
		Previews:    previews,
		ImageCache:  imageCache,
		PageCache:   pageCache,
		Signer:      signer,
		Invitations: NewInvitations(invitations, local, previews, invalidator),
		Guests:      NewGuests(invitations, guests, signer, testBaseURL, 24*time.Hour),
		Public: NewPublic(PublicDeps{
			Invitations: invitations,
			Guests:      guests,
			Users:       users,
			Storage:     local,
			Previews:    previews,
			ImageCache:  imageCache,
			PageCache:   pageCache,
			Renderer:    renderer,
			Signer:      signer,
			BaseURL:     testBaseURL,
			Locale:      language.Indonesian,
		}),
		Admin: NewAdmin(users, invitations, stats, local, invalidator),
		Auth:  NewAuth(sessions, users),
	}
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// jsonRequest builds a request with body encoded as JSON. A string body is
// sent verbatim.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withRoute adds chi URL parameters (key, value pairs) and an optional
// session to a request.
func withRoute(r *http.Request, sess *session.Data, params ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = middleware.WithSession(ctx, sess)
	}
	return r.WithContext(ctx)
}

// envelope mirrors response.Envelope with the payload left raw.
type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Error *response.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error, "unexpected error envelope: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

var userCols = []string{"id", "email", "password_hash", "display_name", "role", "totp_secret", "totp_enabled", "created_at", "updated_at"}

var invitationCols = []string{
	"id", "owner_id", "slug", "bride_name", "groom_name", "bride_photo", "groom_photo",
	"wedding_date", "venue_name", "venue_address", "map_url", "story", "template",
	"primary_color", "secondary_color", "font_family", "music_url", "status", "view_count",
	"created_at", "updated_at",
}

var guestCols = []string{"id", "invitation_id", "name", "phone", "email", "rsvp_status", "pax", "message", "responded_at", "created_at"}

func nullable(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) driver.Value {
	if t == nil {
		return nil
	}
	return *t
}

// hashPassword returns a cheap bcrypt hash for fixtures.
func hashPassword(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func userRows(users ...*models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userCols)
	for _, u := range users {
		rows.AddRow(u.ID.String(), u.Email, u.PasswordHash, u.DisplayName, string(u.Role),
			nullable(u.TOTPSecret), u.TOTPEnabled, fixedTime, fixedTime)
	}
	return rows
}

func invitationRows(invs ...*models.Invitation) *sqlmock.Rows {
	rows := sqlmock.NewRows(invitationCols)
	for _, inv := range invs {
		rows.AddRow(
			inv.ID.String(), inv.OwnerID.String(), inv.Slug, inv.BrideName, inv.GroomName,
			nullable(inv.BridePhoto), nullable(inv.GroomPhoto), nullableTime(inv.WeddingDate),
			nullable(inv.VenueName), nullable(inv.VenueAddress), nullable(inv.MapURL),
			nullable(inv.Story), inv.Template, inv.PrimaryColor, inv.SecondaryColor,
			inv.FontFamily, nullable(inv.MusicURL), string(inv.Status), inv.ViewCount,
			fixedTime, fixedTime,
		)
	}
	return rows
}

func guestRows(guests ...*models.Guest) *sqlmock.Rows {
	rows := sqlmock.NewRows(guestCols)
	for _, g := range guests {
		rows.AddRow(g.ID.String(), g.InvitationID.String(), g.Name, nullable(g.Phone),
			nullable(g.Email), string(g.RSVPStatus), g.Pax, nullable(g.Message),
			nullableTime(g.RespondedAt), fixedTime)
	}
	return rows
}

// sampleInvitation returns a published invitation owned by owner.
func sampleInvitation(owner uuid.UUID) *models.Invitation {
	date := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	return &models.Invitation{
		ID:             uuid.New(),
		OwnerID:        owner,
		Slug:           "siti-budi",
		BrideName:      "Siti",
		GroomName:      "Budi",
		WeddingDate:    &date,
		VenueName:      strPtr("Gedung Serbaguna"),
		Story:          strPtr("We met in **Bandung**."),
		Template:       "classic",
		PrimaryColor:   "#D4A373",
		SecondaryColor: "#FEFAE0",
		FontFamily:     "playfair",
		Status:         models.StatusPublished,
	}
}

// expectFindByID queues the owner lookup done by most invitation routes.
func (e *testEnv) expectFindByID(inv *models.Invitation) {
	e.Mock.ExpectQuery(`FROM invitations WHERE id = \$1`).
		WithArgs(inv.ID).
		WillReturnRows(invitationRows(inv))
}

func (e *testEnv) expectFindPublished(slug string, inv *models.Invitation) {
	q := e.Mock.ExpectQuery(`FROM invitations WHERE slug = \$1 AND status = 'published'`).WithArgs(slug)
	if inv == nil {
		q.WillReturnError(sql.ErrNoRows)
		return
	}
	q.WillReturnRows(invitationRows(inv))
}

// seedCache stores a value directly in miniredis.
func (e *testEnv) seedCache(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, e.Redis.Set(key, value))
}

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

// testDB opens a connection to the test PostgreSQL and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

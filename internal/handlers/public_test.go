// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kekkon/internal/models"
	"kekkon/internal/preview"
)

func publicRequest(method, slug string, body *http.Request) *http.Request {
	if body == nil {
		body = httptest.NewRequest(method, "/", nil)
	}
	return withRoute(body, nil, "slug", slug)
}

func TestPublicInvitationCountsView(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	inv.BridePhoto = strPtr("invitations/x/bride.jpg")

	env.expectFindPublished("siti-budi", inv)
	env.Mock.ExpectExec(`UPDATE invitations SET view_count = view_count \+ 1`).
		WithArgs(inv.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	env.Public.Invitation(rec, publicRequest(http.MethodGet, "siti-budi", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got map[string]any
	decodeData(t, rec, &got)
	assert.Equal(t, "Sabtu, 14 Juni 2025", got["date_text"])
	assert.Contains(t, got["story_html"], "<strong>Bandung</strong>")
	assert.Equal(t, testBaseURL+"/uploads/invitations/x/bride.jpg", got["bride_photo_url"])
	assert.Equal(t, testBaseURL+"/api/public/siti-budi/og-image", got["og_image_url"])
	assert.NotContains(t, got, "owner_id")
	assert.NotContains(t, got, "view_count")
}

func TestPublicInvitationDraftIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.expectFindPublished("secret-draft", nil)

	rec := httptest.NewRecorder()
	env.Public.Invitation(rec, publicRequest(http.MethodGet, "secret-draft", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOGImageRendersOnceThenServesCache(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	env.Previews.img.Skipped = []preview.Skip{
		{Slot: preview.SlotBride, Reason: "none"},
		{Slot: preview.SlotGroom, Reason: "not_found"},
	}
	env.expectFindPublished("siti-budi", inv)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		env.Public.OGImage(rec, publicRequest(http.MethodGet, "siti-budi", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
		assert.Equal(t, env.Previews.img.Data, rec.Body.Bytes())
	}
	assert.Equal(t, 1, env.Previews.Calls())
	assert.Equal(t, "Budi", env.Previews.last.GroomName)
	assert.True(t, env.Redis.Exists("og:siti-budi"))

	ttl := env.Redis.TTL("og:siti-budi")
	assert.Equal(t, time.Hour, ttl)
}

func TestOGImageWithTransientSkipIsNotCached(t *testing.T) {
	for _, reason := range []string{"timeout", "unreadable"} {
		t.Run(reason, func(t *testing.T) {
			env := newTestEnv(t)
			inv := sampleInvitation(uuid.New())
			env.Previews.img.Skipped = []preview.Skip{
				{Slot: preview.SlotBride, Reason: reason},
				{Slot: preview.SlotGroom, Reason: "none"},
			}
			env.expectFindPublished("siti-budi", inv)

			rec := httptest.NewRecorder()
			env.Public.OGImage(rec, publicRequest(http.MethodGet, "siti-budi", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, env.Previews.img.Data, rec.Body.Bytes())
			assert.False(t, env.Redis.Exists("og:siti-budi"))
		})
	}
}

func TestOGImageUnknownSlugDoesNotRender(t *testing.T) {
	env := newTestEnv(t)
	env.expectFindPublished("nobody", nil)

	rec := httptest.NewRecorder()
	env.Public.OGImage(rec, publicRequest(http.MethodGet, "nobody", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, env.Previews.Calls())
}

func TestOGImageRenderFailureIsGeneric500(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	env.Previews.err = errors.New("png encoder exploded at /var/lib/secret")
	env.expectFindPublished("siti-budi", inv)

	rec := httptest.NewRecorder()
	env.Public.OGImage(rec, publicRequest(http.MethodGet, "siti-budi", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.False(t, env.Redis.Exists("og:siti-budi"))
}

func TestMessagesWall(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	env.expectFindPublished("siti-budi", inv)
	env.Mock.ExpectQuery(`SELECT name, message, rsvp_status`).
		WithArgs(inv.ID, 5).
		WillReturnRows(sqlmock.NewRows([]string{"name", "message", "rsvp_status", "at"}).
			AddRow("Rina", "Selamat!", "attending", fixedTime))

	rec := httptest.NewRecorder()
	r := publicRequest(http.MethodGet, "siti-budi", httptest.NewRequest(http.MethodGet, "/?limit=5", nil))
	env.Public.Messages(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.GuestMessage
	decodeData(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "Selamat!", got[0].Message)
}

func TestRSVPAnonymous(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	msg := "Selamat menempuh hidup baru!"
	g := sampleGuest(inv.ID)
	g.RSVPStatus = models.RSVPAttending
	g.Pax = 2
	g.Message = &msg
	env.seedCache(t, "page:siti-budi", "<html>")

	env.expectFindPublished("siti-budi", inv)
	env.Mock.ExpectQuery(`INSERT INTO guests \(invitation_id, name, rsvp_status, pax, message, responded_at\)`).
		WithArgs(inv.ID, "Rina", models.RSVPAttending, 2, msg).
		WillReturnRows(guestRows(g))

	rec := httptest.NewRecorder()
	r := publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/", map[string]any{
		"name":    "Rina",
		"status":  "attending",
		"pax":     2,
		"message": msg,
	}))
	env.Public.RSVP(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got rsvpReceipt
	decodeData(t, rec, &got)
	assert.Equal(t, rsvpReceipt{Name: "Rina", Status: models.RSVPAttending, Pax: 2}, got)
	assert.False(t, env.Redis.Exists("page:siti-budi"), "wishes wall should be re-rendered")
}

func TestRSVPWithGuestToken(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	g := sampleGuest(inv.ID)
	g.RSVPStatus = models.RSVPDeclined
	tok, err := env.Signer.Issue(g.ID, inv.ID, time.Hour)
	require.NoError(t, err)

	env.expectFindPublished("siti-budi", inv)
	env.Mock.ExpectQuery(`UPDATE guests SET rsvp_status = \$1`).
		WithArgs(models.RSVPDeclined, 1, nil, g.ID, inv.ID).
		WillReturnRows(guestRows(g))

	rec := httptest.NewRecorder()
	r := publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/", map[string]any{
		"token":  tok,
		"status": "declined",
	}))
	env.Public.RSVP(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got rsvpReceipt
	decodeData(t, rec, &got)
	assert.Equal(t, "Rina", got.Name)
	assert.Equal(t, models.RSVPDeclined, got.Status)
}

func TestRSVPTokenRejections(t *testing.T) {
	inv := sampleInvitation(uuid.New())

	t.Run("token of another invitation", func(t *testing.T) {
		env := newTestEnv(t)
		tok, err := env.Signer.Issue(uuid.New(), uuid.New(), time.Hour)
		require.NoError(t, err)
		env.expectFindPublished("siti-budi", inv)

		rec := httptest.NewRecorder()
		env.Public.RSVP(rec, publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/",
			map[string]any{"token": tok, "status": "attending"})))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("forged token", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectFindPublished("siti-budi", inv)

		rec := httptest.NewRecorder()
		env.Public.RSVP(rec, publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/",
			map[string]any{"token": "eyJhbGciOiJIUzI1NiJ9.e30.bad", "status": "attending"})))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown guest", func(t *testing.T) {
		env := newTestEnv(t)
		gid := uuid.New()
		tok, err := env.Signer.Issue(gid, inv.ID, time.Hour)
		require.NoError(t, err)
		env.expectFindPublished("siti-budi", inv)
		env.Mock.ExpectQuery(`UPDATE guests SET rsvp_status = \$1`).
			WillReturnRows(sqlmock.NewRows(guestCols))

		rec := httptest.NewRecorder()
		env.Public.RSVP(rec, publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/",
			map[string]any{"token": tok, "status": "attending"})))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRSVPValidation(t *testing.T) {
	env := newTestEnv(t)
	env.expectFindPublished("siti-budi", sampleInvitation(uuid.New()))

	rec := httptest.NewRecorder()
	env.Public.RSVP(rec, publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/", map[string]any{
		"name":    "",
		"status":  "pending",
		"pax":     0,
		"message": strings.Repeat("m", 1001),
	})))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decodeEnvelope(t, rec).Error.Fields
	for _, f := range []string{"name", "status", "pax", "message"} {
		assert.Contains(t, fields, f)
	}
}

func TestRSVPNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	mail := &fakeMailer{sent: make(chan sentMail, 1)}
	env.Public.mailer = mail

	owner := &models.User{ID: uuid.New(), Email: "owner@example.com", DisplayName: "Siti", Role: models.RoleUser}
	inv := sampleInvitation(owner.ID)
	g := sampleGuest(inv.ID)
	g.RSVPStatus = models.RSVPAttending

	env.expectFindPublished("siti-budi", inv)
	env.Mock.ExpectQuery(`INSERT INTO guests`).WillReturnRows(guestRows(g))
	env.Mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(owner.ID).WillReturnRows(userRows(owner))

	rec := httptest.NewRecorder()
	env.Public.RSVP(rec, publicRequest(http.MethodPost, "siti-budi", jsonRequest(t, http.MethodPost, "/",
		map[string]any{"name": "Rina", "status": "attending"})))
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case m := <-mail.sent:
		assert.Equal(t, "owner@example.com", m.To)
		assert.Equal(t, "New RSVP from Rina", m.Subject)
		assert.Contains(t, m.Text, "Siti & Budi")
	case <-time.After(5 * time.Second):
		t.Fatal("owner was not notified")
	}
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t)
	env.expectFindPublished("siti-budi", sampleInvitation(uuid.New()))

	rec := httptest.NewRecorder()
	r := publicRequest(http.MethodGet, "siti-budi", httptest.NewRequest(http.MethodGet, "/?size=99999", nil))
	env.Public.QRCode(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, qrMaxSize, img.Bounds().Dx())
}

func TestSharePageRendersAndCaches(t *testing.T) {
	env := newTestEnv(t)
	inv := sampleInvitation(uuid.New())
	inv.BrideName = `Siti <script>`

	env.Mock.ExpectQuery(`FROM invitations WHERE slug = \$1 AND status = 'published'`).
		WithArgs("siti-budi").
		WillReturnRows(invitationRows(inv))
	env.Mock.ExpectQuery(`SELECT name, message, rsvp_status`).
		WithArgs(inv.ID, sharePageMessages).
		WillReturnRows(sqlmock.NewRows([]string{"name", "message", "rsvp_status", "at"}).
			AddRow("Rina", "Bahagia selalu", "attending", fixedTime))

	var first string
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		env.Public.SharePage(rec, publicRequest(http.MethodGet, "siti-budi", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		if i == 0 {
			first = body
		} else {
			assert.Equal(t, first, body)
		}
	}

	assert.Contains(t, first, `property="og:image" content="`+testBaseURL+`/api/public/siti-budi/og-image"`)
	assert.Contains(t, first, `<html lang="id"`)
	assert.Contains(t, first, "Bahagia selalu")
	assert.Contains(t, first, "Sabtu, 14 Juni 2025")
	assert.NotContains(t, first, "<script>")
	assert.True(t, env.Redis.Exists("page:siti-budi"))
}

func TestSharePageNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.expectFindPublished("nobody", nil)

	rec := httptest.NewRecorder()
	env.Public.SharePage(rec, publicRequest(http.MethodGet, "nobody", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invitation not found")
	assert.False(t, env.Redis.Exists("page:nobody"))
}

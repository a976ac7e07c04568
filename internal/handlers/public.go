// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/language"

	"kekkon/internal/cache"
	"kekkon/internal/mailer"
	"kekkon/internal/markdown"
	"kekkon/internal/metrics"
	"kekkon/internal/models"
	"kekkon/internal/preview"
	"kekkon/internal/render"
	"kekkon/internal/response"
	"kekkon/internal/storage"
	"kekkon/internal/store"
	"kekkon/internal/token"
)

const (
	// sharePageMessages is how many wishes the HTML page shows.
	sharePageMessages = 50

	// QR code sizes in pixels.
	qrDefaultSize = 512
	qrMinSize     = 128
	qrMaxSize     = 1024

	// notifyTimeout bounds the asynchronous owner notification.
	notifyTimeout = 15 * time.Second
)

// PublicDeps bundles the dependencies of the Public handler group.
type PublicDeps struct {
	Invitations *store.InvitationStore
	Guests      *store.GuestStore
	Users       *store.UserStore
	Storage     storage.Backend
	Previews    PreviewRenderer
	ImageCache  *cache.PageCache
	PageCache   *cache.PageCache
	Renderer    *render.Renderer
	Signer      *token.Signer
	Mailer      mailer.Mailer // nil disables RSVP notifications
	BaseURL     string
	Locale      language.Tag
}

// Public groups the unauthenticated endpoints guests reach through a
// shared link: the invitation itself, its wishes wall, the RSVP form and
// the social preview image. Drafts are invisible here.
type Public struct {
	invitations *store.InvitationStore
	guests      *store.GuestStore
	users       *store.UserStore
	storage     storage.Backend
	previews    PreviewRenderer
	imageCache  *cache.PageCache
	pageCache   *cache.PageCache
	renderer    *render.Renderer
	signer      *token.Signer
	mailer      mailer.Mailer
	baseURL     string
	locale      language.Tag
}

// NewPublic creates a new Public handler group.
func NewPublic(d PublicDeps) *Public {
	return &Public{
		invitations: d.Invitations,
		guests:      d.Guests,
		users:       d.Users,
		storage:     d.Storage,
		previews:    d.Previews,
		imageCache:  d.ImageCache,
		pageCache:   d.PageCache,
		renderer:    d.Renderer,
		signer:      d.Signer,
		mailer:      d.Mailer,
		baseURL:     d.BaseURL,
		locale:      d.Locale,
	}
}

// published loads the published invitation named by {slug}.
func (p *Public) published(w http.ResponseWriter, r *http.Request) (*models.Invitation, bool) {
	inv, err := p.invitations.FindPublishedBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		response.Internal(w, r, "find published invitation failed", err)
		return nil, false
	}
	if inv == nil {
		notFound(w, "invitation")
		return nil, false
	}
	return inv, true
}

// publicInvitation is what guests see of an invitation. Owner, status and
// counters stay private.
type publicInvitation struct {
	Slug           string     `json:"slug"`
	BrideName      string     `json:"bride_name"`
	GroomName      string     `json:"groom_name"`
	BridePhotoURL  string     `json:"bride_photo_url,omitempty"`
	GroomPhotoURL  string     `json:"groom_photo_url,omitempty"`
	WeddingDate    *time.Time `json:"wedding_date,omitempty"`
	DateText       string     `json:"date_text,omitempty"`
	VenueName      *string    `json:"venue_name,omitempty"`
	VenueAddress   *string    `json:"venue_address,omitempty"`
	MapURL         *string    `json:"map_url,omitempty"`
	StoryHTML      string     `json:"story_html,omitempty"`
	Template       string     `json:"template"`
	PrimaryColor   string     `json:"primary_color"`
	SecondaryColor string     `json:"secondary_color"`
	FontFamily     string     `json:"font_family"`
	MusicURL       *string    `json:"music_url,omitempty"`
	ShareURL       string     `json:"share_url"`
	OGImageURL     string     `json:"og_image_url"`
}

func (p *Public) photoURL(key *string) string {
	if key == nil || *key == "" || p.storage == nil {
		return ""
	}
	return p.storage.URL(*key)
}

func (p *Public) dateText(inv *models.Invitation) string {
	if inv.WeddingDate == nil {
		return ""
	}
	return preview.FormatDate(*inv.WeddingDate, p.locale)
}

func (p *Public) ogImageURL(slug string) string {
	return p.baseURL + "/api/public/" + slug + "/og-image"
}

// Invitation returns a published invitation and counts the view.
func (p *Public) Invitation(w http.ResponseWriter, r *http.Request) {
	inv, ok := p.published(w, r)
	if !ok {
		return
	}
	if err := p.invitations.IncrementViews(inv.ID); err != nil {
		slog.Warn("increment views failed", "invitation_id", inv.ID, "error", err)
	}

	story, err := markdown.ToHTML(deref(inv.Story))
	if err != nil {
		slog.Warn("story markdown failed", "invitation_id", inv.ID, "error", err)
	}

	response.JSON(w, http.StatusOK, publicInvitation{
		Slug:           inv.Slug,
		BrideName:      inv.BrideName,
		GroomName:      inv.GroomName,
		BridePhotoURL:  p.photoURL(inv.BridePhoto),
		GroomPhotoURL:  p.photoURL(inv.GroomPhoto),
		WeddingDate:    inv.WeddingDate,
		DateText:       p.dateText(inv),
		VenueName:      inv.VenueName,
		VenueAddress:   inv.VenueAddress,
		MapURL:         inv.MapURL,
		StoryHTML:      story,
		Template:       inv.Template,
		PrimaryColor:   inv.PrimaryColor,
		SecondaryColor: inv.SecondaryColor,
		FontFamily:     inv.FontFamily,
		MusicURL:       inv.MusicURL,
		ShareURL:       shareURL(p.baseURL, inv.Slug),
		OGImageURL:     p.ogImageURL(inv.Slug),
	})
}

// Messages returns the wishes wall, newest first.
func (p *Public) Messages(w http.ResponseWriter, r *http.Request) {
	inv, ok := p.published(w, r)
	if !ok {
		return
	}
	limit, _ := pageParams(r, sharePageMessages, 100)
	msgs, err := p.guests.ListMessages(inv.ID, limit)
	if err != nil {
		response.Internal(w, r, "list messages failed", err)
		return
	}
	if msgs == nil {
		msgs = []models.GuestMessage{}
	}
	response.JSON(w, http.StatusOK, msgs)
}

// rsvpReceipt is returned to the guest after answering.
type rsvpReceipt struct {
	Name   string            `json:"name"`
	Status models.RSVPStatus `json:"status"`
	Pax    int               `json:"pax"`
}

// RSVP records a guest's answer. With a personalized token the guest's own
// row is updated; otherwise an anonymous guest is added. The owner is
// notified by email in the background.
func (p *Public) RSVP(w http.ResponseWriter, r *http.Request) {
	inv, ok := p.published(w, r)
	if !ok {
		return
	}

	var in rsvpInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.validate(); errs != nil {
		response.Invalid(w, errs)
		return
	}

	var guest *models.Guest
	status := models.RSVPStatus(in.Status)

	if in.Token != "" {
		claims, err := p.signer.Parse(in.Token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired invitation link")
			return
		}
		gid, err := claims.GuestID()
		if err != nil || claims.InvitationID != inv.ID {
			response.Error(w, http.StatusForbidden, response.CodeForbidden, "invitation link does not belong to this invitation")
			return
		}
		guest, err = p.guests.RecordRSVP(inv.ID, &gid, "", status, in.pax(), in.Message)
		if err != nil {
			response.Internal(w, r, "record rsvp failed", err)
			return
		}
		if guest == nil {
			notFound(w, "guest")
			return
		}
	} else {
		var err error
		guest, err = p.guests.RecordRSVP(inv.ID, nil, in.Name, status, in.pax(), in.Message)
		if err != nil {
			response.Internal(w, r, "record rsvp failed", err)
			return
		}
	}

	// The wishes wall on the share page changed.
	p.pageCache.Invalidate(r.Context(), inv.Slug)

	slog.Info("rsvp recorded", "invitation_id", inv.ID, "guest_id", guest.ID, "status", guest.RSVPStatus)
	p.notifyOwner(inv, guest)

	response.JSON(w, http.StatusCreated, rsvpReceipt{Name: guest.Name, Status: guest.RSVPStatus, Pax: guest.Pax})
}

// notifyOwner emails the invitation owner about an RSVP. It runs in the
// background and only logs failures.
func (p *Public) notifyOwner(inv *models.Invitation, g *models.Guest) {
	if p.mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		owner, err := p.users.FindByID(inv.OwnerID)
		if err != nil || owner == nil {
			slog.Warn("rsvp notify: owner lookup failed", "invitation_id", inv.ID, "error", err)
			return
		}

		subject, html, text, err := mailer.RSVPNotice{
			OwnerName: owner.DisplayName,
			Couple:    inv.CoupleName(),
			GuestName: g.Name,
			Status:    string(g.RSVPStatus),
			Pax:       g.Pax,
			Message:   deref(g.Message),
			ManageURL: p.baseURL + "/api/invitations/" + inv.ID.String() + "/guests",
		}.Render()
		if err != nil {
			slog.Warn("rsvp notify: render failed", "error", err)
			return
		}
		if err := p.mailer.Send(ctx, owner.Email, subject, html, text); err != nil {
			slog.Warn("rsvp notify: send failed", "invitation_id", inv.ID, "error", err)
		}
	}()
}

// OGImage serves the social preview of a published invitation. Rendered
// images are kept in Valkey until the invitation changes, unless a portrait
// was dropped for a reason that may clear up on the next request.
func (p *Public) OGImage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if data, ok := p.imageCache.Get(r.Context(), slug); ok {
		metrics.ObserveRender(metrics.RenderCacheHit, 0)
		writeImage(w, preview.ContentType, preview.CacheControl, data)
		return
	}

	inv, ok := p.published(w, r)
	if !ok {
		return
	}

	start := time.Now()
	img, err := p.previews.Render(r.Context(), inv.PreviewRequest())
	if err != nil {
		metrics.ObserveRender(metrics.RenderError, time.Since(start))
		if !errors.Is(err, preview.ErrRenderFailure) {
			err = errors.Join(preview.ErrRenderFailure, err)
		}
		response.Internal(w, r, "og image render failed", err)
		return
	}
	metrics.ObserveRender(metrics.RenderOK, time.Since(start))
	for _, s := range img.Skipped {
		if s.Reason != "none" {
			metrics.PortraitSkipped(s.Reason)
			slog.Debug("portrait skipped", "slug", slug, "slot", s.Slot, "reason", s.Reason)
		}
	}

	if img.Cacheable() {
		p.imageCache.Set(r.Context(), slug, img.Data)
	}
	writeImage(w, img.ContentType, img.CacheControl, img.Data)
}

// QRCode serves a PNG QR code of the share page address. ?size= picks the
// edge length in pixels.
func (p *Public) QRCode(w http.ResponseWriter, r *http.Request) {
	inv, ok := p.published(w, r)
	if !ok {
		return
	}
	size := qrDefaultSize
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		size = max(qrMinSize, min(v, qrMaxSize))
	}

	png, err := qrcode.Encode(shareURL(p.baseURL, inv.Slug), qrcode.Medium, size)
	if err != nil {
		response.Internal(w, r, "qr code generation failed", err)
		return
	}
	writeImage(w, "image/png", "public, max-age=3600", png)
}

// SharePage renders the HTML invitation with Open Graph tags, so links
// unfurl with the preview image. Rendered pages are cached in Valkey.
func (p *Public) SharePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if cached, ok := p.pageCache.Get(r.Context(), slug); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(cached)
		return
	}

	inv, err := p.invitations.FindPublishedBySlug(slug)
	if err != nil {
		slog.Error("find published invitation failed", "error", err, "slug", slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if inv == nil {
		p.renderer.Page(w, http.StatusNotFound, "not_found", &render.PageData{
			Lang:  p.lang(),
			Title: "Invitation not found",
		})
		return
	}

	msgs, err := p.guests.ListMessages(inv.ID, sharePageMessages)
	if err != nil {
		slog.Warn("list messages for share page failed", "invitation_id", inv.ID, "error", err)
	}
	wall := make([]render.Message, 0, len(msgs))
	for _, m := range msgs {
		wall = append(wall, render.Message{Name: m.Name, Message: m.Message})
	}

	description := "The wedding of " + inv.CoupleName()
	if dt := p.dateText(inv); dt != "" {
		description += ", " + dt
	}

	body, err := p.renderer.Bytes("invitation", &render.PageData{
		Lang:         p.lang(),
		Title:        inv.CoupleName(),
		Description:  description,
		CanonicalURL: shareURL(p.baseURL, inv.Slug),
		ImageURL:     p.ogImageURL(inv.Slug),
		ImageWidth:   preview.Width,
		ImageHeight:  preview.Height,
		ThemeColor:   inv.PrimaryColor,
		Data: render.Invitation{
			BrideName:      inv.BrideName,
			GroomName:      inv.GroomName,
			BridePhotoURL:  p.photoURL(inv.BridePhoto),
			GroomPhotoURL:  p.photoURL(inv.GroomPhoto),
			DateText:       p.dateText(inv),
			VenueName:      deref(inv.VenueName),
			VenueAddress:   deref(inv.VenueAddress),
			MapURL:         deref(inv.MapURL),
			MusicURL:       deref(inv.MusicURL),
			Story:          markdown.Story(deref(inv.Story)),
			PrimaryColor:   inv.PrimaryColor,
			SecondaryColor: inv.SecondaryColor,
			Template:       inv.Template,
			FontFamily:     inv.FontFamily,
			RSVPURL:        "/api/public/" + inv.Slug + "/rsvp",
			Messages:       wall,
		},
	})
	if err != nil {
		slog.Error("render share page failed", "error", err, "slug", slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(r.Context(), slug, body)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

func (p *Public) lang() string {
	base, _ := p.locale.Base()
	return base.String()
}

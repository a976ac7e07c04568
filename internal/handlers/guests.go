// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/url"
	"time"

	"kekkon/internal/models"
	"kekkon/internal/response"
	"kekkon/internal/store"
	"kekkon/internal/token"
)

// Guests groups the owner-facing guest list endpoints, nested under
// /api/invitations/{id}.
type Guests struct {
	invitations *store.InvitationStore
	guests      *store.GuestStore
	signer      *token.Signer
	baseURL     string
	linkTTL     time.Duration
}

// NewGuests creates a new Guests handler group. Personalized links point
// at baseURL and stay valid for linkTTL.
func NewGuests(invitations *store.InvitationStore, guests *store.GuestStore, signer *token.Signer, baseURL string, linkTTL time.Duration) *Guests {
	return &Guests{
		invitations: invitations,
		guests:      guests,
		signer:      signer,
		baseURL:     baseURL,
		linkTTL:     linkTTL,
	}
}

// invitation loads the parent invitation if the signed-in user owns it.
func (h *Guests) invitation(w http.ResponseWriter, r *http.Request) (*models.Invitation, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	inv, err := h.invitations.FindByID(id)
	if err != nil {
		response.Internal(w, r, "find invitation failed", err)
		return nil, false
	}
	if inv == nil || inv.OwnerID != currentSession(r).UserID {
		notFound(w, "invitation")
		return nil, false
	}
	return inv, true
}

// guest loads the {guestID} guest of an owned invitation.
func (h *Guests) guest(w http.ResponseWriter, r *http.Request) (*models.Invitation, *models.Guest, bool) {
	inv, ok := h.invitation(w, r)
	if !ok {
		return nil, nil, false
	}
	gid, ok := uuidParam(w, r, "guestID")
	if !ok {
		return nil, nil, false
	}
	g, err := h.guests.FindByID(inv.ID, gid)
	if err != nil {
		response.Internal(w, r, "find guest failed", err)
		return nil, nil, false
	}
	if g == nil {
		notFound(w, "guest")
		return nil, nil, false
	}
	return inv, g, true
}

// List returns the full guest list.
func (h *Guests) List(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invitation(w, r)
	if !ok {
		return
	}
	items, err := h.guests.ListByInvitation(inv.ID)
	if err != nil {
		response.Internal(w, r, "list guests failed", err)
		return
	}
	if items == nil {
		items = []models.Guest{}
	}
	response.JSON(w, http.StatusOK, items)
}

// Create adds a guest in the pending state.
func (h *Guests) Create(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invitation(w, r)
	if !ok {
		return
	}
	var in guestInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.validate(); errs != nil {
		response.Invalid(w, errs)
		return
	}

	g, err := h.guests.Create(&models.Guest{
		InvitationID: inv.ID,
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		Pax:          in.pax(),
	})
	if err != nil {
		response.Internal(w, r, "create guest failed", err)
		return
	}
	response.JSON(w, http.StatusCreated, g)
}

// Update edits a guest's contact details and seat count. The RSVP answer
// belongs to the guest and is not editable here.
func (h *Guests) Update(w http.ResponseWriter, r *http.Request) {
	_, g, ok := h.guest(w, r)
	if !ok {
		return
	}
	var in guestInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.validate(); errs != nil {
		response.Invalid(w, errs)
		return
	}

	g.Name = in.Name
	g.Phone = in.Phone
	g.Email = in.Email
	if in.Pax != nil {
		g.Pax = *in.Pax
	}
	if err := h.guests.Update(g); err != nil {
		response.Internal(w, r, "update guest failed", err)
		return
	}
	response.JSON(w, http.StatusOK, g)
}

// Delete removes a guest.
func (h *Guests) Delete(w http.ResponseWriter, r *http.Request) {
	inv, g, ok := h.guest(w, r)
	if !ok {
		return
	}
	if err := h.guests.Delete(inv.ID, g.ID); err != nil {
		response.Internal(w, r, "delete guest failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary returns RSVP counts for the invitation.
func (h *Guests) Summary(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invitation(w, r)
	if !ok {
		return
	}
	sum, err := h.guests.Summary(inv.ID)
	if err != nil {
		response.Internal(w, r, "guest summary failed", err)
		return
	}
	response.JSON(w, http.StatusOK, sum)
}

// Link issues a personalized share link. Opening it pre-identifies the
// guest, so their RSVP updates their own row instead of adding a new one.
func (h *Guests) Link(w http.ResponseWriter, r *http.Request) {
	inv, g, ok := h.guest(w, r)
	if !ok {
		return
	}
	tok, err := h.signer.Issue(g.ID, inv.ID, h.linkTTL)
	if err != nil {
		response.Internal(w, r, "issue guest token failed", err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"url":        shareURL(h.baseURL, inv.Slug) + "?" + url.Values{"t": {tok}}.Encode(),
		"token":      tok,
		"expires_at": time.Now().Add(h.linkTTL).UTC(),
	})
}

// shareURL is the public HTML address of an invitation.
func shareURL(baseURL, slug string) string {
	return baseURL + "/i/" + slug
}

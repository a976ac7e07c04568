// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kekkon/internal/cache"
	"kekkon/internal/imaging"
	"kekkon/internal/models"
	"kekkon/internal/preview"
	"kekkon/internal/response"
	"kekkon/internal/slug"
	"kekkon/internal/storage"
	"kekkon/internal/store"
)

// maxUploadSize caps a single portrait upload (10 MB).
const maxUploadSize = 10 << 20

// maxSlugAttempts bounds the random suffix retries for generated slugs.
const maxSlugAttempts = 5

// Invitations groups the owner-facing invitation endpoints. Every lookup
// is scoped to the signed-in user; other users' invitations read as 404.
type Invitations struct {
	invitations *store.InvitationStore
	storage     storage.Backend
	previews    PreviewRenderer
	invalidator *cache.Invalidator
}

// NewInvitations creates a new Invitations handler group.
func NewInvitations(invitations *store.InvitationStore, backend storage.Backend, previews PreviewRenderer, invalidator *cache.Invalidator) *Invitations {
	return &Invitations{
		invitations: invitations,
		storage:     backend,
		previews:    previews,
		invalidator: invalidator,
	}
}

// owned loads the invitation named by the {id} parameter if it belongs to
// the signed-in user. On failure the response is already written.
func (h *Invitations) owned(w http.ResponseWriter, r *http.Request) (*models.Invitation, bool) {
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

// List returns the signed-in user's invitations.
func (h *Invitations) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.invitations.ListByOwner(currentSession(r).UserID)
	if err != nil {
		response.Internal(w, r, "list invitations failed", err)
		return
	}
	if items == nil {
		items = []models.Invitation{}
	}
	response.JSON(w, http.StatusOK, items)
}

// Get returns one invitation.
func (h *Invitations) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, inv)
}

// Create stores a new draft. Without an explicit slug one is derived from
// the couple's names and made unique with a random suffix.
func (h *Invitations) Create(w http.ResponseWriter, r *http.Request) {
	var in invitationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.validate(); errs != nil {
		response.Invalid(w, errs)
		return
	}

	inv := &models.Invitation{OwnerID: currentSession(r).UserID}
	in.apply(inv)

	if in.Slug != "" {
		inv.Slug = in.Slug
	} else {
		s, err := h.uniqueSlug(slug.ForCouple(in.BrideName, in.GroomName))
		if err != nil {
			response.Internal(w, r, "generate slug failed", err)
			return
		}
		inv.Slug = s
	}

	created, err := h.invitations.Create(inv)
	if errors.Is(err, store.ErrDuplicateSlug) {
		response.Invalid(w, map[string]string{"slug": "Slug is already taken."})
		return
	}
	if err != nil {
		response.Internal(w, r, "create invitation failed", err)
		return
	}

	slog.Info("invitation created", "invitation_id", created.ID, "slug", created.Slug)
	response.JSON(w, http.StatusCreated, created)
}

// uniqueSlug returns base if free, otherwise base with a random suffix.
func (h *Invitations) uniqueSlug(base string) (string, error) {
	candidate := base
	for range maxSlugAttempts {
		taken, err := h.invitations.SlugExists(candidate, uuid.Nil)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// Update replaces the editable fields. Changing the slug drops the cached
// pages of both the old and the new address.
func (h *Invitations) Update(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}

	var in invitationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.validate(); errs != nil {
		response.Invalid(w, errs)
		return
	}

	oldSlug := inv.Slug
	in.apply(inv)
	if in.Slug != "" {
		inv.Slug = in.Slug
	}

	err := h.invitations.Update(inv)
	if errors.Is(err, store.ErrDuplicateSlug) {
		response.Invalid(w, map[string]string{"slug": "Slug is already taken."})
		return
	}
	if err != nil {
		response.Internal(w, r, "update invitation failed", err)
		return
	}

	h.invalidator.InvalidateInvitation(r.Context(), oldSlug)
	if inv.Slug != oldSlug {
		h.invalidator.InvalidateInvitation(r.Context(), inv.Slug)
	}
	response.JSON(w, http.StatusOK, inv)
}

// Delete removes an invitation, its guests and its stored portraits.
func (h *Invitations) Delete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.invitations.Delete(inv.ID); err != nil {
		response.Internal(w, r, "delete invitation failed", err)
		return
	}
	removeInvitationAssets(r, h.storage, h.invalidator, inv)
	slog.Info("invitation deleted", "invitation_id", inv.ID)
	w.WriteHeader(http.StatusNoContent)
}

// removeInvitationAssets drops stored portraits and cached renders of a
// deleted invitation. Failures are logged; the row is already gone.
func removeInvitationAssets(r *http.Request, backend storage.Backend, iv *cache.Invalidator, inv *models.Invitation) {
	for _, key := range []*string{inv.BridePhoto, inv.GroomPhoto} {
		if key == nil || backend == nil {
			continue
		}
		if err := backend.Delete(r.Context(), *key); err != nil {
			slog.Warn("delete portrait failed", "key", *key, "error", err)
		}
	}
	iv.InvalidateInvitation(r.Context(), inv.Slug)
}

// Publish makes the invitation reachable on its public address.
func (h *Invitations) Publish(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusPublished)
}

// Unpublish takes the invitation back to draft.
func (h *Invitations) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusDraft)
}

func (h *Invitations) setStatus(w http.ResponseWriter, r *http.Request, status models.InvitationStatus) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.invitations.SetStatus(inv.ID, status); err != nil {
		response.Internal(w, r, "set invitation status failed", err)
		return
	}
	inv.Status = status
	h.invalidator.InvalidateInvitation(r.Context(), inv.Slug)
	response.JSON(w, http.StatusOK, inv)
}

// UploadPhoto accepts a multipart "photo" for the bride or groom slot. The
// image is normalized to JPEG and stored under a fresh key, so cached
// previews never point at a replaced object.
func (h *Invitations) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}
	slot := preview.Slot(chi.URLParam(r, "slot"))
	if !slot.Valid() {
		notFound(w, "photo slot")
		return
	}

	// Limit request body to maxUploadSize plus some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "photo too large (max 10 MB)")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		response.Invalid(w, map[string]string{"photo": "A photo file is required."})
		return
	}
	defer file.Close()

	original, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		response.Internal(w, r, "read upload failed", err)
		return
	}
	if len(original) > maxUploadSize {
		response.Error(w, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "photo too large (max 10 MB)")
		return
	}

	img, err := imaging.Normalize(original)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedType):
		response.Error(w, http.StatusUnsupportedMediaType, response.CodeUnsupported, "photo must be JPEG, PNG, WebP or GIF")
		return
	case errors.Is(err, imaging.ErrTooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "photo dimensions too large")
		return
	case err != nil:
		response.Invalid(w, map[string]string{"photo": "The file could not be read as an image."})
		return
	}

	key := fmt.Sprintf("invitations/%s/%s-%s.jpg", inv.ID, slot, uuid.NewString())
	if err := h.storage.Put(r.Context(), key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		response.Internal(w, r, "store photo failed", err)
		return
	}
	if err := h.invitations.SetPhoto(inv.ID, string(slot), key); err != nil {
		response.Internal(w, r, "save photo key failed", err)
		return
	}

	previous := inv.BridePhoto
	if slot == preview.SlotGroom {
		previous = inv.GroomPhoto
	}
	if previous != nil && *previous != key {
		if err := h.storage.Delete(r.Context(), *previous); err != nil {
			slog.Warn("delete replaced portrait failed", "key", *previous, "error", err)
		}
	}
	h.invalidator.InvalidateInvitation(r.Context(), inv.Slug)

	slog.Info("portrait uploaded", "invitation_id", inv.ID, "slot", slot, "bytes", len(img.Data))
	response.JSON(w, http.StatusCreated, map[string]any{
		"slot":   slot,
		"key":    key,
		"url":    h.storage.URL(key),
		"width":  img.Width,
		"height": img.Height,
	})
}

// Preview renders the social preview of any invitation the user owns,
// drafts included. The result is never cached.
func (h *Invitations) Preview(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}
	img, err := h.previews.Render(r.Context(), inv.PreviewRequest())
	if err != nil {
		response.Internal(w, r, "owner preview render failed", err)
		return
	}
	writeImage(w, img.ContentType, "private, no-store", img.Data)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"kekkon/internal/cache"
	"kekkon/internal/models"
	"kekkon/internal/response"
	"kekkon/internal/storage"
	"kekkon/internal/store"
)

// Admin listings are paginated with these bounds.
const (
	adminPageSize    = 50
	adminMaxPageSize = 200
)

// Admin groups the platform moderation endpoints.
type Admin struct {
	users       *store.UserStore
	invitations *store.InvitationStore
	stats       *store.StatsStore
	storage     storage.Backend
	invalidator *cache.Invalidator
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(users *store.UserStore, invitations *store.InvitationStore, stats *store.StatsStore, backend storage.Backend, invalidator *cache.Invalidator) *Admin {
	return &Admin{
		users:       users,
		invitations: invitations,
		stats:       stats,
		storage:     backend,
		invalidator: invalidator,
	}
}

// Stats returns platform-wide counters.
func (a *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.stats.Platform()
	if err != nil {
		response.Internal(w, r, "platform stats failed", err)
		return
	}
	response.JSON(w, http.StatusOK, st)
}

// page is a paginated listing.
type page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total,omitempty"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Users lists accounts, newest first.
func (a *Admin) Users(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, adminPageSize, adminMaxPageSize)
	users, err := a.users.List(limit, offset)
	if err != nil {
		response.Internal(w, r, "list users failed", err)
		return
	}
	total, err := a.users.Count()
	if err != nil {
		response.Internal(w, r, "count users failed", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	response.JSON(w, http.StatusOK, page[models.User]{Items: users, Total: total, Limit: limit, Offset: offset})
}

// DeleteUser removes an account with all its invitations. Admins cannot
// delete themselves.
func (a *Admin) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if id == currentSession(r).UserID {
		response.Error(w, http.StatusConflict, response.CodeConflict, "you cannot delete your own account")
		return
	}

	user, err := a.users.FindByID(id)
	if err != nil {
		response.Internal(w, r, "find user failed", err)
		return
	}
	if user == nil {
		notFound(w, "user")
		return
	}

	// Collect the invitations first; the delete cascades to them.
	owned, err := a.invitations.ListByOwner(user.ID)
	if err != nil {
		response.Internal(w, r, "list user invitations failed", err)
		return
	}
	if err := a.users.Delete(user.ID); err != nil {
		response.Internal(w, r, "delete user failed", err)
		return
	}
	for i := range owned {
		removeInvitationAssets(r, a.storage, a.invalidator, &owned[i])
	}

	slog.Info("user deleted by admin", "user_id", user.ID, "admin_id", currentSession(r).UserID, "invitations", len(owned))
	w.WriteHeader(http.StatusNoContent)
}

// Invitations lists every invitation on the platform, newest first.
func (a *Admin) Invitations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, adminPageSize, adminMaxPageSize)
	items, err := a.invitations.ListAll(limit, offset)
	if err != nil {
		response.Internal(w, r, "list all invitations failed", err)
		return
	}
	if items == nil {
		items = []models.Invitation{}
	}
	response.JSON(w, http.StatusOK, page[models.Invitation]{Items: items, Limit: limit, Offset: offset})
}

// DeleteInvitation removes any invitation, for moderation.
func (a *Admin) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	inv, err := a.invitations.FindByID(id)
	if err != nil {
		response.Internal(w, r, "find invitation failed", err)
		return
	}
	if inv == nil {
		notFound(w, "invitation")
		return
	}
	if err := a.invitations.Delete(inv.ID); err != nil {
		response.Internal(w, r, "delete invitation failed", err)
		return
	}
	removeInvitationAssets(r, a.storage, a.invalidator, inv)

	slog.Info("invitation deleted by admin", "invitation_id", inv.ID, "admin_id", currentSession(r).UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"kekkon/internal/models"
	"kekkon/internal/response"
	"kekkon/internal/session"
	"kekkon/internal/store"
)

// totpIssuer is shown by authenticator apps next to the account.
const totpIssuer = "kekkon"

// Second-factor state reported by login and /me.
const (
	twoFactorNone   = "none"   // nothing owed
	twoFactorVerify = "verify" // enrolled, code required
	twoFactorSetup  = "setup"  // admin who must enroll first
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

// userView is the public shape of an account.
type userView struct {
	*models.User
	TwoFactor string `json:"two_factor"`
}

func twoFactorState(u *models.User, done bool) string {
	switch {
	case done:
		return twoFactorNone
	case u.TOTPEnabled:
		return twoFactorVerify
	case u.Needs2FASetup():
		return twoFactorSetup
	}
	return twoFactorNone
}

// Register creates a regular user account and signs it in.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.validate(); errs != nil {
		response.Invalid(w, errs)
		return
	}

	user, err := a.userStore.Create(in.Email, in.Password, in.DisplayName, models.RoleUser)
	if errors.Is(err, store.ErrDuplicateEmail) {
		response.Error(w, http.StatusConflict, response.CodeConflict, "email already registered")
		return
	}
	if err != nil {
		response.Internal(w, r, "register user failed", err)
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, sessionFor(user, true)); err != nil {
		response.Internal(w, r, "session create failed", err)
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	response.JSON(w, http.StatusCreated, userView{User: user, TwoFactor: twoFactorNone})
}

// Login checks credentials and opens a session. Users with TOTP enabled and
// admins without it get a session that must pass /api/auth/2fa first.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := a.userStore.FindByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		response.Internal(w, r, "login lookup failed", err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, in.Password) {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "invalid email or password")
		return
	}

	done := !user.TOTPEnabled && !user.Needs2FASetup()
	if _, err := a.sessions.Create(r.Context(), w, sessionFor(user, done)); err != nil {
		response.Internal(w, r, "session create failed", err)
		return
	}

	response.JSON(w, http.StatusOK, userView{User: user, TwoFactor: twoFactorState(user, done)})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in account.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		response.Internal(w, r, "me lookup failed", err)
		return
	}
	if user == nil {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "account no longer exists")
		return
	}
	response.JSON(w, http.StatusOK, userView{User: user, TwoFactor: twoFactorState(user, sess.TwoFADone)})
}

// TwoFASetup generates a TOTP secret for the signed-in user and returns it
// together with a QR code for authenticator apps. Accounts that already
// completed enrollment cannot re-enroll.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		response.Internal(w, r, "user lookup for 2fa failed", err)
		return
	}
	if user.TOTPEnabled {
		response.Error(w, http.StatusConflict, response.CodeConflict, "two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		response.Internal(w, r, "totp generate failed", err)
		return
	}
	if err := a.userStore.SetTOTPSecret(user.ID, key.Secret()); err != nil {
		response.Internal(w, r, "save totp secret failed", err)
		return
	}

	qr, err := enrollmentQR(key)
	if err != nil {
		response.Internal(w, r, "qr code generation failed", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"secret":      key.Secret(),
		"otpauth_url": key.URL(),
		"qr_png":      qr,
	})
}

// enrollmentQR returns the otpauth URL as a base64 PNG.
func enrollmentQR(key *otp.Key) (string, error) {
	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// TwoFAVerify validates a TOTP code. The first successful code finishes
// enrollment; every success marks the session as fully authenticated.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	var in codeInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		response.Internal(w, r, "user lookup for 2fa failed", err)
		return
	}
	if user.TOTPSecret == nil {
		response.Error(w, http.StatusConflict, response.CodeConflict, "two-factor authentication is not set up")
		return
	}

	if !totp.Validate(strings.TrimSpace(in.Code), *user.TOTPSecret) {
		response.Invalid(w, map[string]string{"code": "Invalid code. Please try again."})
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			response.Internal(w, r, "enable totp failed", err)
			return
		}
		user.TOTPEnabled = true
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		response.Internal(w, r, "session update failed", err)
		return
	}

	response.JSON(w, http.StatusOK, userView{User: user, TwoFactor: twoFactorNone})
}

func sessionFor(u *models.User, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		TwoFADone:   twoFADone,
	}
}

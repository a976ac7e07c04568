// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package token issues and verifies personalized guest links. A guest
// link carries an HS256 JWT naming the guest and the invitation, so an
// RSVP through it updates that guest's row instead of creating a new one.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of every guest token.
const Issuer = "kekkon"

// ErrInvalidToken covers bad signatures, expired tokens and malformed input.
var ErrInvalidToken = errors.New("token: invalid guest token")

// GuestClaims identifies one guest of one invitation.
type GuestClaims struct {
	jwt.RegisteredClaims
	InvitationID uuid.UUID `json:"inv"`
}

// GuestID returns the subject as a UUID.
func (c *GuestClaims) GuestID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Signer signs and parses guest tokens with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer for secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for the guest, valid for ttl.
func (s *Signer) Issue(guestID, invitationID uuid.UUID, ttl time.Duration) (string, error) {
	now := s.now()
	claims := GuestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   guestID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		InvitationID: invitationID,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign guest token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its claims. Every failure wraps
// ErrInvalidToken.
func (s *Signer) Parse(raw string) (*GuestClaims, error) {
	claims := &GuestClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.GuestID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if claims.InvitationID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing invitation", ErrInvalidToken)
	}
	return claims, nil
}

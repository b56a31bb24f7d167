// Package authtoken issues and verifies the HS256 session tokens handed to
// the HTTP surface after login.
package authtoken

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type claims struct {
	Email             string `json:"email"`
	IsAdmin           bool   `json:"admin"`
	IsPrimaryDelegate bool   `json:"primary_delegate"`
	ClubID            *int64 `json:"club_id,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *Issuer) Issue(u user.User) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("session secret is not configured")
	}

	now := i.now()
	c := claims{
		Email:             u.Email,
		IsAdmin:           u.IsAdmin,
		IsPrimaryDelegate: u.IsPrimaryDelegate,
		ClubID:            u.ClubID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken satisfies the HTTP surface's TokenVerifier.
func (i *Issuer) VerifyAccessToken(_ context.Context, tokenString string) (user.Principal, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !parsed.Valid {
		return user.Principal{}, user.ErrInvalidSessionToken
	}

	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil {
		return user.Principal{}, fmt.Errorf("%w: bad subject", user.ErrInvalidSessionToken)
	}

	return user.Principal{
		UserID:            userID,
		Email:             c.Email,
		IsAdmin:           c.IsAdmin,
		IsPrimaryDelegate: c.IsPrimaryDelegate,
		ClubID:            c.ClubID,
	}, nil
}

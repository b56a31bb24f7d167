package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidInviteToken   = errors.New("invitation token is invalid or expired")
	ErrInvalidSessionToken  = errors.New("session token is invalid or expired")
	ErrTargetAlreadyPrimary = errors.New("target user is already the primary delegate")
)

// InviteTokenTTL is the wall-clock lifetime of a delegate invitation.
const InviteTokenTTL = 7 * 24 * time.Hour

// User is an account holder, optionally affiliated with a club as a delegate.
// The primary delegate of a club carries administrative rights over it.
type User struct {
	ID                int64
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	PhoneNumber       string
	IsAdmin           bool
	IsPrimaryDelegate bool
	IsActive          bool
	ClubID            *int64
	LastLoginAt       *time.Time
	InviteToken       *string
	InviteExpiresAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u User) Validate() error {
	if NormalizeEmail(u.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(u.FirstName) == "" && u.InviteToken == nil {
		return fmt.Errorf("first name is required")
	}
	return nil
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InviteValidAt reports whether the user holds an unexpired invitation.
func (u User) InviteValidAt(now time.Time) bool {
	return !u.IsActive && u.InviteToken != nil && u.InviteExpiresAt != nil && now.Before(*u.InviteExpiresAt)
}

// NormalizeEmail lowercases and trims an email address. Every lookup and
// every stored email goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

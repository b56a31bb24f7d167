package postgres

import (
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type userTableModel struct {
	ID                int64      `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	PhoneNumber       string     `db:"phone_number"`
	IsAdmin           bool       `db:"is_admin"`
	IsPrimaryDelegate bool       `db:"is_primary_delegate"`
	IsActive          bool       `db:"is_active"`
	ClubID            *int64     `db:"club_id"`
	LastLoginAt       *time.Time `db:"last_login_at"`
	InviteToken       *string    `db:"invite_token"`
	InviteExpiresAt   *time.Time `db:"invite_expires_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:                row.ID,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		PhoneNumber:       row.PhoneNumber,
		IsAdmin:           row.IsAdmin,
		IsPrimaryDelegate: row.IsPrimaryDelegate,
		IsActive:          row.IsActive,
		ClubID:            row.ClubID,
		LastLoginAt:       row.LastLoginAt,
		InviteToken:       row.InviteToken,
		InviteExpiresAt:   row.InviteExpiresAt,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

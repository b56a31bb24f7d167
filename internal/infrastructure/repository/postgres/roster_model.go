package postgres

import (
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/roster"
)

type playerTableModel struct {
	ID           int64     `db:"id"`
	ClubID       int64     `db:"club_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	DateOfBirth  time.Time `db:"date_of_birth"`
	ShortsColour *string   `db:"shorts_colour"`
	Notes        string    `db:"notes"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func playerFromRow(row playerTableModel) roster.Player {
	var colour *roster.ShortsColour
	if row.ShortsColour != nil {
		c := roster.ShortsColour(*row.ShortsColour)
		colour = &c
	}

	return roster.Player{
		ID:           row.ID,
		ClubID:       row.ClubID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Email:        row.Email,
		DateOfBirth:  row.DateOfBirth,
		ShortsColour: colour,
		Notes:        row.Notes,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func shortsColourValue(colour *roster.ShortsColour) *string {
	if colour == nil {
		return nil
	}
	s := string(*colour)
	return &s
}

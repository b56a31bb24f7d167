package postgres

import (
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
)

type carnivalTableModel struct {
	ID                   int64      `db:"id"`
	Title                string     `db:"title"`
	StartDate            time.Time  `db:"start_date"`
	EndDate              *time.Time `db:"end_date"`
	StateCode            string     `db:"state_code"`
	AddressLine1         string     `db:"address_line1"`
	AddressLine2         string     `db:"address_line2"`
	Suburb               string     `db:"suburb"`
	Postcode             string     `db:"postcode"`
	Latitude             *float64   `db:"latitude"`
	Longitude            *float64   `db:"longitude"`
	OrganiserName        string     `db:"organiser_name"`
	OrganiserEmail       string     `db:"organiser_email"`
	OrganiserPhone       string     `db:"organiser_phone"`
	ScheduleDetails      string     `db:"schedule_details"`
	RegistrationLink     string     `db:"registration_link"`
	SocialLinks          string     `db:"social_links"`
	FeeDescription       string     `db:"fee_description"`
	MaxTeams             *int       `db:"max_teams"`
	RegistrationDeadline *time.Time `db:"registration_deadline"`
	IsActive             bool       `db:"is_active"`
	HostClubID           *int64     `db:"host_club_id"`
	CreatedByUserID      int64      `db:"created_by_user_id"`
	SourceKind           string     `db:"source_kind"`
	ExternalID           *string    `db:"external_id"`
	LastSyncedAt         *time.Time `db:"last_synced_at"`
	ClaimedAt            *time.Time `db:"claimed_at"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

func carnivalFromRow(row carnivalTableModel) carnival.Carnival {
	source := carnival.Source{
		Kind:         carnival.SourceKind(row.SourceKind),
		LastSyncedAt: row.LastSyncedAt,
		ClaimedAt:    row.ClaimedAt,
	}
	if row.ExternalID != nil {
		source.ExternalID = *row.ExternalID
	}

	return carnival.Carnival{
		ID:        row.ID,
		Title:     row.Title,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		StateCode: row.StateCode,
		Location: carnival.Location{
			AddressLine1: row.AddressLine1,
			AddressLine2: row.AddressLine2,
			Suburb:       row.Suburb,
			Postcode:     row.Postcode,
			Latitude:     row.Latitude,
			Longitude:    row.Longitude,
		},
		OrganiserName:        row.OrganiserName,
		OrganiserEmail:       row.OrganiserEmail,
		OrganiserPhone:       row.OrganiserPhone,
		ScheduleDetails:      row.ScheduleDetails,
		RegistrationLink:     row.RegistrationLink,
		SocialLinks:          row.SocialLinks,
		FeeDescription:       row.FeeDescription,
		MaxTeams:             row.MaxTeams,
		RegistrationDeadline: row.RegistrationDeadline,
		IsActive:             row.IsActive,
		HostClubID:           row.HostClubID,
		CreatedByUserID:      row.CreatedByUserID,
		Source:               source,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func nullableExternalID(externalID string) *string {
	if externalID == "" {
		return nil
	}
	return &externalID
}

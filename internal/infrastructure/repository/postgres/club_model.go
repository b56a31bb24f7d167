package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/ausmasters/carnivalhub/internal/domain/club"
)

type clubTableModel struct {
	ID               int64          `db:"id"`
	Name             string         `db:"name"`
	StateCode        string         `db:"state_code"`
	Location         string         `db:"location"`
	IsPubliclyListed bool           `db:"is_publicly_listed"`
	IsActive         bool           `db:"is_active"`
	IsProxy          bool           `db:"is_proxy"`
	ContactPerson    string         `db:"contact_person"`
	ContactEmail     string         `db:"contact_email"`
	ContactPhone     string         `db:"contact_phone"`
	LogoURL          string         `db:"logo_url"`
	AlternateNames   pq.StringArray `db:"alternate_names"`
	CreatedByUserID  int64          `db:"created_by_user_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func clubFromRow(row clubTableModel) club.Club {
	return club.Club{
		ID:               row.ID,
		Name:             row.Name,
		StateCode:        row.StateCode,
		Location:         row.Location,
		IsPubliclyListed: row.IsPubliclyListed,
		IsActive:         row.IsActive,
		IsProxy:          row.IsProxy,
		ContactPerson:    row.ContactPerson,
		ContactEmail:     row.ContactEmail,
		ContactPhone:     row.ContactPhone,
		LogoURL:          row.LogoURL,
		AlternateNames:   append([]string(nil), row.AlternateNames...),
		CreatedByUserID:  row.CreatedByUserID,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

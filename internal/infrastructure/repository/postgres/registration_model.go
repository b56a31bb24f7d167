package postgres

import (
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/registration"
)

type registrationTableModel struct {
	ID                  int64      `db:"id"`
	CarnivalID          int64      `db:"carnival_id"`
	ClubID              int64      `db:"club_id"`
	RegisteredAt        time.Time  `db:"registered_at"`
	TeamName            string     `db:"team_name"`
	PlayerCount         int        `db:"player_count"`
	ContactName         string     `db:"contact_name"`
	ContactEmail        string     `db:"contact_email"`
	ContactPhone        string     `db:"contact_phone"`
	SpecialRequirements string     `db:"special_requirements"`
	Notes               string     `db:"notes"`
	PaymentAmount       int64      `db:"payment_amount"`
	IsPaid              bool       `db:"is_paid"`
	PaymentDate         *time.Time `db:"payment_date"`
	DisplayOrder        int        `db:"display_order"`
	IsActive            bool       `db:"is_active"`
	ApprovalStatus      string     `db:"approval_status"`
	ApprovedAt          *time.Time `db:"approved_at"`
	ApprovedByUserID    *int64     `db:"approved_by_user_id"`
	RejectionReason     *string    `db:"rejection_reason"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func registrationFromRow(row registrationTableModel) registration.Registration {
	return registration.Registration{
		ID:                  row.ID,
		CarnivalID:          row.CarnivalID,
		ClubID:              row.ClubID,
		RegisteredAt:        row.RegisteredAt,
		TeamName:            row.TeamName,
		PlayerCount:         row.PlayerCount,
		ContactName:         row.ContactName,
		ContactEmail:        row.ContactEmail,
		ContactPhone:        row.ContactPhone,
		SpecialRequirements: row.SpecialRequirements,
		Notes:               row.Notes,
		PaymentAmount:       row.PaymentAmount,
		IsPaid:              row.IsPaid,
		PaymentDate:         row.PaymentDate,
		DisplayOrder:        row.DisplayOrder,
		IsActive:            row.IsActive,
		ApprovalStatus:      registration.ApprovalStatus(row.ApprovalStatus),
		ApprovedAt:          row.ApprovedAt,
		ApprovedByUserID:    row.ApprovedByUserID,
		RejectionReason:     row.RejectionReason,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

type assignmentTableModel struct {
	ID               int64     `db:"id"`
	RegistrationID   int64     `db:"registration_id"`
	PlayerID         int64     `db:"player_id"`
	AttendanceStatus string    `db:"attendance_status"`
	Notes            string    `db:"notes"`
	AddedAt          time.Time `db:"added_at"`
	IsActive         bool      `db:"is_active"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func assignmentFromRow(row assignmentTableModel) registration.Assignment {
	return registration.Assignment{
		ID:               row.ID,
		RegistrationID:   row.RegistrationID,
		PlayerID:         row.PlayerID,
		AttendanceStatus: registration.AttendanceStatus(row.AttendanceStatus),
		Notes:            row.Notes,
		AddedAt:          row.AddedAt,
		IsActive:         row.IsActive,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

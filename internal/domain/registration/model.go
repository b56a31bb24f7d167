package registration

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDuplicateActive     = errors.New("club already has an active registration for this carnival")
	ErrCapacityExceeded    = errors.New("carnival team capacity would be exceeded")
	ErrIllegalTransition   = errors.New("registration is not in a state that allows this action")
	ErrPaidCannotWithdraw  = errors.New("a paid registration cannot be withdrawn")
	ErrPlayerWrongClub     = errors.New("player does not belong to the registered club")
	ErrDuplicateAssignment = errors.New("player is already assigned to this registration")
)

// ApprovalStatus is the host-side decision state of a registration.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// DefaultRejectionReason backfills a host rejection submitted without one.
const DefaultRejectionReason = "No reason provided"

// Registration is a club's intent to attend a carnival, subject to host
// approval. Withdrawal is modelled as IsActive = false; rows with payments
// or assignments are never hard-deleted.
type Registration struct {
	ID                  int64
	CarnivalID          int64
	ClubID              int64
	RegisteredAt        time.Time
	TeamName            string
	PlayerCount         int
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	SpecialRequirements string
	Notes               string
	PaymentAmount       int64
	IsPaid              bool
	PaymentDate         *time.Time
	DisplayOrder        int
	IsActive            bool
	ApprovalStatus      ApprovalStatus
	ApprovedAt          *time.Time
	ApprovedByUserID    *int64
	RejectionReason     *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r Registration) Validate() error {
	if r.CarnivalID == 0 {
		return fmt.Errorf("carnival id is required")
	}
	if r.ClubID == 0 {
		return fmt.Errorf("club id is required")
	}
	if r.PlayerCount < 0 {
		return fmt.Errorf("player count cannot be negative")
	}
	switch r.ApprovalStatus {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("unknown approval status %q", r.ApprovalStatus)
	}
	return nil
}

// AttendanceStatus tracks an assigned player's availability.
type AttendanceStatus string

const (
	AttendanceConfirmed   AttendanceStatus = "confirmed"
	AttendanceTentative   AttendanceStatus = "tentative"
	AttendanceUnavailable AttendanceStatus = "unavailable"
)

func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	switch AttendanceStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case AttendanceConfirmed:
		return AttendanceConfirmed, nil
	case AttendanceTentative:
		return AttendanceTentative, nil
	case AttendanceUnavailable:
		return AttendanceUnavailable, nil
	default:
		return "", fmt.Errorf("unknown attendance status %q", raw)
	}
}

// Assignment binds one club player to one approved registration.
type Assignment struct {
	ID               int64
	RegistrationID   int64
	PlayerID         int64
	AttendanceStatus AttendanceStatus
	Notes            string
	AddedAt          time.Time
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AttendanceCounts summarises active assignments for one registration.
type AttendanceCounts struct {
	Confirmed   int
	Tentative   int
	Unavailable int
	Total       int
}

package registration

import (
	"context"
	"time"
)

// Repository describes registration persistence. The mutating methods are
// transactional guards: each one locks the carnival row, re-checks its guard
// against fresh reads, and either commits the whole transition or rolls back
// and returns the guard error. Authorization is the caller's concern.
type Repository interface {
	// CreateSelf inserts a pending self-service registration. Guards:
	// carnival active, deadline not passed (ErrRegistrationClosed via the
	// carnival package), approved count below capacity, no active row for
	// (carnival, club). Assigns the next display order.
	CreateSelf(ctx context.Context, r Registration, now time.Time) (Registration, error)
	// CreateByHost inserts an approved registration added by the host.
	// Guards: no active row for (carnival, club) and capacity.
	CreateByHost(ctx context.Context, r Registration, approverID int64, now time.Time) (Registration, error)
	// Approve re-reads capacity under lock, counts approved rows excluding
	// this one, and flips pending to approved. Returns ErrCapacityExceeded
	// or ErrIllegalTransition.
	Approve(ctx context.Context, registrationID, approverID int64, now time.Time) (Registration, error)
	// Reject flips pending to rejected with a reason, clearing approval.
	Reject(ctx context.Context, registrationID int64, reason string, now time.Time) (Registration, error)
	// Resubmit reuses a rejected row, returning it to pending and clearing
	// the rejection reason.
	Resubmit(ctx context.Context, registrationID int64, now time.Time) (Registration, error)
	// Withdraw deactivates the registration and its assignments. Guards:
	// not paid (unless force, used by the host-side removal).
	Withdraw(ctx context.Context, registrationID int64, force bool, now time.Time) error
	// Reorder writes display order 1..n following orderedIDs; identifiers
	// not belonging to the carnival are ignored.
	Reorder(ctx context.Context, carnivalID int64, orderedIDs []int64) error

	GetByID(ctx context.Context, registrationID int64) (Registration, bool, error)
	ListByCarnival(ctx context.Context, carnivalID int64) ([]Registration, error)
	ListByClub(ctx context.Context, clubID int64) ([]Registration, error)
	CountApproved(ctx context.Context, carnivalID int64) (int, error)
}

// AssignmentRepository describes player-assignment persistence.
type AssignmentRepository interface {
	// Attach creates active assignments for playerIDs in order, skipping
	// players that already hold an active assignment on the registration.
	// Guards inside the transaction: registration approved and active, each
	// player active and owned by the registration's club. Returns the number
	// of assignments created.
	Attach(ctx context.Context, registrationID int64, playerIDs []int64, now time.Time) (int, error)
	Detach(ctx context.Context, assignmentID int64, now time.Time) error
	SetAttendance(ctx context.Context, assignmentID int64, status AttendanceStatus, notes string, now time.Time) (Assignment, error)
	GetByID(ctx context.Context, assignmentID int64) (Assignment, bool, error)
	ListByRegistration(ctx context.Context, registrationID int64) ([]Assignment, error)
	AttendanceCounts(ctx context.Context, registrationID int64) (AttendanceCounts, error)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

// AssignmentService manages which roster players attend an approved
// registration. Delegates act on their own club's registrations; the
// carnival creator and admins get read access for attendance summaries.
type AssignmentService struct {
	assignRepo   registration.AssignmentRepository
	regRepo      registration.Repository
	carnivalRepo carnival.Repository
	userRepo     user.Repository
	logger       *slog.Logger
	now          func() time.Time
}

func NewAssignmentService(
	assignRepo registration.AssignmentRepository,
	regRepo registration.Repository,
	carnivalRepo carnival.Repository,
	userRepo user.Repository,
	logger *slog.Logger,
) *AssignmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentService{
		assignRepo:   assignRepo,
		regRepo:      regRepo,
		carnivalRepo: carnivalRepo,
		userRepo:     userRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// AttachPlayers assigns roster players to an approved registration. Players
// already assigned are skipped, so a retried request is safe. Returns the
// number of new assignments.
func (s *AssignmentService) AttachPlayers(ctx context.Context, actorID, registrationID int64, playerIDs []int64) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.AttachPlayers")
	defer span.End()

	r, err := s.requireClubRegistration(ctx, actorID, registrationID)
	if err != nil {
		return 0, err
	}
	if !r.IsActive || r.ApprovalStatus != registration.StatusApproved {
		return 0, registration.ErrIllegalTransition
	}
	if len(playerIDs) == 0 {
		return 0, fmt.Errorf("%w: at least one player is required", ErrInvalidInput)
	}

	added, err := s.assignRepo.Attach(ctx, registrationID, playerIDs, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("attach players: %w", err)
	}
	if added < len(playerIDs) {
		s.logger.InfoContext(ctx, "attach skipped existing assignments",
			slog.Int64("registrationId", registrationID),
			slog.Int("requested", len(playerIDs)), slog.Int("added", added))
	}
	return added, nil
}

// DetachPlayer removes one assignment. The attendance history of past
// carnivals is preserved via soft delete.
func (s *AssignmentService) DetachPlayer(ctx context.Context, actorID, assignmentID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.DetachPlayer")
	defer span.End()

	if _, _, err := s.loadOwnedAssignment(ctx, actorID, assignmentID); err != nil {
		return err
	}
	if err := s.assignRepo.Detach(ctx, assignmentID, s.now().UTC()); err != nil {
		return fmt.Errorf("detach player: %w", err)
	}
	return nil
}

// SetAttendance updates one assignment's availability and notes.
func (s *AssignmentService) SetAttendance(ctx context.Context, actorID, assignmentID int64, status registration.AttendanceStatus, notes string) (registration.Assignment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.SetAttendance")
	defer span.End()

	a, _, err := s.loadOwnedAssignment(ctx, actorID, assignmentID)
	if err != nil {
		return registration.Assignment{}, err
	}
	if !a.IsActive {
		return registration.Assignment{}, registration.ErrIllegalTransition
	}

	updated, err := s.assignRepo.SetAttendance(ctx, assignmentID, status, notes, s.now().UTC())
	if err != nil {
		return registration.Assignment{}, fmt.Errorf("set attendance: %w", err)
	}
	return updated, nil
}

// ListAssignments returns a registration's assignments for its club
// delegate, the carnival creator, or an admin.
func (s *AssignmentService) ListAssignments(ctx context.Context, actorID, registrationID int64) ([]registration.Assignment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.ListAssignments")
	defer span.End()

	if _, err := s.requireReadAccess(ctx, actorID, registrationID); err != nil {
		return nil, err
	}
	assignments, err := s.assignRepo.ListByRegistration(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// AttendanceSummary returns confirmed/tentative/unavailable counts for one
// registration.
func (s *AssignmentService) AttendanceSummary(ctx context.Context, actorID, registrationID int64) (registration.AttendanceCounts, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AssignmentService.AttendanceSummary")
	defer span.End()

	if _, err := s.requireReadAccess(ctx, actorID, registrationID); err != nil {
		return registration.AttendanceCounts{}, err
	}
	counts, err := s.assignRepo.AttendanceCounts(ctx, registrationID)
	if err != nil {
		return registration.AttendanceCounts{}, fmt.Errorf("attendance counts: %w", err)
	}
	return counts, nil
}

func (s *AssignmentService) loadOwnedAssignment(ctx context.Context, actorID, assignmentID int64) (registration.Assignment, registration.Registration, error) {
	a, exists, err := s.assignRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return registration.Assignment{}, registration.Registration{}, fmt.Errorf("lookup assignment: %w", err)
	}
	if !exists {
		return registration.Assignment{}, registration.Registration{}, fmt.Errorf("%w: assignment", ErrNotFound)
	}
	r, err := s.requireClubRegistration(ctx, actorID, a.RegistrationID)
	if err != nil {
		return registration.Assignment{}, registration.Registration{}, err
	}
	return a, r, nil
}

// requireClubRegistration authorizes write access: the actor must belong to
// the registration's club, or be an admin.
func (s *AssignmentService) requireClubRegistration(ctx context.Context, actorID, registrationID int64) (registration.Registration, error) {
	actor, exists, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists || !actor.IsActive {
		return registration.Registration{}, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}

	r, exists, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup registration: %w", err)
	}
	if !exists {
		return registration.Registration{}, fmt.Errorf("%w: registration", ErrNotFound)
	}
	if !actor.IsAdmin && (actor.ClubID == nil || *actor.ClubID != r.ClubID) {
		return registration.Registration{}, fmt.Errorf("%w: registration belongs to another club", ErrUnauthorized)
	}
	return r, nil
}

// requireReadAccess additionally admits the carnival creator.
func (s *AssignmentService) requireReadAccess(ctx context.Context, actorID, registrationID int64) (registration.Registration, error) {
	actor, exists, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists || !actor.IsActive {
		return registration.Registration{}, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}

	r, exists, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup registration: %w", err)
	}
	if !exists {
		return registration.Registration{}, fmt.Errorf("%w: registration", ErrNotFound)
	}
	if actor.IsAdmin {
		return r, nil
	}
	if actor.ClubID != nil && *actor.ClubID == r.ClubID {
		return r, nil
	}
	c, exists, err := s.carnivalRepo.GetByID(ctx, r.CarnivalID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup carnival: %w", err)
	}
	if exists && c.CreatedByUserID == actor.ID {
		return r, nil
	}
	return registration.Registration{}, fmt.Errorf("%w: no access to this registration", ErrUnauthorized)
}

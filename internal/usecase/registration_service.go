package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type RegisterClubInput struct {
	TeamName            string
	PlayerCount         int
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	SpecialRequirements string
	Notes               string
}

// RegistrationService drives the club-to-carnival registration state
// machine. Authorization and early validation happen here; state guards run
// inside the repository transaction; notification requests go out only after
// the transaction committed.
type RegistrationService struct {
	regRepo      registration.Repository
	carnivalRepo carnival.Repository
	clubRepo     club.Repository
	userRepo     user.Repository
	dispatcher   *Dispatcher
	logger       *slog.Logger
	now          func() time.Time
}

func NewRegistrationService(
	regRepo registration.Repository,
	carnivalRepo carnival.Repository,
	clubRepo club.Repository,
	userRepo user.Repository,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		regRepo:      regRepo,
		carnivalRepo: carnivalRepo,
		clubRepo:     clubRepo,
		userRepo:     userRepo,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          time.Now,
	}
}

// Register self-registers the acting delegate's club. The registration is
// created pending and the host is asked to review it.
func (s *RegistrationService) Register(ctx context.Context, carnivalID, actorID int64, input RegisterClubInput) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Register")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return registration.Registration{}, err
	}
	if actor.ClubID == nil {
		return registration.Registration{}, fmt.Errorf("%w: club membership required to register", ErrUnauthorized)
	}

	c, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup carnival: %w", err)
	}
	if !exists {
		return registration.Registration{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if c.Source.Claimable() {
		// Unclaimed imports have no host to approve anything.
		return registration.Registration{}, carnival.ErrRegistrationClosed
	}
	if !c.AcceptingAt(s.now().UTC()) {
		return registration.Registration{}, carnival.ErrRegistrationClosed
	}

	registeringClub, exists, err := s.clubRepo.GetByID(ctx, *actor.ClubID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup club: %w", err)
	}
	if !exists || !registeringClub.IsActive {
		return registration.Registration{}, fmt.Errorf("%w: club is not active", ErrUnauthorized)
	}

	now := s.now().UTC()
	r := registration.Registration{
		CarnivalID:          carnivalID,
		ClubID:              registeringClub.ID,
		RegisteredAt:        now,
		TeamName:            strings.TrimSpace(input.TeamName),
		PlayerCount:         input.PlayerCount,
		ContactName:         strings.TrimSpace(input.ContactName),
		ContactEmail:        user.NormalizeEmail(input.ContactEmail),
		ContactPhone:        strings.TrimSpace(input.ContactPhone),
		SpecialRequirements: input.SpecialRequirements,
		Notes:               input.Notes,
		IsActive:            true,
		ApprovalStatus:      registration.StatusPending,
	}
	if err := r.Validate(); err != nil {
		return registration.Registration{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	created, err := s.regRepo.CreateSelf(ctx, r, now)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("create registration: %w", err)
	}

	s.dispatcher.NotifyRegistrationReceived(ctx, c, registeringClub)
	return created, nil
}

// HostAddClub lets the carnival creator register a club directly. The row is
// created approved, so it counts against capacity immediately.
func (s *RegistrationService) HostAddClub(ctx context.Context, carnivalID, actorID, clubID int64, input RegisterClubInput) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.HostAddClub")
	defer span.End()

	actor, c, err := s.requireCarnivalOwner(ctx, carnivalID, actorID)
	if err != nil {
		return registration.Registration{}, err
	}

	addedClub, exists, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("lookup club: %w", err)
	}
	if !exists || !addedClub.IsActive {
		return registration.Registration{}, fmt.Errorf("%w: club is not active", ErrInvalidInput)
	}

	now := s.now().UTC()
	r := registration.Registration{
		CarnivalID:          carnivalID,
		ClubID:              addedClub.ID,
		RegisteredAt:        now,
		TeamName:            strings.TrimSpace(input.TeamName),
		PlayerCount:         input.PlayerCount,
		ContactName:         strings.TrimSpace(input.ContactName),
		ContactEmail:        user.NormalizeEmail(input.ContactEmail),
		ContactPhone:        strings.TrimSpace(input.ContactPhone),
		SpecialRequirements: input.SpecialRequirements,
		Notes:               input.Notes,
		IsActive:            true,
		ApprovalStatus:      registration.StatusApproved,
	}
	if err := r.Validate(); err != nil {
		return registration.Registration{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	created, err := s.regRepo.CreateByHost(ctx, r, actor.ID, now)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("host add club: %w", err)
	}

	s.dispatcher.NotifyApproval(ctx, c, created)
	return created, nil
}

// Approve flips a pending registration to approved. Capacity is re-checked
// against fresh reads under the carnival row lock inside the repository.
func (s *RegistrationService) Approve(ctx context.Context, registrationID, actorID int64) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Approve")
	defer span.End()

	r, c, _, err := s.loadForHostAction(ctx, registrationID, actorID)
	if err != nil {
		return registration.Registration{}, err
	}
	if !r.IsActive || r.ApprovalStatus != registration.StatusPending {
		return registration.Registration{}, registration.ErrIllegalTransition
	}
	if !c.IsActive {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	approved, err := s.regRepo.Approve(ctx, registrationID, actorID, s.now().UTC())
	if err != nil {
		return registration.Registration{}, fmt.Errorf("approve registration: %w", err)
	}

	s.dispatcher.NotifyApproval(ctx, c, approved)
	return approved, nil
}

// Reject flips a pending registration to rejected with a reason.
func (s *RegistrationService) Reject(ctx context.Context, registrationID, actorID int64, reason string) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Reject")
	defer span.End()

	r, c, _, err := s.loadForHostAction(ctx, registrationID, actorID)
	if err != nil {
		return registration.Registration{}, err
	}
	if !r.IsActive || r.ApprovalStatus != registration.StatusPending {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = registration.DefaultRejectionReason
	}

	rejected, err := s.regRepo.Reject(ctx, registrationID, reason, s.now().UTC())
	if err != nil {
		return registration.Registration{}, fmt.Errorf("reject registration: %w", err)
	}

	s.dispatcher.NotifyRejection(ctx, c, rejected, reason)
	return rejected, nil
}

// Resubmit returns a rejected registration to pending, reusing the row.
func (s *RegistrationService) Resubmit(ctx context.Context, registrationID, actorID int64) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Resubmit")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return registration.Registration{}, err
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
	if !r.IsActive || r.ApprovalStatus != registration.StatusRejected {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	resubmitted, err := s.regRepo.Resubmit(ctx, registrationID, s.now().UTC())
	if err != nil {
		return registration.Registration{}, fmt.Errorf("resubmit registration: %w", err)
	}

	if c, ok, cErr := s.carnivalRepo.GetByID(ctx, r.CarnivalID); cErr == nil && ok {
		if registeringClub, cok, clubErr := s.clubRepo.GetByID(ctx, r.ClubID); clubErr == nil && cok {
			s.dispatcher.NotifyRegistrationReceived(ctx, c, registeringClub)
		}
	}
	return resubmitted, nil
}

// Withdraw deactivates a registration. The delegate may withdraw an unpaid
// approved registration of their own club; the carnival creator (or an
// admin) may remove any registration regardless of status or payment.
func (s *RegistrationService) Withdraw(ctx context.Context, registrationID, actorID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Withdraw")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return err
	}

	r, exists, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("lookup registration: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: registration", ErrNotFound)
	}

	c, exists, err := s.carnivalRepo.GetByID(ctx, r.CarnivalID)
	if err != nil {
		return fmt.Errorf("lookup carnival: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: carnival", ErrNotFound)
	}

	hostActing := actor.IsAdmin || c.CreatedByUserID == actor.ID
	if !hostActing {
		if actor.ClubID == nil || *actor.ClubID != r.ClubID {
			return fmt.Errorf("%w: registration belongs to another club", ErrUnauthorized)
		}
		if !r.IsActive || r.ApprovalStatus != registration.StatusApproved {
			return registration.ErrIllegalTransition
		}
		if r.IsPaid {
			return registration.ErrPaidCannotWithdraw
		}
	}

	if err := s.regRepo.Withdraw(ctx, registrationID, hostActing, s.now().UTC()); err != nil {
		return fmt.Errorf("withdraw registration: %w", err)
	}
	return nil
}

// Reorder rewrites the display order of a carnival's registrations from an
// ordered id sequence. Ids outside the carnival are ignored.
func (s *RegistrationService) Reorder(ctx context.Context, carnivalID, actorID int64, orderedIDs []int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Reorder")
	defer span.End()

	if _, _, err := s.requireCarnivalOwner(ctx, carnivalID, actorID); err != nil {
		return err
	}
	if err := s.regRepo.Reorder(ctx, carnivalID, orderedIDs); err != nil {
		return fmt.Errorf("reorder registrations: %w", err)
	}
	return nil
}

func (s *RegistrationService) ListByCarnival(ctx context.Context, carnivalID int64) ([]registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.ListByCarnival")
	defer span.End()

	regs, err := s.regRepo.ListByCarnival(ctx, carnivalID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *RegistrationService) loadForHostAction(ctx context.Context, registrationID, actorID int64) (registration.Registration, carnival.Carnival, user.User, error) {
	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return registration.Registration{}, carnival.Carnival{}, user.User{}, err
	}

	r, exists, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return registration.Registration{}, carnival.Carnival{}, user.User{}, fmt.Errorf("lookup registration: %w", err)
	}
	if !exists {
		return registration.Registration{}, carnival.Carnival{}, user.User{}, fmt.Errorf("%w: registration", ErrNotFound)
	}

	c, exists, err := s.carnivalRepo.GetByID(ctx, r.CarnivalID)
	if err != nil {
		return registration.Registration{}, carnival.Carnival{}, user.User{}, fmt.Errorf("lookup carnival: %w", err)
	}
	if !exists {
		return registration.Registration{}, carnival.Carnival{}, user.User{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if !actor.IsAdmin && c.CreatedByUserID != actor.ID {
		return registration.Registration{}, carnival.Carnival{}, user.User{}, fmt.Errorf("%w: only the carnival creator can do this", ErrUnauthorized)
	}
	return r, c, actor, nil
}

func (s *RegistrationService) requireCarnivalOwner(ctx context.Context, carnivalID, actorID int64) (user.User, carnival.Carnival, error) {
	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return user.User{}, carnival.Carnival{}, err
	}

	c, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return user.User{}, carnival.Carnival{}, fmt.Errorf("lookup carnival: %w", err)
	}
	if !exists {
		return user.User{}, carnival.Carnival{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if !actor.IsAdmin && c.CreatedByUserID != actor.ID {
		return user.User{}, carnival.Carnival{}, fmt.Errorf("%w: only the carnival creator can do this", ErrUnauthorized)
	}
	return actor, c, nil
}

func (s *RegistrationService) requireActiveUser(ctx context.Context, userID int64) (user.User, error) {
	actor, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists || !actor.IsActive {
		return user.User{}, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}
	return actor, nil
}

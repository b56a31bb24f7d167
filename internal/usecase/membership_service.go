package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/audit"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/platform/token"
)

type RegisterUserInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

type AcceptInvitationInput struct {
	Token     string
	FirstName string
	LastName  string
	Password  string
}

type CreateClubInput struct {
	Name             string
	StateCode        string
	Location         string
	ContactPerson    string
	ContactEmail     string
	ContactPhone     string
	IsPubliclyListed bool
	// Proxy clubs are placeholders entered on behalf of a club that has not
	// joined; they stay inactive until claimed through registration.
	IsProxy bool
}

// MembershipService covers users, delegates, invitations, and club identity.
type MembershipService struct {
	userRepo   user.Repository
	clubRepo   club.Repository
	dispatcher *Dispatcher
	auditor    audit.Recorder
	tokens     token.Generator
	logger     *slog.Logger
	now        func() time.Time
}

func NewMembershipService(
	userRepo user.Repository,
	clubRepo club.Repository,
	dispatcher *Dispatcher,
	auditor audit.Recorder,
	tokens token.Generator,
	logger *slog.Logger,
) *MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipService{
		userRepo:   userRepo,
		clubRepo:   clubRepo,
		dispatcher: dispatcher,
		auditor:    auditor,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterUser creates an active account. When the email matches the contact
// address of an inactive proxy club, ownership of that club passes to the new
// user and the club's previous primary delegate (if any) gets a security
// alert.
func (s *MembershipService) RegisterUser(ctx context.Context, input RegisterUserInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.RegisterUser")
	defer span.End()

	email := user.NormalizeEmail(input.Email)
	if email == "" {
		return user.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Password) == "" {
		return user.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FirstName) == "" {
		return user.User{}, fmt.Errorf("%w: first name is required", ErrInvalidInput)
	}

	if _, exists, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return user.User{}, fmt.Errorf("check existing user: %w", err)
	} else if exists {
		return user.User{}, user.ErrDuplicateEmail
	}

	newUser := user.User{
		Email:       email,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		IsActive:    true,
	}

	proxy, hasProxy, err := s.clubRepo.FindProxyByContactEmail(ctx, email)
	if err != nil {
		return user.User{}, fmt.Errorf("match proxy club: %w", err)
	}

	var previousPrimary user.User
	var hadPrimary bool
	if hasProxy {
		if prior, ok, lookupErr := s.userRepo.PrimaryDelegateByClub(ctx, proxy.ID); lookupErr == nil && ok {
			// A club carries at most one active primary delegate, so
			// demote before the claimer takes the role.
			prior.IsPrimaryDelegate = false
			if prior, lookupErr = s.userRepo.Update(ctx, prior); lookupErr != nil {
				return user.User{}, fmt.Errorf("demote previous primary delegate: %w", lookupErr)
			}
			previousPrimary, hadPrimary = prior, true
		}
		newUser.ClubID = &proxy.ID
		newUser.IsPrimaryDelegate = true
	}

	created, err := s.userRepo.Create(ctx, newUser, input.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	if hasProxy {
		proxy.IsActive = true
		proxy.IsProxy = false
		if _, err := s.clubRepo.Update(ctx, proxy); err != nil {
			return user.User{}, fmt.Errorf("activate claimed proxy club: %w", err)
		}
		if hadPrimary {
			s.dispatcher.NotifySecurityAlert(ctx, previousPrimary.Email,
				fmt.Sprintf("Club ownership change: %s", proxy.Name),
				fmt.Sprintf("A new account (%s) has claimed %s using its listed contact email.\n", created.Email, proxy.Name),
			)
		}
	}

	return created, nil
}

// Authenticate verifies a credential against the stored hash. Unknown email,
// inactive account, and wrong password all surface the same error; the audit
// trail records the real reason.
func (s *MembershipService) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.Authenticate")
	defer span.End()

	email = user.NormalizeEmail(email)
	found, exists, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	fail := func(reason string) (user.User, error) {
		s.auditor.Record(ctx, audit.Event{
			Action:     "login",
			UserID:     found.ID,
			Email:      email,
			Success:    false,
			Reason:     reason,
			OccurredAt: s.now().UTC(),
		})
		return user.User{}, user.ErrInvalidCredentials
	}

	if !exists {
		return fail("unknown email")
	}
	if !found.IsActive {
		return fail("inactive account")
	}
	if !user.VerifyPassword(found.PasswordHash, password) {
		return fail("wrong password")
	}

	loginAt := s.now().UTC()
	found.LastLoginAt = &loginAt
	updated, err := s.userRepo.Update(ctx, found)
	if err != nil {
		return user.User{}, fmt.Errorf("record last login: %w", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:     "login",
		UserID:     updated.ID,
		Email:      email,
		Success:    true,
		OccurredAt: loginAt,
	})
	return updated, nil
}

// InviteDelegate creates an inactive account bound to the caller's club with
// an invitation token, then requests the invitation email.
func (s *MembershipService) InviteDelegate(ctx context.Context, actorID int64, email string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.InviteDelegate")
	defer span.End()

	actor, err := s.requirePrimaryDelegate(ctx, actorID)
	if err != nil {
		return user.User{}, err
	}

	email = user.NormalizeEmail(email)
	if email == "" {
		return user.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, exists, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return user.User{}, fmt.Errorf("check existing user: %w", err)
	} else if exists {
		return user.User{}, user.ErrDuplicateEmail
	}

	inviteToken, err := s.tokens.NewToken(token.InviteBytes)
	if err != nil {
		return user.User{}, fmt.Errorf("generate invite token: %w", err)
	}
	expiresAt := s.now().UTC().Add(user.InviteTokenTTL)

	invitee, err := s.userRepo.Create(ctx, user.User{
		Email:           email,
		IsActive:        false,
		ClubID:          actor.ClubID,
		InviteToken:     &inviteToken,
		InviteExpiresAt: &expiresAt,
	}, "")
	if err != nil {
		return user.User{}, fmt.Errorf("create invited user: %w", err)
	}

	clubName := ""
	if actor.ClubID != nil {
		if c, ok, clubErr := s.clubRepo.GetByID(ctx, *actor.ClubID); clubErr == nil && ok {
			clubName = c.Name
		}
	}
	s.dispatcher.NotifyInvitation(ctx, invitee, actor, clubName, inviteToken)

	return invitee, nil
}

// AcceptInvitation activates an invited account in one update: names and
// credential set, token and expiry cleared. The plaintext credential flows
// into the storage layer, which hashes it once.
func (s *MembershipService) AcceptInvitation(ctx context.Context, input AcceptInvitationInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.AcceptInvitation")
	defer span.End()

	tokenValue := strings.TrimSpace(input.Token)
	if tokenValue == "" || strings.TrimSpace(input.Password) == "" {
		return user.User{}, fmt.Errorf("%w: token and password are required", ErrInvalidInput)
	}

	invited, exists, err := s.userRepo.GetByInviteToken(ctx, tokenValue)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup invitation: %w", err)
	}
	if !exists || !invited.InviteValidAt(s.now().UTC()) {
		return user.User{}, user.ErrInvalidInviteToken
	}

	invited.FirstName = strings.TrimSpace(input.FirstName)
	invited.LastName = strings.TrimSpace(input.LastName)
	invited.IsActive = true
	invited.InviteToken = nil
	invited.InviteExpiresAt = nil

	activated, err := s.userRepo.UpdateCredentials(ctx, invited.ID, invited, input.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("activate invited user: %w", err)
	}
	return activated, nil
}

// TransferPrimaryDelegate moves the primary flag between two delegates of the
// same club in one transaction. On rollback no flag changes and no
// notification goes out.
func (s *MembershipService) TransferPrimaryDelegate(ctx context.Context, actorID, targetID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.TransferPrimaryDelegate")
	defer span.End()

	actor, err := s.requirePrimaryDelegate(ctx, actorID)
	if err != nil {
		return err
	}

	target, exists, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("lookup transfer target: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: target user", ErrNotFound)
	}
	if !target.IsActive {
		return fmt.Errorf("%w: target user is inactive", ErrInvalidInput)
	}
	if actor.ClubID == nil || target.ClubID == nil || *actor.ClubID != *target.ClubID {
		return fmt.Errorf("%w: target belongs to a different club", ErrInvalidInput)
	}
	if target.IsPrimaryDelegate {
		return user.ErrTargetAlreadyPrimary
	}

	if err := s.userRepo.TransferPrimaryDelegate(ctx, actor.ID, target.ID); err != nil {
		return fmt.Errorf("transfer primary delegate: %w", err)
	}

	clubName := ""
	if c, ok, clubErr := s.clubRepo.GetByID(ctx, *actor.ClubID); clubErr == nil && ok {
		clubName = c.Name
	}
	s.dispatcher.NotifyRoleTransfer(ctx, actor, target, clubName)
	return nil
}

// CreateClub registers a club. A caller without a club becomes its primary
// delegate; proxy clubs start inactive and unowned.
func (s *MembershipService) CreateClub(ctx context.Context, actorID int64, input CreateClubInput) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.CreateClub")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return club.Club{}, err
	}

	newClub := club.Club{
		Name:             strings.TrimSpace(input.Name),
		StateCode:        strings.ToUpper(strings.TrimSpace(input.StateCode)),
		Location:         strings.TrimSpace(input.Location),
		ContactPerson:    strings.TrimSpace(input.ContactPerson),
		ContactEmail:     user.NormalizeEmail(input.ContactEmail),
		ContactPhone:     strings.TrimSpace(input.ContactPhone),
		IsPubliclyListed: input.IsPubliclyListed,
		IsProxy:          input.IsProxy,
		IsActive:         !input.IsProxy,
		CreatedByUserID:  actor.ID,
	}
	if err := newClub.Validate(); err != nil {
		return club.Club{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	created, err := s.clubRepo.Create(ctx, newClub)
	if err != nil {
		return club.Club{}, fmt.Errorf("create club: %w", err)
	}

	if !input.IsProxy && actor.ClubID == nil {
		actor.ClubID = &created.ID
		actor.IsPrimaryDelegate = true
		if _, err := s.userRepo.Update(ctx, actor); err != nil {
			return club.Club{}, fmt.Errorf("attach creator to club: %w", err)
		}
	}

	return created, nil
}

// UpdateClub edits club details. Reactivating a previously deactivated club
// raises a security alert to its primary delegate.
func (s *MembershipService) UpdateClub(ctx context.Context, actorID int64, updated club.Club) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.UpdateClub")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return club.Club{}, err
	}

	existing, exists, err := s.clubRepo.GetByID(ctx, updated.ID)
	if err != nil {
		return club.Club{}, fmt.Errorf("lookup club: %w", err)
	}
	if !exists {
		return club.Club{}, fmt.Errorf("%w: club", ErrNotFound)
	}
	if !actor.IsAdmin && (actor.ClubID == nil || *actor.ClubID != existing.ID || !actor.IsPrimaryDelegate) {
		return club.Club{}, fmt.Errorf("%w: only the primary delegate can edit the club", ErrUnauthorized)
	}
	if err := updated.Validate(); err != nil {
		return club.Club{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	reactivated := !existing.IsActive && updated.IsActive

	saved, err := s.clubRepo.Update(ctx, updated)
	if err != nil {
		return club.Club{}, fmt.Errorf("update club: %w", err)
	}

	if reactivated {
		if primary, ok, lookupErr := s.userRepo.PrimaryDelegateByClub(ctx, saved.ID); lookupErr == nil && ok {
			s.dispatcher.NotifySecurityAlert(ctx, primary.Email,
				fmt.Sprintf("Club reactivated: %s", saved.Name),
				fmt.Sprintf("%s has been reactivated by %s. If this was not expected, contact support.\n", saved.Name, actor.Email),
			)
		}
	}

	return saved, nil
}

// ListDelegates returns the caller's club members.
func (s *MembershipService) ListDelegates(ctx context.Context, actorID int64) ([]user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.ListDelegates")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ClubID == nil {
		return nil, fmt.Errorf("%w: no club membership", ErrInvalidInput)
	}
	members, err := s.userRepo.ListByClub(ctx, *actor.ClubID)
	if err != nil {
		return nil, fmt.Errorf("list club members: %w", err)
	}
	return members, nil
}

// ListPublicClubs returns active, publicly listed clubs for the directory.
func (s *MembershipService) ListPublicClubs(ctx context.Context) ([]club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.ListPublicClubs")
	defer span.End()

	clubs, err := s.clubRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public clubs: %w", err)
	}
	return clubs, nil
}

func (s *MembershipService) GetClub(ctx context.Context, clubID int64) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.GetClub")
	defer span.End()

	c, exists, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return club.Club{}, fmt.Errorf("lookup club: %w", err)
	}
	if !exists {
		return club.Club{}, fmt.Errorf("%w: club %d", ErrNotFound, clubID)
	}
	return c, nil
}

func (s *MembershipService) requireActiveUser(ctx context.Context, userID int64) (user.User, error) {
	actor, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists || !actor.IsActive {
		return user.User{}, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}
	return actor, nil
}

func (s *MembershipService) requirePrimaryDelegate(ctx context.Context, userID int64) (user.User, error) {
	actor, err := s.requireActiveUser(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if !actor.IsPrimaryDelegate || actor.ClubID == nil {
		return user.User{}, fmt.Errorf("%w: primary delegate role required", ErrUnauthorized)
	}
	return actor, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type PlayerInput struct {
	FirstName    string
	LastName     string
	Email        string
	DateOfBirth  time.Time
	ShortsColour *roster.ShortsColour
	Notes        string
}

// RosterService manages a club's player roster. All operations act on the
// delegate's own club; admins may act on any club via the explicit clubID.
type RosterService struct {
	rosterRepo roster.Repository
	userRepo   user.Repository
	logger     *slog.Logger
	now        func() time.Time
}

func NewRosterService(rosterRepo roster.Repository, userRepo user.Repository, logger *slog.Logger) *RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterService{
		rosterRepo: rosterRepo,
		userRepo:   userRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// AddPlayer creates a roster entry. A player email that already exists for
// the club but belongs to an inactive player reactivates and updates that
// player instead of inserting a duplicate.
func (s *RosterService) AddPlayer(ctx context.Context, actorID, clubID int64, input PlayerInput) (roster.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.AddPlayer")
	defer span.End()

	if _, err := s.requireClubAccess(ctx, actorID, clubID); err != nil {
		return roster.Player{}, err
	}

	now := s.now().UTC()
	p := roster.Player{
		ClubID:       clubID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		DateOfBirth:  input.DateOfBirth,
		ShortsColour: input.ShortsColour,
		Notes:        input.Notes,
		IsActive:     true,
	}.Normalize()
	if err := p.Validate(now); err != nil {
		if errors.Is(err, roster.ErrAgeOutOfRange) {
			return roster.Player{}, err
		}
		return roster.Player{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	existing, found, err := s.rosterRepo.FindByClubEmail(ctx, clubID, p.Email)
	if err != nil {
		return roster.Player{}, fmt.Errorf("check roster email: %w", err)
	}
	if found {
		if existing.IsActive {
			return roster.Player{}, roster.ErrDuplicateEmail
		}
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		revived, err := s.rosterRepo.Update(ctx, p)
		if err != nil {
			return roster.Player{}, fmt.Errorf("reactivate player: %w", err)
		}
		s.logger.InfoContext(ctx, "roster player reactivated",
			slog.Int64("clubId", clubID), slog.Int64("playerId", revived.ID))
		return revived, nil
	}

	created, err := s.rosterRepo.Create(ctx, p)
	if err != nil {
		return roster.Player{}, fmt.Errorf("create player: %w", err)
	}
	return created, nil
}

// UpdatePlayer replaces the editable fields of an existing player.
func (s *RosterService) UpdatePlayer(ctx context.Context, actorID, playerID int64, input PlayerInput) (roster.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.UpdatePlayer")
	defer span.End()

	existing, err := s.loadOwnedPlayer(ctx, actorID, playerID)
	if err != nil {
		return roster.Player{}, err
	}

	now := s.now().UTC()
	p := existing
	p.FirstName = input.FirstName
	p.LastName = input.LastName
	p.Email = input.Email
	p.DateOfBirth = input.DateOfBirth
	p.ShortsColour = input.ShortsColour
	p.Notes = input.Notes
	p = p.Normalize()
	if err := p.Validate(now); err != nil {
		if errors.Is(err, roster.ErrAgeOutOfRange) {
			return roster.Player{}, err
		}
		return roster.Player{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if p.Email != existing.Email {
		other, found, err := s.rosterRepo.FindByClubEmail(ctx, p.ClubID, p.Email)
		if err != nil {
			return roster.Player{}, fmt.Errorf("check roster email: %w", err)
		}
		if found && other.ID != p.ID {
			return roster.Player{}, roster.ErrDuplicateEmail
		}
	}

	updated, err := s.rosterRepo.Update(ctx, p)
	if err != nil {
		return roster.Player{}, fmt.Errorf("update player: %w", err)
	}
	return updated, nil
}

// RemovePlayer soft-deletes a player. History on past assignments survives.
func (s *RosterService) RemovePlayer(ctx context.Context, actorID, playerID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.RemovePlayer")
	defer span.End()

	if _, err := s.loadOwnedPlayer(ctx, actorID, playerID); err != nil {
		return err
	}
	if err := s.rosterRepo.SetActive(ctx, playerID, false); err != nil {
		return fmt.Errorf("remove player: %w", err)
	}
	return nil
}

// ListPlayers pages the club roster with optional name/email search.
func (s *RosterService) ListPlayers(ctx context.Context, actorID, clubID int64, filter roster.ListFilter) (roster.ListResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListPlayers")
	defer span.End()

	if _, err := s.requireClubAccess(ctx, actorID, clubID); err != nil {
		return roster.ListResult{}, err
	}

	result, err := s.rosterRepo.ListByClub(ctx, clubID, filter.Normalize())
	if err != nil {
		return roster.ListResult{}, fmt.Errorf("list roster: %w", err)
	}
	return result, nil
}

func (s *RosterService) GetPlayer(ctx context.Context, actorID, playerID int64) (roster.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetPlayer")
	defer span.End()

	return s.loadOwnedPlayer(ctx, actorID, playerID)
}

func (s *RosterService) loadOwnedPlayer(ctx context.Context, actorID, playerID int64) (roster.Player, error) {
	p, exists, err := s.rosterRepo.GetByID(ctx, playerID)
	if err != nil {
		return roster.Player{}, fmt.Errorf("lookup player: %w", err)
	}
	if !exists {
		return roster.Player{}, fmt.Errorf("%w: player", ErrNotFound)
	}
	if _, err := s.requireClubAccess(ctx, actorID, p.ClubID); err != nil {
		return roster.Player{}, err
	}
	return p, nil
}

func (s *RosterService) requireClubAccess(ctx context.Context, actorID, clubID int64) (user.User, error) {
	actor, exists, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists || !actor.IsActive {
		return user.User{}, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}
	if actor.IsAdmin {
		return actor, nil
	}
	if actor.ClubID == nil || *actor.ClubID != clubID {
		return user.User{}, fmt.Errorf("%w: roster belongs to another club", ErrUnauthorized)
	}
	return actor, nil
}

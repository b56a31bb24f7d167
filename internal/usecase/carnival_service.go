package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type CreateCarnivalInput struct {
	Title                string
	StartDate            time.Time
	EndDate              *time.Time
	StateCode            string
	Location             carnival.Location
	OrganiserName        string
	OrganiserEmail       string
	OrganiserPhone       string
	ScheduleDetails      string
	RegistrationLink     string
	FeeDescription       string
	MaxTeams             *int
	RegistrationDeadline *time.Time
}

// CarnivalService owns the carnival registry: manual records, scraped
// ingestion, and the claim handover.
type CarnivalService struct {
	carnivalRepo carnival.Repository
	clubRepo     club.Repository
	userRepo     user.Repository
	regRepo      registration.Repository
	dispatcher   *Dispatcher
	logger       *slog.Logger
	now          func() time.Time
}

func NewCarnivalService(
	carnivalRepo carnival.Repository,
	clubRepo club.Repository,
	userRepo user.Repository,
	regRepo registration.Repository,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) *CarnivalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CarnivalService{
		carnivalRepo: carnivalRepo,
		clubRepo:     clubRepo,
		userRepo:     userRepo,
		regRepo:      regRepo,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          time.Now,
	}
}

// Create records a manual carnival and announces it to subscribers in its
// state.
func (s *CarnivalService) Create(ctx context.Context, actorID int64, input CreateCarnivalInput) (carnival.Carnival, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.Create")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return carnival.Carnival{}, err
	}

	c := carnival.Carnival{
		Title:                strings.TrimSpace(input.Title),
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		StateCode:            strings.ToUpper(strings.TrimSpace(input.StateCode)),
		Location:             input.Location,
		OrganiserName:        strings.TrimSpace(input.OrganiserName),
		OrganiserEmail:       user.NormalizeEmail(input.OrganiserEmail),
		OrganiserPhone:       strings.TrimSpace(input.OrganiserPhone),
		ScheduleDetails:      input.ScheduleDetails,
		RegistrationLink:     strings.TrimSpace(input.RegistrationLink),
		FeeDescription:       input.FeeDescription,
		MaxTeams:             input.MaxTeams,
		RegistrationDeadline: input.RegistrationDeadline,
		IsActive:             true,
		HostClubID:           actor.ClubID,
		CreatedByUserID:      actor.ID,
		Source:               carnival.ManualSource(),
	}
	if err := c.Validate(); err != nil {
		return carnival.Carnival{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	created, err := s.carnivalRepo.Create(ctx, c)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("create carnival: %w", err)
	}

	s.dispatcher.AnnounceCarnival(ctx, created, AnnounceNew)
	return created, nil
}

// Update edits a carnival's host-authoritative details. Only the creator (or
// an admin) may edit, and unclaimed scraped records are off limits to users.
func (s *CarnivalService) Update(ctx context.Context, actorID int64, updated carnival.Carnival) (carnival.Carnival, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.Update")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return carnival.Carnival{}, err
	}

	existing, exists, err := s.carnivalRepo.GetByID(ctx, updated.ID)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("lookup carnival: %w", err)
	}
	if !exists {
		return carnival.Carnival{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if existing.Source.Kind == carnival.SourceScraped {
		// Unclaimed imports belong to the sync process until claimed.
		return carnival.Carnival{}, fmt.Errorf("%w: claim this carnival before editing it", ErrUnauthorized)
	}
	if !actor.IsAdmin && existing.CreatedByUserID != actor.ID {
		return carnival.Carnival{}, fmt.Errorf("%w: only the carnival creator can edit it", ErrUnauthorized)
	}

	// Provenance and ownership are not caller-editable.
	updated.Source = existing.Source
	updated.CreatedByUserID = existing.CreatedByUserID
	if err := updated.Validate(); err != nil {
		return carnival.Carnival{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	saved, err := s.carnivalRepo.Update(ctx, updated)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("update carnival: %w", err)
	}

	s.dispatcher.AnnounceCarnival(ctx, saved, AnnounceUpdated)
	return saved, nil
}

func (s *CarnivalService) Get(ctx context.Context, carnivalID int64) (carnival.Carnival, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.Get")
	defer span.End()

	c, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("get carnival: %w", err)
	}
	if !exists {
		return carnival.Carnival{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	return c, nil
}

func (s *CarnivalService) List(ctx context.Context, stateCode string, upcomingOnly bool) ([]carnival.Carnival, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.List")
	defer span.End()

	filter := carnival.ListFilter{StateCode: strings.ToUpper(strings.TrimSpace(stateCode))}
	if filter.StateCode != "" && !club.IsValidStateCode(filter.StateCode) {
		return nil, fmt.Errorf("%w: invalid state code %q", ErrInvalidInput, stateCode)
	}
	if upcomingOnly {
		from := s.now().UTC()
		filter.UpcomingFrom = &from
	}

	carnivals, err := s.carnivalRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list carnivals: %w", err)
	}
	return carnivals, nil
}

// IngestScraped upserts one record from the listing feed. New listings are
// announced; refreshes are silent.
func (s *CarnivalService) IngestScraped(ctx context.Context, record carnival.ScrapedRecord) (carnival.Carnival, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.IngestScraped")
	defer span.End()

	if err := record.Validate(); err != nil {
		return carnival.Carnival{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	_, existed, err := s.carnivalRepo.GetByExternalID(ctx, record.ExternalID)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("lookup scraped carnival: %w", err)
	}

	saved, err := s.carnivalRepo.UpsertScraped(ctx, record, s.now().UTC())
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("upsert scraped carnival: %w", err)
	}

	if !existed {
		s.dispatcher.AnnounceCarnival(ctx, saved, AnnounceNew)
	}
	return saved, nil
}

// IngestScrapedBatch runs per-record upserts concurrently; one bad record
// does not stop the rest.
func (s *CarnivalService) IngestScrapedBatch(ctx context.Context, records []carnival.ScrapedRecord) int {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.IngestScrapedBatch")
	defer span.End()

	var wg conc.WaitGroup
	results := make([]error, len(records))
	for i, record := range records {
		i, record := i, record
		wg.Go(func() {
			_, err := s.IngestScraped(ctx, record)
			results[i] = err
		})
	}
	wg.Wait()

	ingested := 0
	for i, err := range results {
		if err != nil {
			s.logger.WarnContext(ctx, "scraped carnival rejected",
				"external_id", records[i].ExternalID, "error", err)
			continue
		}
		ingested++
	}
	return ingested
}

// Claim hands a scraped, unclaimed carnival to the acting user's club. The
// scraped organiser is notified unless the claimer is that organiser.
func (s *CarnivalService) Claim(ctx context.Context, carnivalID, actorID, actingClubID int64, details carnival.ClaimDetails) (carnival.Carnival, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.Claim")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return carnival.Carnival{}, err
	}
	if actor.ClubID == nil || *actor.ClubID != actingClubID {
		return carnival.Carnival{}, fmt.Errorf("%w: you can only claim on behalf of your own club", ErrUnauthorized)
	}

	existing, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("lookup carnival: %w", err)
	}
	if !exists {
		return carnival.Carnival{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	scrapedOrganiserEmail := existing.OrganiserEmail

	claimed, err := s.carnivalRepo.Claim(ctx, carnivalID, actingClubID, actor.ID, details, s.now().UTC())
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("claim carnival: %w", err)
	}

	s.dispatcher.NotifyClaim(ctx, claimed, scrapedOrganiserEmail, actor.Email)
	s.dispatcher.AnnounceCarnival(ctx, claimed, AnnounceMerged)
	return claimed, nil
}

// RegistrationOpen reports whether a club could self-register right now:
// active claimed/manual carnival, deadline not passed, approved teams below
// capacity. The approved count is a fresh read.
func (s *CarnivalService) RegistrationOpen(ctx context.Context, carnivalID int64) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.RegistrationOpen")
	defer span.End()

	c, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return false, fmt.Errorf("get carnival: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if c.Source.Claimable() {
		return false, nil
	}
	if !c.AcceptingAt(s.now().UTC()) {
		return false, nil
	}
	if c.MaxTeams != nil {
		approved, err := s.regRepo.CountApproved(ctx, carnivalID)
		if err != nil {
			return false, fmt.Errorf("count approved registrations: %w", err)
		}
		if approved >= *c.MaxTeams {
			return false, nil
		}
	}
	return true, nil
}

// Deactivate soft-deletes a carnival. Registrations keep their rows for
// history; the listing and registration paths stop seeing the event.
func (s *CarnivalService) Deactivate(ctx context.Context, carnivalID, actorID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.Deactivate")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return err
	}

	c, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return fmt.Errorf("get carnival: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if !actor.IsAdmin && c.CreatedByUserID != actor.ID {
		return fmt.Errorf("%w: only the carnival creator can remove it", ErrUnauthorized)
	}
	if !c.IsActive {
		return nil
	}

	c.IsActive = false
	if _, err := s.carnivalRepo.Update(ctx, c); err != nil {
		return fmt.Errorf("deactivate carnival: %w", err)
	}
	return nil
}

// BroadcastAttendees sends a host-authored message to every approved attending
// club. Only the carnival creator or an admin may broadcast.
func (s *CarnivalService) BroadcastAttendees(ctx context.Context, carnivalID, actorID int64, subject, body string) (DispatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.BroadcastAttendees")
	defer span.End()

	actor, err := s.requireActiveUser(ctx, actorID)
	if err != nil {
		return DispatchResult{}, err
	}

	subject = strings.TrimSpace(subject)
	if subject == "" || strings.TrimSpace(body) == "" {
		return DispatchResult{}, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}

	c, exists, err := s.carnivalRepo.GetByID(ctx, carnivalID)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("get carnival: %w", err)
	}
	if !exists {
		return DispatchResult{}, fmt.Errorf("%w: carnival", ErrNotFound)
	}
	if !actor.IsAdmin && c.CreatedByUserID != actor.ID {
		return DispatchResult{}, fmt.Errorf("%w: only the carnival creator can broadcast to attendees", ErrUnauthorized)
	}

	return s.dispatcher.BroadcastToAttendees(ctx, c, subject, body), nil
}

func (s *CarnivalService) CountApproved(ctx context.Context, carnivalID int64) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CarnivalService.CountApproved")
	defer span.End()

	count, err := s.regRepo.CountApproved(ctx, carnivalID)
	if err != nil {
		return 0, fmt.Errorf("count approved registrations: %w", err)
	}
	return count, nil
}

func (s *CarnivalService) requireActiveUser(ctx context.Context, userID int64) (user.User, error) {
	actor, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists || !actor.IsActive {
		return user.User{}, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}
	return actor, nil
}

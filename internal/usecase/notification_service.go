package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

// EmailSender hands one message to the external email collaborator. The
// dispatcher computes audiences and payloads; it never opens sockets itself.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body, emailType string) error
}

// Announcement kinds for carnival subscriber emails.
const (
	AnnounceNew     = "new"
	AnnounceUpdated = "updated"
	AnnounceMerged  = "merged"
)

// DispatchResult counts per-recipient outcomes of a best-effort dispatch.
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatcher computes notification audiences and requests sends. Dispatch is
// best effort per recipient: failures are counted, logged, and never
// propagated to the state transition that triggered them.
type Dispatcher struct {
	sender   EmailSender
	subsRepo subscription.Repository
	userRepo user.Repository
	clubRepo club.Repository
	regRepo  registration.Repository
	pool     *ants.Pool
	baseURL  string
	enabled  bool
	logger   *slog.Logger
}

func NewDispatcher(
	sender EmailSender,
	subsRepo subscription.Repository,
	userRepo user.Repository,
	clubRepo club.Repository,
	regRepo registration.Repository,
	pool *ants.Pool,
	baseURL string,
	enabled bool,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:   sender,
		subsRepo: subsRepo,
		userRepo: userRepo,
		clubRepo: clubRepo,
		regRepo:  regRepo,
		pool:     pool,
		baseURL:  strings.TrimRight(baseURL, "/"),
		enabled:  enabled,
		logger:   logger,
	}
}

// AnnounceCarnival emails every active subscriber whose states of interest
// include the carnival's state.
func (d *Dispatcher) AnnounceCarnival(ctx context.Context, c carnival.Carnival, kind string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.AnnounceCarnival")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	subs, err := d.subsRepo.ListActiveByState(ctx, c.StateCode)
	if err != nil {
		d.logger.ErrorContext(ctx, "list subscribers for announcement failed", "state", c.StateCode, "error", err)
		return DispatchResult{}
	}

	var subject string
	switch kind {
	case AnnounceUpdated:
		subject = fmt.Sprintf("Updated carnival: %s", c.Title)
	case AnnounceMerged:
		subject = fmt.Sprintf("Carnival now hosted: %s", c.Title)
	default:
		subject = fmt.Sprintf("New carnival in %s: %s", c.StateCode, c.Title)
	}

	recipients := make([]string, 0, len(subs))
	for _, s := range subs {
		recipients = append(recipients, s.Email)
	}

	return d.fanOut(ctx, recipients, subject, d.carnivalBody(c), "carnival_announcement")
}

// BroadcastToAttendees emails every active approved attending club, using the
// primary-delegate email with fallback to the club contact email. Clubs
// without any email are skipped and counted as failed.
func (d *Dispatcher) BroadcastToAttendees(ctx context.Context, c carnival.Carnival, subject, body string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.BroadcastToAttendees")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	regs, err := d.regRepo.ListByCarnival(ctx, c.ID)
	if err != nil {
		d.logger.ErrorContext(ctx, "list registrations for broadcast failed", "carnival_id", c.ID, "error", err)
		return DispatchResult{}
	}

	skipped := 0
	recipients := make([]string, 0, len(regs))
	for _, r := range regs {
		if !r.IsActive || r.ApprovalStatus != registration.StatusApproved {
			continue
		}
		email, ok := d.clubEmail(ctx, r.ClubID)
		if !ok {
			skipped++
			continue
		}
		recipients = append(recipients, email)
	}

	result := d.fanOut(ctx, recipients, subject, body, "attendee_broadcast")
	result.Failed += skipped
	return result
}

// NotifyRegistrationReceived tells the host a pending registration arrived.
func (d *Dispatcher) NotifyRegistrationReceived(ctx context.Context, c carnival.Carnival, registeringClub club.Club) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifyRegistrationReceived")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	to := d.hostEmail(ctx, c)
	if to == "" {
		return DispatchResult{Failed: 1}
	}

	subject := fmt.Sprintf("Registration request for %s", c.Title)
	body := fmt.Sprintf(
		"%s has requested to attend %s.\n\nReview the registration: %s/carnivals/%d/registrations\n",
		registeringClub.Name, c.Title, d.baseURL, c.ID,
	)
	return d.send(ctx, to, subject, body, "registration_received")
}

// NotifyApproval emails the registered club that its team is in.
func (d *Dispatcher) NotifyApproval(ctx context.Context, c carnival.Carnival, r registration.Registration) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifyApproval")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	to, ok := d.clubEmail(ctx, r.ClubID)
	if !ok {
		return DispatchResult{Failed: 1}
	}

	subject := fmt.Sprintf("Registration approved: %s", c.Title)
	body := fmt.Sprintf(
		"Your registration for %s on %s has been approved.\n\nManage your attending players: %s/registrations/%d/players\n",
		c.Title, c.StartDate.Format("2 January 2006"), d.baseURL, r.ID,
	)
	return d.send(ctx, to, subject, body, "registration_approved")
}

// NotifyRejection emails the registered club the host's decision and reason.
func (d *Dispatcher) NotifyRejection(ctx context.Context, c carnival.Carnival, r registration.Registration, reason string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifyRejection")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	to, ok := d.clubEmail(ctx, r.ClubID)
	if !ok {
		return DispatchResult{Failed: 1}
	}

	subject := fmt.Sprintf("Registration declined: %s", c.Title)
	body := fmt.Sprintf(
		"Your registration for %s was declined.\n\nReason: %s\n\nYou can amend and resubmit: %s/registrations/%d\n",
		c.Title, reason, d.baseURL, r.ID,
	)
	return d.send(ctx, to, subject, body, "registration_rejected")
}

// NotifyClaim emails the scraped organiser that a club took over the listing.
// Suppressed when that address belongs to the claimer.
func (d *Dispatcher) NotifyClaim(ctx context.Context, c carnival.Carnival, scrapedOrganiserEmail, claimerEmail string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifyClaim")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	to := user.NormalizeEmail(scrapedOrganiserEmail)
	if to == "" || strings.EqualFold(to, user.NormalizeEmail(claimerEmail)) {
		return DispatchResult{}
	}

	subject := fmt.Sprintf("Your carnival listing has been claimed: %s", c.Title)
	body := fmt.Sprintf(
		"The listing for %s is now managed by its host club on the platform.\n\nView it here: %s/carnivals/%d\n",
		c.Title, d.baseURL, c.ID,
	)
	return d.send(ctx, to, subject, body, "carnival_claimed")
}

// NotifyInvitation emails a delegate invitation link.
func (d *Dispatcher) NotifyInvitation(ctx context.Context, invitee user.User, inviter user.User, clubName, tokenValue string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifyInvitation")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	subject := fmt.Sprintf("You have been invited to join %s", clubName)
	body := fmt.Sprintf(
		"%s invited you to become a delegate of %s.\n\nAccept within 7 days: %s/invitations/%s\n",
		inviter.FullName(), clubName, d.baseURL, tokenValue,
	)
	return d.send(ctx, invitee.Email, subject, body, "delegate_invitation")
}

// NotifyRoleTransfer emails both sides of a primary-delegate handover.
func (d *Dispatcher) NotifyRoleTransfer(ctx context.Context, from, to user.User, clubName string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifyRoleTransfer")
	defer span.End()

	if !d.enabled {
		return DispatchResult{}
	}

	subject := fmt.Sprintf("Primary delegate changed for %s", clubName)
	body := fmt.Sprintf(
		"%s is now the primary delegate of %s.\n",
		to.FullName(), clubName,
	)
	result := d.send(ctx, to.Email, subject, body, "role_transfer")
	fromResult := d.send(ctx, from.Email, subject, body, "role_transfer")
	return DispatchResult{Sent: result.Sent + fromResult.Sent, Failed: result.Failed + fromResult.Failed}
}

// NotifySecurityAlert emails a direct warning, e.g. proxy-club handover or
// club reactivation.
func (d *Dispatcher) NotifySecurityAlert(ctx context.Context, to, subject, body string) DispatchResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Dispatcher.NotifySecurityAlert")
	defer span.End()

	if !d.enabled || user.NormalizeEmail(to) == "" {
		return DispatchResult{}
	}
	return d.send(ctx, to, subject, body, "security_alert")
}

func (d *Dispatcher) carnivalBody(c carnival.Carnival) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s, %s\n", c.Title, c.Location.Suburb, c.StateCode)
	fmt.Fprintf(&b, "Starts: %s\n", c.StartDate.Format("2 January 2006"))
	if c.RegistrationDeadline != nil {
		fmt.Fprintf(&b, "Register by: %s\n", c.RegistrationDeadline.Format("2 January 2006"))
	}
	fmt.Fprintf(&b, "\nDetails: %s/carnivals/%d\n", d.baseURL, c.ID)
	return b.String()
}

// clubEmail resolves a club's notification address: primary delegate first,
// then the club contact email.
func (d *Dispatcher) clubEmail(ctx context.Context, clubID int64) (string, bool) {
	if primary, ok, err := d.userRepo.PrimaryDelegateByClub(ctx, clubID); err == nil && ok && primary.Email != "" {
		return primary.Email, true
	}
	c, ok, err := d.clubRepo.GetByID(ctx, clubID)
	if err != nil || !ok || user.NormalizeEmail(c.ContactEmail) == "" {
		return "", false
	}
	return c.ContactEmail, true
}

func (d *Dispatcher) hostEmail(ctx context.Context, c carnival.Carnival) string {
	if c.HostClubID != nil {
		if email, ok := d.clubEmail(ctx, *c.HostClubID); ok {
			return email
		}
	}
	if creator, ok, err := d.userRepo.GetByID(ctx, c.CreatedByUserID); err == nil && ok {
		return creator.Email
	}
	return user.NormalizeEmail(c.OrganiserEmail)
}

func (d *Dispatcher) send(ctx context.Context, to, subject, body, emailType string) DispatchResult {
	if err := d.sender.Send(ctx, to, subject, body, emailType); err != nil {
		d.logger.WarnContext(ctx, "notification send failed", "type", emailType, "error", err)
		return DispatchResult{Failed: 1}
	}
	return DispatchResult{Sent: 1}
}

// fanOut dispatches one message to many recipients, using the worker pool
// when one is configured. Individual failures only bump the counter.
func (d *Dispatcher) fanOut(ctx context.Context, recipients []string, subject, body, emailType string) DispatchResult {
	if len(recipients) == 0 {
		return DispatchResult{}
	}

	var sent, failed atomic.Int64
	deliver := func(to string) {
		if err := d.sender.Send(ctx, to, subject, body, emailType); err != nil {
			d.logger.WarnContext(ctx, "notification send failed", "type", emailType, "error", err)
			failed.Add(1)
			return
		}
		sent.Add(1)
	}

	if d.pool == nil {
		for _, to := range recipients {
			deliver(to)
		}
		return DispatchResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
	}

	var wg sync.WaitGroup
	for _, to := range recipients {
		to := to
		wg.Add(1)
		if err := d.pool.Submit(func() {
			defer wg.Done()
			deliver(to)
		}); err != nil {
			wg.Done()
			deliver(to)
		}
	}
	wg.Wait()

	return DispatchResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
}

// WaitIdle gives tests a deterministic point after asynchronous dispatch.
func (d *Dispatcher) WaitIdle(timeout time.Duration) {
	if d.pool == nil {
		return
	}
	deadline := time.Now().Add(timeout)
	for d.pool.Running() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

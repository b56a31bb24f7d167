package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/audit"
	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/infrastructure/repository/memory"
	"github.com/ausmasters/carnivalhub/internal/platform/ratelimit"
	"github.com/ausmasters/carnivalhub/internal/platform/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stores bundles the in-memory repositories the way the app wires them.
type stores struct {
	users         *memory.UserRepository
	clubs         *memory.ClubRepository
	carnivals     *memory.CarnivalRepository
	registrations *memory.RegistrationRepository
	roster        *memory.RosterRepository
	assignments   *memory.AssignmentRepository
	subscriptions *memory.SubscriptionRepository
}

func newStores() *stores {
	carnivals := memory.NewCarnivalRepository()
	rosterRepo := memory.NewRosterRepository()
	registrations := memory.NewRegistrationRepository(carnivals)
	assignments := memory.NewAssignmentRepository(registrations, rosterRepo)

	return &stores{
		users:         memory.NewUserRepository(),
		clubs:         memory.NewClubRepository(),
		carnivals:     carnivals,
		registrations: registrations,
		roster:        rosterRepo,
		assignments:   assignments,
		subscriptions: memory.NewSubscriptionRepository(),
	}
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
	Type    string
}

// recordingSender captures dispatched emails and can fail per recipient.
type recordingSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]bool
}

func (s *recordingSender) Send(_ context.Context, to, subject, body, emailType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[to] {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, sentEmail{To: to, Subject: subject, Body: body, Type: emailType})
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *recordingSender) allTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, e := range s.sent {
		out = append(out, e.To)
	}
	return out
}

func (s *recordingSender) sentTo(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.sent {
		if e.To == email {
			return true
		}
	}
	return false
}

func (s *recordingSender) lastType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Type
}

func (st *stores) dispatcher(sender EmailSender) *Dispatcher {
	return NewDispatcher(sender, st.subscriptions, st.users, st.clubs, st.registrations,
		nil, "https://carnivalhub.test", true, testLogger())
}

func (st *stores) silentDispatcher() *Dispatcher {
	return NewDispatcher(nil, st.subscriptions, st.users, st.clubs, st.registrations,
		nil, "https://carnivalhub.test", false, testLogger())
}

func (st *stores) membershipService(d *Dispatcher) *MembershipService {
	return NewMembershipService(st.users, st.clubs, d,
		audit.NewLogRecorder(testLogger()), token.NewRandomGenerator(), testLogger())
}

func (st *stores) carnivalService(d *Dispatcher) *CarnivalService {
	return NewCarnivalService(st.carnivals, st.clubs, st.users, st.registrations, d, testLogger())
}

func (st *stores) registrationService(d *Dispatcher) *RegistrationService {
	return NewRegistrationService(st.registrations, st.carnivals, st.clubs, st.users, d, testLogger())
}

func (st *stores) rosterService() *RosterService {
	return NewRosterService(st.roster, st.users, testLogger())
}

func (st *stores) assignmentService() *AssignmentService {
	return NewAssignmentService(st.assignments, st.registrations, st.carnivals, st.users, testLogger())
}

func (st *stores) subscriptionService(limiter *ratelimit.Limiter) *SubscriptionService {
	return NewSubscriptionService(st.subscriptions, token.NewRandomGenerator(), limiter, testLogger())
}

func (st *stores) seedUser(t *testing.T, u user.User, password string) user.User {
	t.Helper()
	created, err := st.users.Create(t.Context(), u, password)
	if err != nil {
		t.Fatalf("seed user %s: %v", u.Email, err)
	}
	return created
}

func (st *stores) seedClub(t *testing.T, c club.Club) club.Club {
	t.Helper()
	created, err := st.clubs.Create(t.Context(), c)
	if err != nil {
		t.Fatalf("seed club %s: %v", c.Name, err)
	}
	return created
}

// seedDelegate creates a club and its active primary delegate in one step.
func (st *stores) seedDelegate(t *testing.T, clubName, email string) (user.User, club.Club) {
	t.Helper()
	c := st.seedClub(t, club.Club{
		Name:             clubName,
		StateCode:        "NSW",
		IsActive:         true,
		IsPubliclyListed: true,
	})
	u := st.seedUser(t, user.User{
		Email:             email,
		FirstName:         "Dana",
		LastName:          "Delegate",
		IsActive:          true,
		IsPrimaryDelegate: true,
		ClubID:            &c.ID,
	}, "delegate-password")
	return u, c
}

func (st *stores) seedCarnival(t *testing.T, c carnival.Carnival) carnival.Carnival {
	t.Helper()
	if c.Title == "" {
		c.Title = "Test Carnival"
	}
	if c.StateCode == "" {
		c.StateCode = "NSW"
	}
	if c.StartDate.IsZero() {
		c.StartDate = time.Now().UTC().Add(30 * 24 * time.Hour)
	}
	if c.Source.Kind == "" {
		c.Source = carnival.ManualSource()
	}
	created, err := st.carnivals.Create(t.Context(), c)
	if err != nil {
		t.Fatalf("seed carnival %s: %v", c.Title, err)
	}
	return created
}

func (st *stores) seedPlayer(t *testing.T, clubID int64, firstName, email string, age int) roster.Player {
	t.Helper()
	dob := time.Now().UTC().AddDate(-age, 0, -1)
	created, err := st.roster.Create(t.Context(), roster.Player{
		ClubID:      clubID,
		FirstName:   firstName,
		LastName:    "Player",
		Email:       email,
		DateOfBirth: dob,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("seed player %s: %v", email, err)
	}
	return created
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

package usecase

import (
	"errors"
	"testing"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

// approvedRegistration seeds a host, a visiting delegate with two roster
// players, and an approved registration ready for assignments.
func approvedRegistration(t *testing.T, st *stores) (host, delegate user.User, r registration.Registration, playerIDs []int64) {
	t.Helper()

	host, _ = st.seedDelegate(t, "Host Club", "host@club.test")
	delegate, visiting := st.seedDelegate(t, "Visiting Club", "visiting@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	regSvc := st.registrationService(st.silentDispatcher())
	created, err := regSvc.Register(t.Context(), c.ID, delegate.ID, RegisterClubInput{})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	r, err = regSvc.Approve(t.Context(), created.ID, host.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	p1 := st.seedPlayer(t, visiting.ID, "Alex", "alex@visiting.test", 38)
	p2 := st.seedPlayer(t, visiting.ID, "Blake", "blake@visiting.test", 42)
	return host, delegate, r, []int64{p1.ID, p2.ID}
}

func TestAssignmentService_AttachPlayers(t *testing.T) {
	st := newStores()
	_, delegate, r, playerIDs := approvedRegistration(t, st)
	svc := st.assignmentService()

	added, err := svc.AttachPlayers(t.Context(), delegate.ID, r.ID, playerIDs)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	assignments, err := svc.ListAssignments(t.Context(), delegate.ID, r.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	for _, a := range assignments {
		if a.AttendanceStatus != registration.AttendanceConfirmed {
			t.Fatalf("expected confirmed default, got %s", a.AttendanceStatus)
		}
	}

	// A retried attach adds nothing new.
	added, err = svc.AttachPlayers(t.Context(), delegate.ID, r.ID, playerIDs)
	if err != nil {
		t.Fatalf("retried attach failed: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected 0 added on retry, got %d", added)
	}
}

func TestAssignmentService_AttachRequiresApproved(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	delegate, visiting := st.seedDelegate(t, "Visiting Club", "visiting@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	regSvc := st.registrationService(st.silentDispatcher())
	pending, err := regSvc.Register(t.Context(), c.ID, delegate.ID, RegisterClubInput{})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	p := st.seedPlayer(t, visiting.ID, "Early", "early@visiting.test", 39)

	svc := st.assignmentService()
	if _, err := svc.AttachPlayers(t.Context(), delegate.ID, pending.ID, []int64{p.ID}); !errors.Is(err, registration.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for pending registration, got %v", err)
	}
}

func TestAssignmentService_AttachWrongClubPlayer(t *testing.T) {
	st := newStores()
	_, delegate, r, _ := approvedRegistration(t, st)
	_, otherClub := st.seedDelegate(t, "Third Club", "third@club.test")
	stranger := st.seedPlayer(t, otherClub.ID, "Stray", "stray@third.test", 40)

	svc := st.assignmentService()
	if _, err := svc.AttachPlayers(t.Context(), delegate.ID, r.ID, []int64{stranger.ID}); !errors.Is(err, registration.ErrPlayerWrongClub) {
		t.Fatalf("expected ErrPlayerWrongClub, got %v", err)
	}
}

func TestAssignmentService_AttendanceLifecycle(t *testing.T) {
	st := newStores()
	host, delegate, r, playerIDs := approvedRegistration(t, st)
	svc := st.assignmentService()

	if _, err := svc.AttachPlayers(t.Context(), delegate.ID, r.ID, playerIDs); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	assignments, err := svc.ListAssignments(t.Context(), delegate.ID, r.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	updated, err := svc.SetAttendance(t.Context(), delegate.ID, assignments[0].ID, registration.AttendanceConfirmed, "arriving friday")
	if err != nil {
		t.Fatalf("set attendance failed: %v", err)
	}
	if updated.AttendanceStatus != registration.AttendanceConfirmed || updated.Notes != "arriving friday" {
		t.Fatalf("unexpected assignment state: %+v", updated)
	}
	if _, err := svc.SetAttendance(t.Context(), delegate.ID, assignments[1].ID, registration.AttendanceUnavailable, ""); err != nil {
		t.Fatalf("set attendance failed: %v", err)
	}

	// The carnival creator can read the summary without club membership.
	counts, err := svc.AttendanceSummary(t.Context(), host.ID, r.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if counts.Confirmed != 1 || counts.Unavailable != 1 || counts.Tentative != 0 || counts.Total != 2 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	if err := svc.DetachPlayer(t.Context(), delegate.ID, assignments[1].ID); err != nil {
		t.Fatalf("detach failed: %v", err)
	}
	counts, err = svc.AttendanceSummary(t.Context(), delegate.ID, r.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if counts.Total != 1 {
		t.Fatalf("expected detached player excluded, got %+v", counts)
	}

	// Detached assignments cannot take attendance updates.
	if _, err := svc.SetAttendance(t.Context(), delegate.ID, assignments[1].ID, registration.AttendanceConfirmed, ""); !errors.Is(err, registration.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestAssignmentService_ForeignDelegateRefused(t *testing.T) {
	st := newStores()
	_, delegate, r, playerIDs := approvedRegistration(t, st)
	outsider, _ := st.seedDelegate(t, "Outsider Club", "outsider@club.test")

	svc := st.assignmentService()
	if _, err := svc.AttachPlayers(t.Context(), outsider.ID, r.ID, playerIDs); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ListAssignments(t.Context(), outsider.ID, r.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on read, got %v", err)
	}
	if _, err := svc.AttachPlayers(t.Context(), delegate.ID, r.ID, playerIDs); err != nil {
		t.Fatalf("owner attach failed: %v", err)
	}
}

func TestAssignmentService_WithdrawDeactivatesAssignments(t *testing.T) {
	st := newStores()
	host, delegate, r, playerIDs := approvedRegistration(t, st)
	svc := st.assignmentService()

	if _, err := svc.AttachPlayers(t.Context(), delegate.ID, r.ID, playerIDs); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	regSvc := st.registrationService(st.silentDispatcher())
	if err := regSvc.Withdraw(t.Context(), r.ID, delegate.ID); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	// The creator retains read access to the now-inactive registration.
	counts, err := svc.AttendanceSummary(t.Context(), host.ID, r.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if counts.Total != 0 {
		t.Fatalf("expected assignments deactivated with the withdrawal, got %+v", counts)
	}
}

func TestAssignmentService_AttachRepeatedIDsInOneRequest(t *testing.T) {
	st := newStores()
	_, delegate, r, playerIDs := approvedRegistration(t, st)
	svc := st.assignmentService()

	added, err := svc.AttachPlayers(t.Context(), delegate.ID, r.ID, []int64{playerIDs[0], playerIDs[0]})
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected a repeated ID to attach once, got %d", added)
	}

	assignments, err := svc.ListAssignments(t.Context(), delegate.ID, r.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("expected one active assignment, got %d", len(assignments))
	}
}

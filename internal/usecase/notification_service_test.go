package usecase

import (
	"testing"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

func TestDispatcher_AnnounceCarnivalAudience(t *testing.T) {
	st := newStores()
	st.seedSubscriber(t, "nsw-one@example.test", "NSW")
	st.seedSubscriber(t, "nsw-two@example.test", "NSW", "QLD")
	st.seedSubscriber(t, "vic-only@example.test", "VIC")
	lapsed := st.seedSubscriber(t, "lapsed@example.test", "NSW")
	if err := st.subscriptions.Deactivate(t.Context(), lapsed.ID, lapsed.SubscribedAt); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	sender := &recordingSender{}
	d := st.dispatcher(sender)

	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	result := d.AnnounceCarnival(t.Context(), c, AnnounceNew)
	if result.Sent != 2 || result.Failed != 0 {
		t.Fatalf("expected 2 sent, got %+v", result)
	}
	if !sender.sentTo("nsw-one@example.test") || !sender.sentTo("nsw-two@example.test") {
		t.Fatalf("expected both NSW subscribers, sent to %v", sender.allTo())
	}
	if sender.sentTo("vic-only@example.test") || sender.sentTo("lapsed@example.test") {
		t.Fatalf("audience leaked: %v", sender.allTo())
	}
}

func TestDispatcher_AnnounceCountsPerRecipientFailures(t *testing.T) {
	st := newStores()
	st.seedSubscriber(t, "works@example.test", "NSW")
	st.seedSubscriber(t, "bounces@example.test", "NSW")

	sender := &recordingSender{failFor: map[string]bool{"bounces@example.test": true}}
	d := st.dispatcher(sender)

	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	result := d.AnnounceCarnival(t.Context(), c, AnnounceNew)
	if result.Sent != 1 || result.Failed != 1 {
		t.Fatalf("expected 1 sent 1 failed, got %+v", result)
	}
}

func TestDispatcher_DisabledIsNoOp(t *testing.T) {
	st := newStores()
	st.seedSubscriber(t, "fan@example.test", "NSW")

	d := st.silentDispatcher()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	if result := d.AnnounceCarnival(t.Context(), c, AnnounceNew); result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("disabled dispatcher must not send, got %+v", result)
	}
	if result := d.NotifyRegistrationReceived(t.Context(), c, club.Club{}); result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("disabled dispatcher must not send, got %+v", result)
	}
}

func TestDispatcher_BroadcastToAttendees(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	regSvc := st.registrationService(st.silentDispatcher())

	// Approved club with a primary delegate.
	withDelegate, _ := st.seedDelegate(t, "Delegated Club", "delegated@club.test")
	r1, err := regSvc.Register(t.Context(), c.ID, withDelegate.ID, RegisterClubInput{})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := regSvc.Approve(t.Context(), r1.ID, host.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Approved club without a delegate email falls back to the club contact.
	contactOnly := st.seedClub(t, club.Club{
		Name: "Contact Club", StateCode: "NSW", IsActive: true,
		ContactEmail: "contact@contactclub.test",
	})
	if _, err := st.registrations.CreateByHost(t.Context(), registration.Registration{
		CarnivalID:     c.ID,
		ClubID:         contactOnly.ID,
		IsActive:       true,
		ApprovalStatus: registration.StatusApproved,
	}, host.ID, c.CreatedAt); err != nil {
		t.Fatalf("seed contact-only registration: %v", err)
	}

	// Approved club with no reachable address at all.
	unreachable := st.seedClub(t, club.Club{Name: "Silent Club", StateCode: "NSW", IsActive: true})
	if _, err := st.registrations.CreateByHost(t.Context(), registration.Registration{
		CarnivalID:     c.ID,
		ClubID:         unreachable.ID,
		IsActive:       true,
		ApprovalStatus: registration.StatusApproved,
	}, host.ID, c.CreatedAt); err != nil {
		t.Fatalf("seed unreachable registration: %v", err)
	}

	// A pending club is not an attendee.
	pendingClub, _ := st.seedDelegate(t, "Pending Club", "pending@club.test")
	if _, err := regSvc.Register(t.Context(), c.ID, pendingClub.ID, RegisterClubInput{}); err != nil {
		t.Fatalf("register pending failed: %v", err)
	}

	sender := &recordingSender{}
	d := st.dispatcher(sender)

	result := d.BroadcastToAttendees(t.Context(), c, "Schedule update", "Gates open 8am.")
	if result.Sent != 2 || result.Failed != 1 {
		t.Fatalf("expected 2 sent 1 failed, got %+v", result)
	}
	if !sender.sentTo("delegated@club.test") || !sender.sentTo("contact@contactclub.test") {
		t.Fatalf("unexpected recipients: %v", sender.allTo())
	}
	if sender.sentTo("pending@club.test") {
		t.Fatalf("pending clubs are not attendees")
	}
	if sender.lastType() != "attendee_broadcast" {
		t.Fatalf("unexpected email type %q", sender.lastType())
	}
}

func TestDispatcher_RegistrationReceivedFallsBackToCreator(t *testing.T) {
	st := newStores()
	// A host without any club: the creator's own address takes the emails.
	creator := st.seedUser(t, user.User{
		Email: "solo@host.test", FirstName: "Solo", IsActive: true,
	}, "solo-pass")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: creator.ID, IsActive: true})

	sender := &recordingSender{}
	d := st.dispatcher(sender)

	result := d.NotifyRegistrationReceived(t.Context(), c, club.Club{Name: "Visiting"})
	if result.Sent != 1 {
		t.Fatalf("expected 1 sent, got %+v", result)
	}
	if !sender.sentTo("solo@host.test") {
		t.Fatalf("expected creator fallback, sent to %v", sender.allTo())
	}
}

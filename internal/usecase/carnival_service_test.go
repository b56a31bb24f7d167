package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
)

func (st *stores) seedSubscriber(t *testing.T, email string, states ...string) subscription.Subscription {
	t.Helper()
	sub, err := st.subscriptions.Upsert(t.Context(), subscription.Subscription{
		Email:            email,
		StateCodes:       states,
		IsActive:         true,
		UnsubscribeToken: "token-" + email,
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed subscriber %s: %v", email, err)
	}
	return sub
}

func TestCarnivalService_CreateAnnouncesToStateSubscribers(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	st.seedSubscriber(t, "nsw-fan@example.test", "NSW")
	st.seedSubscriber(t, "qld-fan@example.test", "QLD")

	sender := &recordingSender{}
	svc := st.carnivalService(st.dispatcher(sender))

	created, err := svc.Create(t.Context(), host.ID, CreateCarnivalInput{
		Title:     "Spring Nines",
		StartDate: time.Now().UTC().Add(45 * 24 * time.Hour),
		StateCode: "nsw",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Source.Kind != carnival.SourceManual {
		t.Fatalf("expected manual source, got %s", created.Source.Kind)
	}
	if created.HostClubID == nil {
		t.Fatalf("expected creator's club as host")
	}

	if !sender.sentTo("nsw-fan@example.test") {
		t.Fatalf("expected NSW subscriber notified, sent to %v", sender.allTo())
	}
	if sender.sentTo("qld-fan@example.test") {
		t.Fatalf("QLD subscriber should not hear about a NSW carnival")
	}
	if sender.lastType() != "carnival_announcement" {
		t.Fatalf("unexpected email type %q", sender.lastType())
	}
}

func TestCarnivalService_CreateRejectsInvalidState(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")

	svc := st.carnivalService(st.silentDispatcher())
	_, err := svc.Create(t.Context(), host.ID, CreateCarnivalInput{
		Title:     "Nowhere Cup",
		StartDate: time.Now().UTC().Add(24 * time.Hour),
		StateCode: "XX",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCarnivalService_UpdateOnlyCreator(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	stranger, _ := st.seedDelegate(t, "Other Club", "other@club.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	svc := st.carnivalService(st.silentDispatcher())

	c.Title = "Renamed Carnival"
	if _, err := svc.Update(t.Context(), stranger.ID, c); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	saved, err := svc.Update(t.Context(), host.ID, c)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if saved.Title != "Renamed Carnival" {
		t.Fatalf("expected updated title, got %s", saved.Title)
	}
}

func TestCarnivalService_UpdateRefusesUnclaimedScraped(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	svc := st.carnivalService(st.silentDispatcher())

	saved, err := svc.IngestScraped(t.Context(), carnival.ScrapedRecord{
		ExternalID: "feed-1",
		Title:      "Imported Cup",
		StartDate:  time.Now().UTC().Add(60 * 24 * time.Hour),
		StateCode:  "VIC",
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	saved.Title = "Hijacked Title"
	if _, err := svc.Update(t.Context(), host.ID, saved); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unclaimed import, got %v", err)
	}
}

func TestCarnivalService_IngestScrapedAnnouncesOnlyNewListings(t *testing.T) {
	st := newStores()
	st.seedSubscriber(t, "vic-fan@example.test", "VIC")

	sender := &recordingSender{}
	svc := st.carnivalService(st.dispatcher(sender))

	record := carnival.ScrapedRecord{
		ExternalID: "feed-7",
		Title:      "Country Championships",
		StartDate:  time.Now().UTC().Add(90 * 24 * time.Hour),
		StateCode:  "VIC",
	}

	first, err := svc.IngestScraped(t.Context(), record)
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("expected one announcement, got %d", sender.count())
	}

	record.Title = "Country Championships (updated)"
	second, err := svc.IngestScraped(t.Context(), record)
	if err != nil {
		t.Fatalf("refresh ingest failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("refresh should reuse row %d, got %d", first.ID, second.ID)
	}
	if second.Title != "Country Championships (updated)" {
		t.Fatalf("expected refreshed title, got %s", second.Title)
	}
	if sender.count() != 1 {
		t.Fatalf("refresh must not re-announce, got %d emails", sender.count())
	}
}

func TestCarnivalService_IngestScrapedBatchCountsAccepted(t *testing.T) {
	st := newStores()
	svc := st.carnivalService(st.silentDispatcher())

	start := time.Now().UTC().Add(30 * 24 * time.Hour)
	records := []carnival.ScrapedRecord{
		{ExternalID: "batch-1", Title: "First", StartDate: start, StateCode: "NSW"},
		{ExternalID: "", Title: "Missing ID", StartDate: start, StateCode: "NSW"},
		{ExternalID: "batch-3", Title: "Third", StartDate: start, StateCode: "WA"},
	}

	if got := svc.IngestScrapedBatch(t.Context(), records); got != 2 {
		t.Fatalf("expected 2 ingested, got %d", got)
	}

	carnivals, err := svc.List(t.Context(), "", false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(carnivals) != 2 {
		t.Fatalf("expected 2 stored carnivals, got %d", len(carnivals))
	}
}

func TestCarnivalService_Claim(t *testing.T) {
	st := newStores()
	claimer, claimerClub := st.seedDelegate(t, "Claiming Club", "claimer@club.test")
	svc := st.carnivalService(st.silentDispatcher())

	saved, err := svc.IngestScraped(t.Context(), carnival.ScrapedRecord{
		ExternalID:     "feed-claim",
		Title:          "Coastal Carnival",
		StartDate:      time.Now().UTC().Add(60 * 24 * time.Hour),
		StateCode:      "NSW",
		OrganiserEmail: "organiser@coastal.test",
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	deadline := time.Now().UTC().Add(40 * 24 * time.Hour)
	claimed, err := svc.Claim(t.Context(), saved.ID, claimer.ID, claimerClub.ID, carnival.ClaimDetails{
		OrganiserName:        "Casey Organiser",
		OrganiserEmail:       "casey@claiming.test",
		MaxTeams:             intPtr(12),
		RegistrationDeadline: &deadline,
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed.Source.Kind != carnival.SourceClaimed {
		t.Fatalf("expected claimed source, got %s", claimed.Source.Kind)
	}
	if claimed.HostClubID == nil || *claimed.HostClubID != claimerClub.ID {
		t.Fatalf("expected host club %d, got %v", claimerClub.ID, claimed.HostClubID)
	}
	if claimed.CreatedByUserID != claimer.ID {
		t.Fatalf("expected creator %d, got %d", claimer.ID, claimed.CreatedByUserID)
	}
	if claimed.MaxTeams == nil || *claimed.MaxTeams != 12 {
		t.Fatalf("expected claim details applied, got %+v", claimed)
	}

	other, otherClub := st.seedDelegate(t, "Late Club", "late@club.test")
	if _, err := svc.Claim(t.Context(), saved.ID, other.ID, otherClub.ID, carnival.ClaimDetails{}); !errors.Is(err, carnival.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestCarnivalService_ClaimOwnClubOnly(t *testing.T) {
	st := newStores()
	claimer, _ := st.seedDelegate(t, "Claiming Club", "claimer@club.test")
	_, otherClub := st.seedDelegate(t, "Other Club", "other@club.test")
	svc := st.carnivalService(st.silentDispatcher())

	saved, err := svc.IngestScraped(t.Context(), carnival.ScrapedRecord{
		ExternalID: "feed-guard",
		Title:      "Guarded Carnival",
		StartDate:  time.Now().UTC().Add(30 * 24 * time.Hour),
		StateCode:  "SA",
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if _, err := svc.Claim(t.Context(), saved.ID, claimer.ID, otherClub.ID, carnival.ClaimDetails{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCarnivalService_ClaimNotifiesScrapedOrganiser(t *testing.T) {
	st := newStores()
	claimer, claimerClub := st.seedDelegate(t, "Claiming Club", "claimer@club.test")

	sender := &recordingSender{}
	svc := st.carnivalService(st.dispatcher(sender))

	saved, err := svc.IngestScraped(t.Context(), carnival.ScrapedRecord{
		ExternalID:     "feed-notify",
		Title:          "Notified Carnival",
		StartDate:      time.Now().UTC().Add(30 * 24 * time.Hour),
		StateCode:      "NT",
		OrganiserEmail: "organiser@listing.test",
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if _, err := svc.Claim(t.Context(), saved.ID, claimer.ID, claimerClub.ID, carnival.ClaimDetails{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !sender.sentTo("organiser@listing.test") {
		t.Fatalf("expected organiser notified, sent to %v", sender.allTo())
	}
}

func TestCarnivalService_ClaimSuppressesSelfNotification(t *testing.T) {
	st := newStores()
	claimer, claimerClub := st.seedDelegate(t, "Claiming Club", "claimer@club.test")

	sender := &recordingSender{}
	svc := st.carnivalService(st.dispatcher(sender))

	saved, err := svc.IngestScraped(t.Context(), carnival.ScrapedRecord{
		ExternalID:     "feed-self",
		Title:          "Self Claimed Carnival",
		StartDate:      time.Now().UTC().Add(30 * 24 * time.Hour),
		StateCode:      "TAS",
		OrganiserEmail: "Claimer@Club.Test",
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if _, err := svc.Claim(t.Context(), saved.ID, claimer.ID, claimerClub.ID, carnival.ClaimDetails{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if sender.sentTo("claimer@club.test") {
		t.Fatalf("claimer should not be notified about their own claim")
	}
}

func TestCarnivalService_RegistrationOpen(t *testing.T) {
	st := newStores()
	host, _ := st.seedDelegate(t, "Host Club", "host@club.test")
	delegate, _ := st.seedDelegate(t, "Visiting Club", "visiting@club.test")

	svc := st.carnivalService(st.silentDispatcher())
	regSvc := st.registrationService(st.silentDispatcher())

	open := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})
	if got, err := svc.RegistrationOpen(t.Context(), open.ID); err != nil || !got {
		t.Fatalf("expected open, got %v err %v", got, err)
	}

	past := st.seedCarnival(t, carnival.Carnival{
		CreatedByUserID:      host.ID,
		IsActive:             true,
		RegistrationDeadline: timePtr(time.Now().UTC().Add(-time.Hour)),
	})
	if got, err := svc.RegistrationOpen(t.Context(), past.ID); err != nil || got {
		t.Fatalf("expected closed after deadline, got %v err %v", got, err)
	}

	unclaimed, err := st.carnivals.UpsertScraped(t.Context(), carnival.ScrapedRecord{
		ExternalID: "feed-open",
		Title:      "Unclaimed",
		StartDate:  time.Now().UTC().Add(30 * 24 * time.Hour),
		StateCode:  "ACT",
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed scraped: %v", err)
	}
	if got, err := svc.RegistrationOpen(t.Context(), unclaimed.ID); err != nil || got {
		t.Fatalf("expected closed for unclaimed import, got %v err %v", got, err)
	}

	full := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true, MaxTeams: intPtr(1)})
	r, err := regSvc.Register(t.Context(), full.ID, delegate.ID, RegisterClubInput{})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if got, err := svc.RegistrationOpen(t.Context(), full.ID); err != nil || !got {
		t.Fatalf("pending teams must not consume capacity, got %v err %v", got, err)
	}
	if _, err := regSvc.Approve(t.Context(), r.ID, host.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got, err := svc.RegistrationOpen(t.Context(), full.ID); err != nil || got {
		t.Fatalf("expected closed at capacity, got %v err %v", got, err)
	}
}

func TestCarnivalService_BroadcastAttendeesHostOnly(t *testing.T) {
	st := newStores()
	sender := &recordingSender{}
	svc := st.carnivalService(st.dispatcher(sender))
	regSvc := st.registrationService(st.silentDispatcher())

	host, _ := st.seedDelegate(t, "Broadcast Hosts", "host@broadcast.test")
	delegate, _ := st.seedDelegate(t, "Broadcast Visitors", "visitor@broadcast.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	r, err := regSvc.Register(t.Context(), c.ID, delegate.ID, RegisterClubInput{})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.BroadcastAttendees(t.Context(), c.ID, delegate.ID, "Draw published", "See attached."); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-creator, got %v", err)
	}
	if _, err := svc.BroadcastAttendees(t.Context(), c.ID, host.ID, "   ", "body"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank subject, got %v", err)
	}

	result, err := svc.BroadcastAttendees(t.Context(), c.ID, host.ID, "Draw published", "See attached.")
	if err != nil {
		t.Fatalf("broadcast before approvals failed: %v", err)
	}
	if result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("pending clubs are not attendees, got %+v", result)
	}

	if _, err := regSvc.Approve(t.Context(), r.ID, host.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	result, err = svc.BroadcastAttendees(t.Context(), c.ID, host.ID, "Draw published", "See attached.")
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if result.Sent != 1 || result.Failed != 0 {
		t.Fatalf("expected one attendee email, got %+v", result)
	}
	if !sender.sentTo("visitor@broadcast.test") {
		t.Fatalf("expected broadcast to reach the visiting delegate, got %v", sender.allTo())
	}
}

func TestCarnivalService_DeactivateClosesRegistration(t *testing.T) {
	st := newStores()
	svc := st.carnivalService(st.silentDispatcher())

	host, _ := st.seedDelegate(t, "Closing Hosts", "host@closing.test")
	outsider, _ := st.seedDelegate(t, "Closing Outsiders", "outsider@closing.test")
	c := st.seedCarnival(t, carnival.Carnival{CreatedByUserID: host.ID, IsActive: true})

	if err := svc.Deactivate(t.Context(), c.ID, outsider.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-creator, got %v", err)
	}

	if err := svc.Deactivate(t.Context(), c.ID, host.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	got, err := svc.Get(t.Context(), c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.IsActive {
		t.Fatalf("expected inactive carnival")
	}
	if open, err := svc.RegistrationOpen(t.Context(), c.ID); err != nil || open {
		t.Fatalf("expected closed registration for inactive carnival, got %v err %v", open, err)
	}

	// Repeat removal is a no-op.
	if err := svc.Deactivate(t.Context(), c.ID, host.ID); err != nil {
		t.Fatalf("repeat deactivate failed: %v", err)
	}
}

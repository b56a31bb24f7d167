package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/roster"
)

func TestRosterService_AddPlayer(t *testing.T) {
	st := newStores()
	delegate, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	svc := st.rosterService()

	colour := roster.ShortsRed
	created, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, PlayerInput{
		FirstName:    "  mARY  ",
		LastName:     "o'brien",
		Email:        " Mary.OBrien@Example.Test ",
		DateOfBirth:  time.Now().UTC().AddDate(-40, 0, -1),
		ShortsColour: &colour,
	})
	if err != nil {
		t.Fatalf("add player failed: %v", err)
	}
	if created.FirstName != "Mary" {
		t.Fatalf("expected title-cased first name, got %q", created.FirstName)
	}
	if created.Email != "mary.obrien@example.test" {
		t.Fatalf("expected lowercased email, got %q", created.Email)
	}
	if !created.MastersEligible(time.Now().UTC()) {
		t.Fatalf("a 40 year old should be masters eligible")
	}
}

func TestRosterService_AddPlayerAgeBounds(t *testing.T) {
	st := newStores()
	delegate, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	svc := st.rosterService()

	now := time.Now().UTC()
	cases := []struct {
		name string
		dob  time.Time
		ok   bool
	}{
		{"just sixteen", now.AddDate(-16, 0, -1), true},
		{"fifteen", now.AddDate(-16, 0, 1), false},
		{"exactly hundred", now.AddDate(-100, 0, -1), true},
		{"over hundred", now.AddDate(-101, 0, -1), false},
		{"born tomorrow", now.AddDate(0, 0, 1), false},
	}
	for i, tc := range cases {
		_, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, PlayerInput{
			FirstName:   "Age",
			LastName:    "Case",
			Email:       "age-case-" + string(rune('a'+i)) + "@club.test",
			DateOfBirth: tc.dob,
		})
		if tc.ok && err != nil {
			t.Fatalf("%s: expected success, got %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, roster.ErrAgeOutOfRange) {
			t.Fatalf("%s: expected ErrAgeOutOfRange, got %v", tc.name, err)
		}
	}
}

func TestRosterService_AddPlayerDuplicateEmail(t *testing.T) {
	st := newStores()
	delegate, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	svc := st.rosterService()

	input := PlayerInput{
		FirstName:   "First",
		LastName:    "Entry",
		Email:       "taken@club.test",
		DateOfBirth: time.Now().UTC().AddDate(-35, 0, -1),
	}
	if _, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, input); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, input); !errors.Is(err, roster.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRosterService_AddPlayerReactivatesRemoved(t *testing.T) {
	st := newStores()
	delegate, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	svc := st.rosterService()

	created, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, PlayerInput{
		FirstName:   "Gone",
		LastName:    "Comeback",
		Email:       "returning@club.test",
		DateOfBirth: time.Now().UTC().AddDate(-45, 0, -1),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.RemovePlayer(t.Context(), delegate.ID, created.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	revived, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, PlayerInput{
		FirstName:   "Back",
		LastName:    "Again",
		Email:       "returning@club.test",
		DateOfBirth: time.Now().UTC().AddDate(-45, 0, -1),
	})
	if err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
	if revived.ID != created.ID {
		t.Fatalf("expected the old row %d revived, got %d", created.ID, revived.ID)
	}
	if !revived.IsActive || revived.FirstName != "Back" {
		t.Fatalf("expected active row with fresh details, got %+v", revived)
	}
}

func TestRosterService_UpdatePlayerEmailCollision(t *testing.T) {
	st := newStores()
	delegate, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	svc := st.rosterService()

	dob := time.Now().UTC().AddDate(-38, 0, -1)
	first, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, PlayerInput{
		FirstName: "One", LastName: "Player", Email: "one@club.test", DateOfBirth: dob,
	})
	if err != nil {
		t.Fatalf("add first failed: %v", err)
	}
	second, err := svc.AddPlayer(t.Context(), delegate.ID, c.ID, PlayerInput{
		FirstName: "Two", LastName: "Player", Email: "two@club.test", DateOfBirth: dob,
	})
	if err != nil {
		t.Fatalf("add second failed: %v", err)
	}

	_, err = svc.UpdatePlayer(t.Context(), delegate.ID, second.ID, PlayerInput{
		FirstName: "Two", LastName: "Player", Email: first.Email, DateOfBirth: dob,
	})
	if !errors.Is(err, roster.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRosterService_ForeignClubRefused(t *testing.T) {
	st := newStores()
	_, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	outsider, _ := st.seedDelegate(t, "Other Club", "outsider@club.test")
	svc := st.rosterService()

	_, err := svc.AddPlayer(t.Context(), outsider.ID, c.ID, PlayerInput{
		FirstName: "No", LastName: "Entry", Email: "no@club.test",
		DateOfBirth: time.Now().UTC().AddDate(-30, 0, -1),
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	p := st.seedPlayer(t, c.ID, "Owned", "owned@club.test", 40)
	if _, err := svc.GetPlayer(t.Context(), outsider.ID, p.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on foreign read, got %v", err)
	}
}

func TestRosterService_ListPlayers(t *testing.T) {
	st := newStores()
	delegate, c := st.seedDelegate(t, "Roster Club", "delegate@club.test")
	svc := st.rosterService()

	st.seedPlayer(t, c.ID, "Alice", "alice@club.test", 40)
	st.seedPlayer(t, c.ID, "Bob", "bob@club.test", 41)
	st.seedPlayer(t, c.ID, "Carol", "carol@club.test", 42)

	result, err := svc.ListPlayers(t.Context(), delegate.ID, c.ID, roster.ListFilter{
		SortBy: roster.SortFirstName, Page: 1, PageSize: 2,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 3 || len(result.Items) != 2 {
		t.Fatalf("expected total 3 page of 2, got total %d len %d", result.Total, len(result.Items))
	}
	if result.Items[0].FirstName != "Alice" || result.Items[1].FirstName != "Bob" {
		t.Fatalf("unexpected page content: %+v", result.Items)
	}

	search, err := svc.ListPlayers(t.Context(), delegate.ID, c.ID, roster.ListFilter{Search: "carol"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if search.Total != 1 || search.Items[0].FirstName != "Carol" {
		t.Fatalf("expected carol only, got %+v", search.Items)
	}
}

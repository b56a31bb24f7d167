package carnival

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/club"
)

var (
	ErrAlreadyClaimed     = errors.New("carnival has already been claimed")
	ErrRegistrationClosed = errors.New("registrations are closed for this carnival")
)

// SourceKind tags carnival provenance.
type SourceKind string

const (
	// SourceManual marks a carnival created by a platform user.
	SourceManual SourceKind = "manual"
	// SourceScraped marks a record ingested from the third-party listing
	// feed; it has no host club and only the sync process may edit it.
	SourceScraped SourceKind = "scraped"
	// SourceClaimed marks a scraped record handed over to a real host club.
	SourceClaimed SourceKind = "claimed"
)

// Source is a tagged variant over carnival provenance. ExternalID is set for
// scraped and claimed kinds; LastSyncedAt for scraped; ClaimedAt for claimed.
type Source struct {
	Kind         SourceKind
	ExternalID   string
	LastSyncedAt *time.Time
	ClaimedAt    *time.Time
}

func ManualSource() Source {
	return Source{Kind: SourceManual}
}

func ScrapedSource(externalID string, syncedAt time.Time) Source {
	return Source{Kind: SourceScraped, ExternalID: externalID, LastSyncedAt: &syncedAt}
}

func ClaimedSource(externalID string, claimedAt time.Time) Source {
	return Source{Kind: SourceClaimed, ExternalID: externalID, ClaimedAt: &claimedAt}
}

// Claimable reports whether a claim handover may take the record.
func (s Source) Claimable() bool {
	return s.Kind == SourceScraped && s.ClaimedAt == nil
}

// Location is the structured venue address of a carnival.
type Location struct {
	AddressLine1 string
	AddressLine2 string
	Suburb       string
	Postcode     string
	Latitude     *float64
	Longitude    *float64
}

// Carnival is a rugby-league tournament event clubs register teams for.
type Carnival struct {
	ID                   int64
	Title                string
	StartDate            time.Time
	EndDate              *time.Time
	StateCode            string
	Location             Location
	OrganiserName        string
	OrganiserEmail       string
	OrganiserPhone       string
	ScheduleDetails      string
	RegistrationLink     string
	SocialLinks          string
	FeeDescription       string
	MaxTeams             *int
	RegistrationDeadline *time.Time
	IsActive             bool
	HostClubID           *int64
	CreatedByUserID      int64
	Source               Source
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (c Carnival) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("carnival title is required")
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("carnival start date is required")
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("carnival end date cannot precede start date")
	}
	if !club.IsValidStateCode(c.StateCode) {
		return fmt.Errorf("invalid state code %q", c.StateCode)
	}
	if c.MaxTeams != nil && *c.MaxTeams < 1 {
		return fmt.Errorf("max teams must be at least 1")
	}
	return nil
}

// AcceptingAt reports whether the deadline allows registrations at now.
// Capacity against approved teams is checked separately with a fresh count.
func (c Carnival) AcceptingAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.RegistrationDeadline != nil && now.After(*c.RegistrationDeadline) {
		return false
	}
	return true
}

// ScrapedRecord is one listing from the third-party feed, keyed by its
// external identifier.
type ScrapedRecord struct {
	ExternalID       string
	Title            string
	StartDate        time.Time
	EndDate          *time.Time
	StateCode        string
	Location         Location
	OrganiserName    string
	OrganiserEmail   string
	OrganiserPhone   string
	ScheduleDetails  string
	RegistrationLink string
	SocialLinks      string
}

func (r ScrapedRecord) Validate() error {
	if strings.TrimSpace(r.ExternalID) == "" {
		return fmt.Errorf("external id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("scraped carnival title is required")
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("scraped carnival start date is required")
	}
	if !club.IsValidStateCode(r.StateCode) {
		return fmt.Errorf("invalid state code %q", r.StateCode)
	}
	return nil
}

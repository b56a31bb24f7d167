package carnival

import (
	"context"
	"time"
)

// ClaimDetails carries the host-supplied fields applied during a claim
// handover. They become authoritative over the scraped values.
type ClaimDetails struct {
	OrganiserName        string
	OrganiserEmail       string
	OrganiserPhone       string
	ScheduleDetails      string
	FeeDescription       string
	RegistrationLink     string
	MaxTeams             *int
	RegistrationDeadline *time.Time
}

// ListFilter narrows carnival listings.
type ListFilter struct {
	StateCode    string
	UpcomingFrom *time.Time
}

// Repository describes carnival persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, c Carnival) (Carnival, error)
	Update(ctx context.Context, c Carnival) (Carnival, error)
	GetByID(ctx context.Context, carnivalID int64) (Carnival, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (Carnival, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Carnival, error)
	// UpsertScraped creates or refreshes a record from the listing feed.
	// Claimed records keep their host-authoritative fields; only the scraped
	// extras (social links, registration link) are refreshed.
	UpsertScraped(ctx context.Context, record ScrapedRecord, now time.Time) (Carnival, error)
	// Claim locks the carnival row, verifies it is scraped and unclaimed,
	// then assigns the host club and applies details. Returns
	// ErrAlreadyClaimed when another claim won the race.
	Claim(ctx context.Context, carnivalID, clubID, userID int64, details ClaimDetails, now time.Time) (Carnival, error)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
)

type CarnivalRepository struct {
	mu     sync.RWMutex
	items  map[int64]carnival.Carnival
	nextID int64
}

func NewCarnivalRepository() *CarnivalRepository {
	return &CarnivalRepository{items: make(map[int64]carnival.Carnival), nextID: 1}
}

func (r *CarnivalRepository) Create(_ context.Context, c carnival.Carnival) (carnival.Carnival, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = now
	c.UpdatedAt = now
	r.items[c.ID] = c

	return c, nil
}

func (r *CarnivalRepository) Update(_ context.Context, c carnival.Carnival) (carnival.Carnival, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[c.ID]
	if !ok {
		return carnival.Carnival{}, fmt.Errorf("carnival %d not found", c.ID)
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.items[c.ID] = c

	return c, nil
}

func (r *CarnivalRepository) GetByID(_ context.Context, carnivalID int64) (carnival.Carnival, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[carnivalID]
	return c, ok, nil
}

func (r *CarnivalRepository) GetByExternalID(_ context.Context, externalID string) (carnival.Carnival, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if externalID == "" {
		return carnival.Carnival{}, false, nil
	}
	for _, c := range r.items {
		if c.Source.ExternalID == externalID {
			return c, true, nil
		}
	}

	return carnival.Carnival{}, false, nil
}

func (r *CarnivalRepository) List(_ context.Context, filter carnival.ListFilter) ([]carnival.Carnival, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]carnival.Carnival, 0, len(r.items))
	for _, c := range r.items {
		if !c.IsActive {
			continue
		}
		if filter.StateCode != "" && !strings.EqualFold(c.StateCode, filter.StateCode) {
			continue
		}
		if filter.UpcomingFrom != nil {
			end := c.StartDate
			if c.EndDate != nil {
				end = *c.EndDate
			}
			if end.Before(*filter.UpcomingFrom) {
				continue
			}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})

	return out, nil
}

func (r *CarnivalRepository) UpsertScraped(_ context.Context, record carnival.ScrapedRecord, now time.Time) (carnival.Carnival, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.items {
		if c.Source.ExternalID != record.ExternalID {
			continue
		}
		if c.Source.Kind == carnival.SourceClaimed {
			// Host fields are authoritative after a claim; only the scraped
			// extras refresh.
			c.RegistrationLink = record.RegistrationLink
			c.SocialLinks = record.SocialLinks
			c.UpdatedAt = now
			r.items[id] = c
			return c, nil
		}

		c.Title = record.Title
		c.StartDate = record.StartDate
		c.EndDate = record.EndDate
		c.StateCode = record.StateCode
		c.Location = record.Location
		c.OrganiserName = record.OrganiserName
		c.OrganiserEmail = record.OrganiserEmail
		c.OrganiserPhone = record.OrganiserPhone
		c.ScheduleDetails = record.ScheduleDetails
		c.RegistrationLink = record.RegistrationLink
		c.SocialLinks = record.SocialLinks
		c.Source = carnival.ScrapedSource(record.ExternalID, now)
		c.UpdatedAt = now
		r.items[id] = c
		return c, nil
	}

	c := carnival.Carnival{
		ID:               r.nextID,
		Title:            record.Title,
		StartDate:        record.StartDate,
		EndDate:          record.EndDate,
		StateCode:        record.StateCode,
		Location:         record.Location,
		OrganiserName:    record.OrganiserName,
		OrganiserEmail:   record.OrganiserEmail,
		OrganiserPhone:   record.OrganiserPhone,
		ScheduleDetails:  record.ScheduleDetails,
		RegistrationLink: record.RegistrationLink,
		SocialLinks:      record.SocialLinks,
		IsActive:         true,
		Source:           carnival.ScrapedSource(record.ExternalID, now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.nextID++
	r.items[c.ID] = c

	return c, nil
}

func (r *CarnivalRepository) Claim(_ context.Context, carnivalID, clubID, userID int64, details carnival.ClaimDetails, now time.Time) (carnival.Carnival, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[carnivalID]
	if !ok {
		return carnival.Carnival{}, fmt.Errorf("carnival %d not found", carnivalID)
	}
	if !c.Source.Claimable() {
		return carnival.Carnival{}, carnival.ErrAlreadyClaimed
	}

	c.Source = carnival.ClaimedSource(c.Source.ExternalID, now)
	c.HostClubID = &clubID
	c.CreatedByUserID = userID
	c.OrganiserName = details.OrganiserName
	c.OrganiserEmail = details.OrganiserEmail
	c.OrganiserPhone = details.OrganiserPhone
	c.ScheduleDetails = details.ScheduleDetails
	c.FeeDescription = details.FeeDescription
	if details.RegistrationLink != "" {
		c.RegistrationLink = details.RegistrationLink
	}
	c.MaxTeams = details.MaxTeams
	c.RegistrationDeadline = details.RegistrationDeadline
	c.UpdatedAt = now
	r.items[carnivalID] = c

	return c, nil
}

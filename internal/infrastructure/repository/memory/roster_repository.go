package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/roster"
)

type RosterRepository struct {
	mu     sync.RWMutex
	items  map[int64]roster.Player
	nextID int64
}

func NewRosterRepository() *RosterRepository {
	return &RosterRepository{items: make(map[int64]roster.Player), nextID: 1}
}

func (r *RosterRepository) Create(_ context.Context, p roster.Player) (roster.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ClubID == p.ClubID && existing.Email == p.Email {
			return roster.Player{}, roster.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = now
	p.UpdatedAt = now
	r.items[p.ID] = p

	return p, nil
}

func (r *RosterRepository) Update(_ context.Context, p roster.Player) (roster.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[p.ID]
	if !ok {
		return roster.Player{}, fmt.Errorf("player %d not found", p.ID)
	}

	if existing.CreatedAt.IsZero() {
		existing.CreatedAt = time.Now().UTC()
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.items[p.ID] = p

	return p, nil
}

func (r *RosterRepository) GetByID(_ context.Context, playerID int64) (roster.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[playerID]
	return p, ok, nil
}

func (r *RosterRepository) FindByClubEmail(_ context.Context, clubID int64, email string) (roster.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range r.items {
		if p.ClubID == clubID && p.Email == email {
			return p, true, nil
		}
	}

	return roster.Player{}, false, nil
}

func (r *RosterRepository) ListByClub(_ context.Context, clubID int64, filter roster.ListFilter) (roster.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter = filter.Normalize()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]roster.Player, 0)
	for _, p := range r.items {
		if p.ClubID != clubID || !p.IsActive {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(p.FirstName + " " + p.LastName + " " + p.Email)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		var a, b string
		if filter.SortBy == roster.SortFirstName {
			a, b = matched[i].FirstName, matched[j].FirstName
		} else {
			a, b = matched[i].LastName, matched[j].LastName
		}
		if a == b {
			return matched[i].ID < matched[j].ID
		}
		return a < b
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}

	return roster.ListResult{
		Items:    matched[start:end],
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (r *RosterRepository) SetActive(_ context.Context, playerID int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[playerID]
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	r.items[playerID] = p

	return nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/club"
)

type ClubRepository struct {
	mu     sync.RWMutex
	items  map[int64]club.Club
	nextID int64
}

func NewClubRepository() *ClubRepository {
	return &ClubRepository{items: make(map[int64]club.Club), nextID: 1}
}

func (r *ClubRepository) Create(_ context.Context, c club.Club) (club.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = now
	c.UpdatedAt = now
	r.items[c.ID] = cloneClub(c)

	return c, nil
}

func (r *ClubRepository) Update(_ context.Context, c club.Club) (club.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[c.ID]
	if !ok {
		return club.Club{}, fmt.Errorf("club %d not found", c.ID)
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.items[c.ID] = cloneClub(c)

	return c, nil
}

func (r *ClubRepository) GetByID(_ context.Context, clubID int64) (club.Club, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[clubID]
	if !ok {
		return club.Club{}, false, nil
	}

	return cloneClub(c), true, nil
}

func (r *ClubRepository) FindProxyByContactEmail(_ context.Context, email string) (club.Club, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, c := range r.items {
		if c.IsProxy && !c.IsActive && strings.ToLower(c.ContactEmail) == email {
			return cloneClub(c), true, nil
		}
	}

	return club.Club{}, false, nil
}

func (r *ClubRepository) ListPublic(_ context.Context) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Club, 0, len(r.items))
	for _, c := range r.items {
		if c.IsActive && !c.IsProxy && c.IsPubliclyListed {
			out = append(out, cloneClub(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func cloneClub(c club.Club) club.Club {
	copied := c
	copied.AlternateNames = append([]string(nil), c.AlternateNames...)
	return copied
}

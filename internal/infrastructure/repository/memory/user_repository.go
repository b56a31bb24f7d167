package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type UserRepository struct {
	mu     sync.RWMutex
	items  map[int64]user.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[int64]user.User), nextID: 1}
}

func (r *UserRepository) Create(_ context.Context, u user.User, password string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	for _, existing := range r.items {
		if existing.Email == email {
			return user.User{}, user.ErrDuplicateEmail
		}
	}

	if password != "" {
		hash, err := user.HashPassword(password)
		if err != nil {
			return user.User{}, err
		}
		u.PasswordHash = hash
	}

	now := time.Now().UTC()
	u.ID = r.nextID
	r.nextID++
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now
	r.items[u.ID] = u

	return u, nil
}

func (r *UserRepository) Update(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %d not found", u.ID)
	}

	u.Email = user.NormalizeEmail(u.Email)
	u.PasswordHash = existing.PasswordHash
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.items[u.ID] = u

	return u, nil
}

func (r *UserRepository) UpdateCredentials(_ context.Context, userID int64, u user.User, password string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[userID]
	if !ok {
		return user.User{}, user.ErrInvalidInviteToken
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}

	u.ID = userID
	u.Email = user.NormalizeEmail(u.Email)
	u.PasswordHash = hash
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.items[userID] = u

	return u, nil
}

func (r *UserRepository) GetByID(_ context.Context, userID int64) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[userID]
	return u, ok, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = user.NormalizeEmail(email)
	for _, u := range r.items {
		if u.Email == email {
			return u, true, nil
		}
	}

	return user.User{}, false, nil
}

func (r *UserRepository) GetByInviteToken(_ context.Context, token string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return user.User{}, false, nil
	}
	for _, u := range r.items {
		if u.InviteToken != nil && *u.InviteToken == token {
			return u, true, nil
		}
	}

	return user.User{}, false, nil
}

func (r *UserRepository) ListByClub(_ context.Context, clubID int64) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0)
	for _, u := range r.items {
		if u.ClubID != nil && *u.ClubID == clubID {
			out = append(out, u)
		}
	}

	return out, nil
}

func (r *UserRepository) PrimaryDelegateByClub(_ context.Context, clubID int64) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.ClubID != nil && *u.ClubID == clubID && u.IsPrimaryDelegate && u.IsActive {
			return u, true, nil
		}
	}

	return user.User{}, false, nil
}

func (r *UserRepository) TransferPrimaryDelegate(_ context.Context, fromID, toID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, ok := r.items[fromID]
	if !ok {
		return fmt.Errorf("user %d not found", fromID)
	}
	to, ok := r.items[toID]
	if !ok {
		return fmt.Errorf("user %d not found", toID)
	}
	if to.IsPrimaryDelegate {
		return user.ErrTargetAlreadyPrimary
	}

	now := time.Now().UTC()
	from.IsPrimaryDelegate = false
	from.UpdatedAt = now
	to.IsPrimaryDelegate = true
	to.UpdatedAt = now
	r.items[fromID] = from
	r.items[toID] = to

	return nil
}

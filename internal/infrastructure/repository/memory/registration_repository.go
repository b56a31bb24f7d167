package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
)

// RegistrationRepository enforces the same guards the SQL implementation
// runs under its carnival row lock; here a single mutex over the store gives
// the equivalent serialisation.
type RegistrationRepository struct {
	mu        sync.RWMutex
	items     map[int64]registration.Registration
	nextID    int64
	carnivals *CarnivalRepository

	assignments *AssignmentRepository
}

func NewRegistrationRepository(carnivals *CarnivalRepository) *RegistrationRepository {
	return &RegistrationRepository{
		items:     make(map[int64]registration.Registration),
		nextID:    1,
		carnivals: carnivals,
	}
}

// BindAssignments wires the assignment store so withdrawals cascade.
func (r *RegistrationRepository) BindAssignments(assignments *AssignmentRepository) {
	r.assignments = assignments
}

func (r *RegistrationRepository) CreateSelf(ctx context.Context, reg registration.Registration, now time.Time) (registration.Registration, error) {
	c, ok, err := r.carnivals.GetByID(ctx, reg.CarnivalID)
	if err != nil {
		return registration.Registration{}, err
	}
	if !ok {
		return registration.Registration{}, fmt.Errorf("carnival %d not found", reg.CarnivalID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !c.AcceptingAt(now) {
		return registration.Registration{}, carnival.ErrRegistrationClosed
	}
	if r.hasActiveLocked(reg.CarnivalID, reg.ClubID) {
		return registration.Registration{}, registration.ErrDuplicateActive
	}
	if c.MaxTeams != nil && r.countApprovedLocked(reg.CarnivalID) >= *c.MaxTeams {
		return registration.Registration{}, registration.ErrCapacityExceeded
	}

	reg.ApprovalStatus = registration.StatusPending
	return r.insertLocked(reg, now), nil
}

func (r *RegistrationRepository) CreateByHost(ctx context.Context, reg registration.Registration, approverID int64, now time.Time) (registration.Registration, error) {
	c, ok, err := r.carnivals.GetByID(ctx, reg.CarnivalID)
	if err != nil {
		return registration.Registration{}, err
	}
	if !ok {
		return registration.Registration{}, fmt.Errorf("carnival %d not found", reg.CarnivalID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasActiveLocked(reg.CarnivalID, reg.ClubID) {
		return registration.Registration{}, registration.ErrDuplicateActive
	}
	if c.MaxTeams != nil && r.countApprovedLocked(reg.CarnivalID) >= *c.MaxTeams {
		return registration.Registration{}, registration.ErrCapacityExceeded
	}

	reg.ApprovalStatus = registration.StatusApproved
	reg.ApprovedAt = &now
	reg.ApprovedByUserID = &approverID
	return r.insertLocked(reg, now), nil
}

func (r *RegistrationRepository) Approve(ctx context.Context, registrationID, approverID int64, now time.Time) (registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.items[registrationID]
	if !ok {
		return registration.Registration{}, fmt.Errorf("registration %d not found", registrationID)
	}
	if !reg.IsActive || reg.ApprovalStatus != registration.StatusPending {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	c, ok, err := r.carnivals.GetByID(ctx, reg.CarnivalID)
	if err != nil {
		return registration.Registration{}, err
	}
	if ok && c.MaxTeams != nil && r.countApprovedLocked(reg.CarnivalID) >= *c.MaxTeams {
		return registration.Registration{}, registration.ErrCapacityExceeded
	}

	reg.ApprovalStatus = registration.StatusApproved
	reg.ApprovedAt = &now
	reg.ApprovedByUserID = &approverID
	reg.RejectionReason = nil
	reg.UpdatedAt = now
	r.items[registrationID] = reg

	return reg, nil
}

func (r *RegistrationRepository) Reject(_ context.Context, registrationID int64, reason string, now time.Time) (registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.items[registrationID]
	if !ok {
		return registration.Registration{}, fmt.Errorf("registration %d not found", registrationID)
	}
	if !reg.IsActive || reg.ApprovalStatus != registration.StatusPending {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	reg.ApprovalStatus = registration.StatusRejected
	reg.RejectionReason = &reason
	reg.ApprovedAt = nil
	reg.ApprovedByUserID = nil
	reg.UpdatedAt = now
	r.items[registrationID] = reg

	return reg, nil
}

func (r *RegistrationRepository) Resubmit(_ context.Context, registrationID int64, now time.Time) (registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.items[registrationID]
	if !ok {
		return registration.Registration{}, fmt.Errorf("registration %d not found", registrationID)
	}
	if !reg.IsActive || reg.ApprovalStatus != registration.StatusRejected {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	reg.ApprovalStatus = registration.StatusPending
	reg.RejectionReason = nil
	reg.RegisteredAt = now
	reg.UpdatedAt = now
	r.items[registrationID] = reg

	return reg, nil
}

func (r *RegistrationRepository) Withdraw(ctx context.Context, registrationID int64, force bool, now time.Time) error {
	r.mu.Lock()

	reg, ok := r.items[registrationID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("registration %d not found", registrationID)
	}
	if !reg.IsActive {
		r.mu.Unlock()
		return registration.ErrIllegalTransition
	}
	if reg.IsPaid && !force {
		r.mu.Unlock()
		return registration.ErrPaidCannotWithdraw
	}

	reg.IsActive = false
	reg.UpdatedAt = now
	r.items[registrationID] = reg
	r.mu.Unlock()

	if r.assignments != nil {
		r.assignments.deactivateByRegistration(ctx, registrationID, now)
	}
	return nil
}

func (r *RegistrationRepository) Reorder(_ context.Context, carnivalID int64, orderedIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := 0
	for _, id := range orderedIDs {
		reg, ok := r.items[id]
		if !ok || reg.CarnivalID != carnivalID {
			continue
		}
		order++
		reg.DisplayOrder = order
		r.items[id] = reg
	}

	return nil
}

func (r *RegistrationRepository) GetByID(_ context.Context, registrationID int64) (registration.Registration, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.items[registrationID]
	return reg, ok, nil
}

func (r *RegistrationRepository) ListByCarnival(_ context.Context, carnivalID int64) ([]registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registration.Registration, 0)
	for _, reg := range r.items {
		if reg.CarnivalID == carnivalID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder == out[j].DisplayOrder {
			return out[i].ID < out[j].ID
		}
		return out[i].DisplayOrder < out[j].DisplayOrder
	})

	return out, nil
}

func (r *RegistrationRepository) ListByClub(_ context.Context, clubID int64) ([]registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registration.Registration, 0)
	for _, reg := range r.items {
		if reg.ClubID == clubID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *RegistrationRepository) CountApproved(_ context.Context, carnivalID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.countApprovedLocked(carnivalID), nil
}

func (r *RegistrationRepository) insertLocked(reg registration.Registration, now time.Time) registration.Registration {
	reg.ID = r.nextID
	r.nextID++
	reg.DisplayOrder = r.maxDisplayOrderLocked(reg.CarnivalID) + 1
	reg.IsActive = true
	reg.CreatedAt = now
	reg.UpdatedAt = now
	r.items[reg.ID] = reg
	return reg
}

func (r *RegistrationRepository) hasActiveLocked(carnivalID, clubID int64) bool {
	for _, reg := range r.items {
		if reg.CarnivalID == carnivalID && reg.ClubID == clubID && reg.IsActive {
			return true
		}
	}
	return false
}

func (r *RegistrationRepository) countApprovedLocked(carnivalID int64) int {
	count := 0
	for _, reg := range r.items {
		if reg.CarnivalID == carnivalID && reg.IsActive && reg.ApprovalStatus == registration.StatusApproved {
			count++
		}
	}
	return count
}

func (r *RegistrationRepository) maxDisplayOrderLocked(carnivalID int64) int {
	max := 0
	for _, reg := range r.items {
		if reg.CarnivalID == carnivalID && reg.DisplayOrder > max {
			max = reg.DisplayOrder
		}
	}
	return max
}

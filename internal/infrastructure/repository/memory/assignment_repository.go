package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/registration"
)

type AssignmentRepository struct {
	mu            sync.RWMutex
	items         map[int64]registration.Assignment
	nextID        int64
	registrations *RegistrationRepository
	roster        *RosterRepository
}

func NewAssignmentRepository(registrations *RegistrationRepository, roster *RosterRepository) *AssignmentRepository {
	repo := &AssignmentRepository{
		items:         make(map[int64]registration.Assignment),
		nextID:        1,
		registrations: registrations,
		roster:        roster,
	}
	registrations.BindAssignments(repo)
	return repo
}

func (r *AssignmentRepository) Attach(ctx context.Context, registrationID int64, playerIDs []int64, now time.Time) (int, error) {
	reg, ok, err := r.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("registration %d not found", registrationID)
	}
	if !reg.IsActive || reg.ApprovalStatus != registration.StatusApproved {
		return 0, registration.ErrIllegalTransition
	}

	for _, playerID := range playerIDs {
		p, ok, err := r.roster.GetByID(ctx, playerID)
		if err != nil {
			return 0, err
		}
		if !ok || !p.IsActive || p.ClubID != reg.ClubID {
			return 0, registration.ErrPlayerWrongClub
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, playerID := range playerIDs {
		if r.hasActiveLocked(registrationID, playerID) {
			continue
		}
		a := registration.Assignment{
			ID:               r.nextID,
			RegistrationID:   registrationID,
			PlayerID:         playerID,
			AttendanceStatus: registration.AttendanceConfirmed,
			AddedAt:          now,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		r.nextID++
		r.items[a.ID] = a
		added++
	}

	return added, nil
}

func (r *AssignmentRepository) Detach(_ context.Context, assignmentID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[assignmentID]
	if !ok {
		return fmt.Errorf("assignment %d not found", assignmentID)
	}
	a.IsActive = false
	a.UpdatedAt = now
	r.items[assignmentID] = a

	return nil
}

func (r *AssignmentRepository) SetAttendance(_ context.Context, assignmentID int64, status registration.AttendanceStatus, notes string, now time.Time) (registration.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[assignmentID]
	if !ok {
		return registration.Assignment{}, fmt.Errorf("assignment %d not found", assignmentID)
	}
	if !a.IsActive {
		return registration.Assignment{}, registration.ErrIllegalTransition
	}

	a.AttendanceStatus = status
	a.Notes = notes
	a.UpdatedAt = now
	r.items[assignmentID] = a

	return a, nil
}

func (r *AssignmentRepository) GetByID(_ context.Context, assignmentID int64) (registration.Assignment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[assignmentID]
	return a, ok, nil
}

func (r *AssignmentRepository) ListByRegistration(_ context.Context, registrationID int64) ([]registration.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registration.Assignment, 0)
	for _, a := range r.items {
		if a.RegistrationID == registrationID && a.IsActive {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *AssignmentRepository) AttendanceCounts(_ context.Context, registrationID int64) (registration.AttendanceCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts registration.AttendanceCounts
	for _, a := range r.items {
		if a.RegistrationID != registrationID || !a.IsActive {
			continue
		}
		counts.Total++
		switch a.AttendanceStatus {
		case registration.AttendanceConfirmed:
			counts.Confirmed++
		case registration.AttendanceTentative:
			counts.Tentative++
		case registration.AttendanceUnavailable:
			counts.Unavailable++
		}
	}

	return counts, nil
}

func (r *AssignmentRepository) hasActiveLocked(registrationID, playerID int64) bool {
	for _, a := range r.items {
		if a.RegistrationID == registrationID && a.PlayerID == playerID && a.IsActive {
			return true
		}
	}
	return false
}

func (r *AssignmentRepository) deactivateByRegistration(_ context.Context, registrationID int64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.items {
		if a.RegistrationID == registrationID && a.IsActive {
			a.IsActive = false
			a.UpdatedAt = now
			r.items[id] = a
		}
	}
}

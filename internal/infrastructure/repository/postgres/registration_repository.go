package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

// RegistrationRepository runs every state transition inside a transaction
// that first locks the carnival row, so duplicate and capacity guards see a
// serialised view even under concurrent requests.
type RegistrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) CreateSelf(ctx context.Context, reg registration.Registration, now time.Time) (registration.Registration, error) {
	return r.createGuarded(ctx, reg, nil, now, func(c carnival.Carnival, tx *sqlx.Tx) error {
		if !c.AcceptingAt(now) {
			return carnival.ErrRegistrationClosed
		}
		return nil
	})
}

func (r *RegistrationRepository) CreateByHost(ctx context.Context, reg registration.Registration, approverID int64, now time.Time) (registration.Registration, error) {
	return r.createGuarded(ctx, reg, &approverID, now, func(carnival.Carnival, *sqlx.Tx) error {
		return nil
	})
}

func (r *RegistrationRepository) createGuarded(ctx context.Context, reg registration.Registration, approverID *int64, now time.Time, extraGuard func(carnival.Carnival, *sqlx.Tx) error) (registration.Registration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("begin tx create registration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	c, err := lockCarnival(ctx, tx, reg.CarnivalID)
	if err != nil {
		return registration.Registration{}, err
	}
	if err := extraGuard(c, tx); err != nil {
		return registration.Registration{}, err
	}

	hasActive, err := hasActiveRegistration(ctx, tx, reg.CarnivalID, reg.ClubID)
	if err != nil {
		return registration.Registration{}, err
	}
	if hasActive {
		return registration.Registration{}, registration.ErrDuplicateActive
	}

	if c.MaxTeams != nil {
		approved, err := countApprovedTx(ctx, tx, reg.CarnivalID)
		if err != nil {
			return registration.Registration{}, err
		}
		if approved >= *c.MaxTeams {
			return registration.Registration{}, registration.ErrCapacityExceeded
		}
	}

	builder := qb.InsertInto("registrations").
		Set("carnival_id", reg.CarnivalID).
		Set("club_id", reg.ClubID).
		Set("registered_at", reg.RegisteredAt).
		Set("team_name", reg.TeamName).
		Set("player_count", reg.PlayerCount).
		Set("contact_name", reg.ContactName).
		Set("contact_email", reg.ContactEmail).
		Set("contact_phone", reg.ContactPhone).
		Set("special_requirements", reg.SpecialRequirements).
		Set("notes", reg.Notes).
		Set("is_active", true).
		Set("approval_status", string(reg.ApprovalStatus))
	if approverID != nil {
		builder = builder.
			Set("approved_at", now).
			Set("approved_by_user_id", *approverID)
	}

	nextOrder, err := nextDisplayOrder(ctx, tx, reg.CarnivalID)
	if err != nil {
		return registration.Registration{}, err
	}
	query, args, err := builder.Set("display_order", nextOrder).Returning("*").ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build create registration query: %w", err)
	}

	var row registrationTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return registration.Registration{}, fmt.Errorf("create registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return registration.Registration{}, fmt.Errorf("commit create registration tx: %w", err)
	}

	return registrationFromRow(row), nil
}

func (r *RegistrationRepository) Approve(ctx context.Context, registrationID, approverID int64, now time.Time) (registration.Registration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("begin tx approve registration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	reg, err := lockRegistration(ctx, tx, registrationID)
	if err != nil {
		return registration.Registration{}, err
	}
	if !reg.IsActive || reg.ApprovalStatus != registration.StatusPending {
		return registration.Registration{}, registration.ErrIllegalTransition
	}

	c, err := lockCarnival(ctx, tx, reg.CarnivalID)
	if err != nil {
		return registration.Registration{}, err
	}
	if c.MaxTeams != nil {
		approved, err := countApprovedTx(ctx, tx, reg.CarnivalID)
		if err != nil {
			return registration.Registration{}, err
		}
		if approved >= *c.MaxTeams {
			return registration.Registration{}, registration.ErrCapacityExceeded
		}
	}

	query, args, err := qb.Update("registrations").
		Set("approval_status", string(registration.StatusApproved)).
		Set("approved_at", now).
		Set("approved_by_user_id", approverID).
		Set("rejection_reason", nil).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", registrationID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build approve registration query: %w", err)
	}

	var row registrationTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return registration.Registration{}, fmt.Errorf("approve registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return registration.Registration{}, fmt.Errorf("commit approve registration tx: %w", err)
	}

	return registrationFromRow(row), nil
}

func (r *RegistrationRepository) Reject(ctx context.Context, registrationID int64, reason string, now time.Time) (registration.Registration, error) {
	query, args, err := qb.Update("registrations").
		Set("approval_status", string(registration.StatusRejected)).
		Set("rejection_reason", reason).
		Set("approved_at", nil).
		Set("approved_by_user_id", nil).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", registrationID),
			qb.Eq("is_active", true),
			qb.Eq("approval_status", string(registration.StatusPending)),
		).
		Returning("*").
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build reject registration query: %w", err)
	}

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, registration.ErrIllegalTransition
		}
		return registration.Registration{}, fmt.Errorf("reject registration: %w", err)
	}

	return registrationFromRow(row), nil
}

func (r *RegistrationRepository) Resubmit(ctx context.Context, registrationID int64, now time.Time) (registration.Registration, error) {
	query, args, err := qb.Update("registrations").
		Set("approval_status", string(registration.StatusPending)).
		Set("rejection_reason", nil).
		Set("registered_at", now).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", registrationID),
			qb.Eq("is_active", true),
			qb.Eq("approval_status", string(registration.StatusRejected)),
		).
		Returning("*").
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build resubmit registration query: %w", err)
	}

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, registration.ErrIllegalTransition
		}
		return registration.Registration{}, fmt.Errorf("resubmit registration: %w", err)
	}

	return registrationFromRow(row), nil
}

func (r *RegistrationRepository) Withdraw(ctx context.Context, registrationID int64, force bool, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx withdraw registration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	reg, err := lockRegistration(ctx, tx, registrationID)
	if err != nil {
		return err
	}
	if !reg.IsActive {
		return registration.ErrIllegalTransition
	}
	if reg.IsPaid && !force {
		return registration.ErrPaidCannotWithdraw
	}

	withdrawQuery, withdrawArgs, err := qb.Update("registrations").
		Set("is_active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", registrationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build withdraw registration query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, withdrawQuery, withdrawArgs...); err != nil {
		return fmt.Errorf("withdraw registration: %w", err)
	}

	assignQuery, assignArgs, err := qb.Update("registration_players").
		Set("is_active", false).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("registration_id", registrationID),
			qb.Eq("is_active", true),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build withdraw assignments query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, assignQuery, assignArgs...); err != nil {
		return fmt.Errorf("withdraw assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw registration tx: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) Reorder(ctx context.Context, carnivalID int64, orderedIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx reorder registrations: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := lockCarnival(ctx, tx, carnivalID); err != nil {
		return err
	}

	order := 0
	for _, id := range orderedIDs {
		order++
		query, args, err := qb.Update("registrations").
			Set("display_order", order).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("id", id),
				qb.Eq("carnival_id", carnivalID),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build reorder registration query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("reorder registration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder registrations tx: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) GetByID(ctx context.Context, registrationID int64) (registration.Registration, bool, error) {
	query, args, err := qb.Select("*").From("registrations").
		Where(qb.Eq("id", registrationID)).
		ToSQL()
	if err != nil {
		return registration.Registration{}, false, fmt.Errorf("build get registration query: %w", err)
	}

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, false, nil
		}
		return registration.Registration{}, false, fmt.Errorf("get registration: %w", err)
	}

	return registrationFromRow(row), true, nil
}

func (r *RegistrationRepository) ListByCarnival(ctx context.Context, carnivalID int64) ([]registration.Registration, error) {
	return r.list(ctx, qb.Eq("carnival_id", carnivalID), "display_order", "id")
}

func (r *RegistrationRepository) ListByClub(ctx context.Context, clubID int64) ([]registration.Registration, error) {
	return r.list(ctx, qb.Eq("club_id", clubID), "id")
}

func (r *RegistrationRepository) CountApproved(ctx context.Context, carnivalID int64) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("registrations").
		Where(
			qb.Eq("carnival_id", carnivalID),
			qb.Eq("is_active", true),
			qb.Eq("approval_status", string(registration.StatusApproved)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count approved query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count approved registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) list(ctx context.Context, condition qb.Condition, orderBy ...string) ([]registration.Registration, error) {
	query, args, err := qb.Select("*").From("registrations").
		Where(condition).
		OrderBy(orderBy...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list registrations query: %w", err)
	}

	var rows []registrationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	out := make([]registration.Registration, 0, len(rows))
	for _, row := range rows {
		out = append(out, registrationFromRow(row))
	}
	return out, nil
}

func lockCarnival(ctx context.Context, tx *sqlx.Tx, carnivalID int64) (carnival.Carnival, error) {
	query, args, err := qb.Select("*").From("carnivals").
		Where(qb.Eq("id", carnivalID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("build lock carnival query: %w", err)
	}

	var row carnivalTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return carnival.Carnival{}, fmt.Errorf("lock carnival: not found")
		}
		return carnival.Carnival{}, fmt.Errorf("lock carnival: %w", err)
	}

	return carnivalFromRow(row), nil
}

func lockRegistration(ctx context.Context, tx *sqlx.Tx, registrationID int64) (registration.Registration, error) {
	query, args, err := qb.Select("*").From("registrations").
		Where(qb.Eq("id", registrationID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build lock registration query: %w", err)
	}

	var row registrationTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, fmt.Errorf("lock registration: not found")
		}
		return registration.Registration{}, fmt.Errorf("lock registration: %w", err)
	}

	return registrationFromRow(row), nil
}

func hasActiveRegistration(ctx context.Context, tx *sqlx.Tx, carnivalID, clubID int64) (bool, error) {
	query, args, err := qb.Select("1").From("registrations").
		Where(
			qb.Eq("carnival_id", carnivalID),
			qb.Eq("club_id", clubID),
			qb.Eq("is_active", true),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build duplicate registration query: %w", err)
	}

	var one int
	if err := tx.GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check duplicate registration: %w", err)
	}
	return true, nil
}

func countApprovedTx(ctx context.Context, tx *sqlx.Tx, carnivalID int64) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("registrations").
		Where(
			qb.Eq("carnival_id", carnivalID),
			qb.Eq("is_active", true),
			qb.Eq("approval_status", string(registration.StatusApproved)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count approved query: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count approved registrations: %w", err)
	}
	return count, nil
}

func nextDisplayOrder(ctx context.Context, tx *sqlx.Tx, carnivalID int64) (int, error) {
	query, args, err := qb.Select("COALESCE(MAX(display_order), 0) + 1").From("registrations").
		Where(qb.Eq("carnival_id", carnivalID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build next display order query: %w", err)
	}

	var next int
	if err := tx.GetContext(ctx, &next, query, args...); err != nil {
		return 0, fmt.Errorf("next display order: %w", err)
	}
	return next, nil
}

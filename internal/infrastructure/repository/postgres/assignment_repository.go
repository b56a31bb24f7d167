package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Attach(ctx context.Context, registrationID int64, playerIDs []int64, now time.Time) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx attach players: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	reg, err := lockRegistration(ctx, tx, registrationID)
	if err != nil {
		return 0, err
	}
	if !reg.IsActive || reg.ApprovalStatus != registration.StatusApproved {
		return 0, registration.ErrIllegalTransition
	}

	// A request may repeat a player ID; one occurrence is enough.
	seen := make(map[int64]bool, len(playerIDs))
	unique := make([]int64, 0, len(playerIDs))
	ids := make([]any, 0, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
		ids = append(ids, id)
	}
	ownedQuery, ownedArgs, err := qb.Select("COUNT(*)").From("players").
		Where(
			qb.In("id", ids),
			qb.Eq("club_id", reg.ClubID),
			qb.Eq("is_active", true),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build owned players query: %w", err)
	}
	var owned int
	if err := tx.GetContext(ctx, &owned, ownedQuery, ownedArgs...); err != nil {
		return 0, fmt.Errorf("check owned players: %w", err)
	}
	if owned != len(unique) {
		return 0, registration.ErrPlayerWrongClub
	}

	existingQuery, existingArgs, err := qb.Select("player_id").From("registration_players").
		Where(
			qb.Eq("registration_id", registrationID),
			qb.In("player_id", ids),
			qb.Eq("is_active", true),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build existing assignments query: %w", err)
	}
	var existing []int64
	if err := tx.SelectContext(ctx, &existing, existingQuery, existingArgs...); err != nil {
		return 0, fmt.Errorf("check existing assignments: %w", err)
	}
	alreadyAssigned := make(map[int64]bool, len(existing))
	for _, id := range existing {
		alreadyAssigned[id] = true
	}

	added := 0
	for _, playerID := range unique {
		if alreadyAssigned[playerID] {
			continue
		}
		alreadyAssigned[playerID] = true

		query, args, err := qb.InsertInto("registration_players").
			Set("registration_id", registrationID).
			Set("player_id", playerID).
			Set("attendance_status", string(registration.AttendanceConfirmed)).
			Set("added_at", now).
			Set("is_active", true).
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build attach player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("attach player: %w", err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attach players tx: %w", err)
	}
	return added, nil
}

func (r *AssignmentRepository) Detach(ctx context.Context, assignmentID int64, now time.Time) error {
	query, args, err := qb.Update("registration_players").
		Set("is_active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", assignmentID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build detach player query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("detach player: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected detach player: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("detach player: not found")
	}
	return nil
}

func (r *AssignmentRepository) SetAttendance(ctx context.Context, assignmentID int64, status registration.AttendanceStatus, notes string, now time.Time) (registration.Assignment, error) {
	query, args, err := qb.Update("registration_players").
		Set("attendance_status", string(status)).
		Set("notes", notes).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", assignmentID),
			qb.Eq("is_active", true),
		).
		Returning("*").
		ToSQL()
	if err != nil {
		return registration.Assignment{}, fmt.Errorf("build set attendance query: %w", err)
	}

	var row assignmentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Assignment{}, registration.ErrIllegalTransition
		}
		return registration.Assignment{}, fmt.Errorf("set attendance: %w", err)
	}

	return assignmentFromRow(row), nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, assignmentID int64) (registration.Assignment, bool, error) {
	query, args, err := qb.Select("*").From("registration_players").
		Where(qb.Eq("id", assignmentID)).
		ToSQL()
	if err != nil {
		return registration.Assignment{}, false, fmt.Errorf("build get assignment query: %w", err)
	}

	var row assignmentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Assignment{}, false, nil
		}
		return registration.Assignment{}, false, fmt.Errorf("get assignment: %w", err)
	}

	return assignmentFromRow(row), true, nil
}

func (r *AssignmentRepository) ListByRegistration(ctx context.Context, registrationID int64) ([]registration.Assignment, error) {
	query, args, err := qb.Select("*").From("registration_players").
		Where(
			qb.Eq("registration_id", registrationID),
			qb.Eq("is_active", true),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list assignments query: %w", err)
	}

	var rows []assignmentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	out := make([]registration.Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, assignmentFromRow(row))
	}
	return out, nil
}

func (r *AssignmentRepository) AttendanceCounts(ctx context.Context, registrationID int64) (registration.AttendanceCounts, error) {
	query, args, err := qb.Select(
		"COUNT(*) FILTER (WHERE attendance_status = 'confirmed') AS confirmed",
		"COUNT(*) FILTER (WHERE attendance_status = 'tentative') AS tentative",
		"COUNT(*) FILTER (WHERE attendance_status = 'unavailable') AS unavailable",
		"COUNT(*) AS total",
	).From("registration_players").
		Where(
			qb.Eq("registration_id", registrationID),
			qb.Eq("is_active", true),
		).
		ToSQL()
	if err != nil {
		return registration.AttendanceCounts{}, fmt.Errorf("build attendance counts query: %w", err)
	}

	var row struct {
		Confirmed   int `db:"confirmed"`
		Tentative   int `db:"tentative"`
		Unavailable int `db:"unavailable"`
		Total       int `db:"total"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return registration.AttendanceCounts{}, fmt.Errorf("attendance counts: %w", err)
	}

	return registration.AttendanceCounts{
		Confirmed:   row.Confirmed,
		Tentative:   row.Tentative,
		Unavailable: row.Unavailable,
		Total:       row.Total,
	}, nil
}

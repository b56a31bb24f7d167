package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

type RosterRepository struct {
	db *sqlx.DB
}

func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) Create(ctx context.Context, p roster.Player) (roster.Player, error) {
	query, args, err := qb.InsertInto("players").
		Set("club_id", p.ClubID).
		Set("first_name", p.FirstName).
		Set("last_name", p.LastName).
		Set("email", p.Email).
		Set("date_of_birth", p.DateOfBirth).
		Set("shorts_colour", shortsColourValue(p.ShortsColour)).
		Set("notes", p.Notes).
		Set("is_active", p.IsActive).
		Returning("*").
		ToSQL()
	if err != nil {
		return roster.Player{}, fmt.Errorf("build create player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "players_club_id_email_key") {
			return roster.Player{}, roster.ErrDuplicateEmail
		}
		return roster.Player{}, fmt.Errorf("create player: %w", err)
	}

	return playerFromRow(row), nil
}

func (r *RosterRepository) Update(ctx context.Context, p roster.Player) (roster.Player, error) {
	query, args, err := qb.Update("players").
		Set("first_name", p.FirstName).
		Set("last_name", p.LastName).
		Set("email", p.Email).
		Set("date_of_birth", p.DateOfBirth).
		Set("shorts_colour", shortsColourValue(p.ShortsColour)).
		Set("notes", p.Notes).
		Set("is_active", p.IsActive).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", p.ID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return roster.Player{}, fmt.Errorf("build update player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "players_club_id_email_key") {
			return roster.Player{}, roster.ErrDuplicateEmail
		}
		return roster.Player{}, fmt.Errorf("update player: %w", err)
	}

	return playerFromRow(row), nil
}

func (r *RosterRepository) GetByID(ctx context.Context, playerID int64) (roster.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return roster.Player{}, false, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return roster.Player{}, false, nil
		}
		return roster.Player{}, false, fmt.Errorf("get player: %w", err)
	}

	return playerFromRow(row), true, nil
}

func (r *RosterRepository) FindByClubEmail(ctx context.Context, clubID int64, email string) (roster.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(
			qb.Eq("club_id", clubID),
			qb.ILike("email", strings.TrimSpace(email)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return roster.Player{}, false, fmt.Errorf("build find player by email query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return roster.Player{}, false, nil
		}
		return roster.Player{}, false, fmt.Errorf("find player by email: %w", err)
	}

	return playerFromRow(row), true, nil
}

func (r *RosterRepository) ListByClub(ctx context.Context, clubID int64, filter roster.ListFilter) (roster.ListResult, error) {
	filter = filter.Normalize()

	conditions := []qb.Condition{
		qb.Eq("club_id", clubID),
		qb.Eq("is_active", true),
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := "%" + search + "%"
		conditions = append(conditions, qb.Or(
			qb.ILike("first_name", needle),
			qb.ILike("last_name", needle),
			qb.ILike("email", needle),
		))
	}

	countQuery, countArgs, err := qb.Select("COUNT(*)").From("players").
		Where(conditions...).
		ToSQL()
	if err != nil {
		return roster.ListResult{}, fmt.Errorf("build count players query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return roster.ListResult{}, fmt.Errorf("count players: %w", err)
	}

	orderColumn := "last_name"
	if filter.SortBy == roster.SortFirstName {
		orderColumn = "first_name"
	}
	query, args, err := qb.Select("*").From("players").
		Where(conditions...).
		OrderBy(orderColumn, "id").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		ToSQL()
	if err != nil {
		return roster.ListResult{}, fmt.Errorf("build list players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return roster.ListResult{}, fmt.Errorf("list players: %w", err)
	}

	items := make([]roster.Player, 0, len(rows))
	for _, row := range rows {
		items = append(items, playerFromRow(row))
	}

	return roster.ListResult{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (r *RosterRepository) SetActive(ctx context.Context, playerID int64, active bool) error {
	query, args, err := qb.Update("players").
		Set("is_active", active).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set player active query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set player active: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected set player active: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set player active: not found")
	}
	return nil
}

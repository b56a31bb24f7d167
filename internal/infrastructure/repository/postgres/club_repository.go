package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ausmasters/carnivalhub/internal/domain/club"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) Create(ctx context.Context, c club.Club) (club.Club, error) {
	query, args, err := qb.InsertInto("clubs").
		Set("name", c.Name).
		Set("state_code", c.StateCode).
		Set("location", c.Location).
		Set("is_publicly_listed", c.IsPubliclyListed).
		Set("is_active", c.IsActive).
		Set("is_proxy", c.IsProxy).
		Set("contact_person", c.ContactPerson).
		Set("contact_email", c.ContactEmail).
		Set("contact_phone", c.ContactPhone).
		Set("logo_url", c.LogoURL).
		Set("alternate_names", pq.StringArray(c.AlternateNames)).
		Set("created_by_user_id", c.CreatedByUserID).
		Returning("*").
		ToSQL()
	if err != nil {
		return club.Club{}, fmt.Errorf("build create club query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "clubs_name_active_idx") {
			return club.Club{}, club.ErrDuplicateName
		}
		return club.Club{}, fmt.Errorf("create club: %w", err)
	}

	return clubFromRow(row), nil
}

func (r *ClubRepository) Update(ctx context.Context, c club.Club) (club.Club, error) {
	query, args, err := qb.Update("clubs").
		Set("name", c.Name).
		Set("state_code", c.StateCode).
		Set("location", c.Location).
		Set("is_publicly_listed", c.IsPubliclyListed).
		Set("is_active", c.IsActive).
		Set("is_proxy", c.IsProxy).
		Set("contact_person", c.ContactPerson).
		Set("contact_email", c.ContactEmail).
		Set("contact_phone", c.ContactPhone).
		Set("logo_url", c.LogoURL).
		Set("alternate_names", pq.StringArray(c.AlternateNames)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", c.ID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return club.Club{}, fmt.Errorf("build update club query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "clubs_name_active_idx") {
			return club.Club{}, club.ErrDuplicateName
		}
		return club.Club{}, fmt.Errorf("update club: %w", err)
	}

	return clubFromRow(row), nil
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID int64) (club.Club, bool, error) {
	query, args, err := qb.Select("*").From("clubs").
		Where(qb.Eq("id", clubID)).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build get club by id query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("get club by id: %w", err)
	}

	return clubFromRow(row), true, nil
}

func (r *ClubRepository) FindProxyByContactEmail(ctx context.Context, email string) (club.Club, bool, error) {
	query, args, err := qb.Select("*").From("clubs").
		Where(
			qb.Eq("is_proxy", true),
			qb.Eq("is_active", false),
			qb.ILike("contact_email", strings.TrimSpace(email)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build find proxy club query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("find proxy club: %w", err)
	}

	return clubFromRow(row), true, nil
}

func (r *ClubRepository) ListPublic(ctx context.Context) ([]club.Club, error) {
	query, args, err := qb.Select("*").From("clubs").
		Where(
			qb.Eq("is_active", true),
			qb.Eq("is_proxy", false),
			qb.Eq("is_publicly_listed", true),
		).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list public clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list public clubs: %w", err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, clubFromRow(row))
	}
	return out, nil
}

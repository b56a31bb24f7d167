package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

type CarnivalRepository struct {
	db *sqlx.DB
}

func NewCarnivalRepository(db *sqlx.DB) *CarnivalRepository {
	return &CarnivalRepository{db: db}
}

func (r *CarnivalRepository) Create(ctx context.Context, c carnival.Carnival) (carnival.Carnival, error) {
	query, args, err := qb.InsertInto("carnivals").
		Set("title", c.Title).
		Set("start_date", c.StartDate).
		Set("end_date", c.EndDate).
		Set("state_code", c.StateCode).
		Set("address_line1", c.Location.AddressLine1).
		Set("address_line2", c.Location.AddressLine2).
		Set("suburb", c.Location.Suburb).
		Set("postcode", c.Location.Postcode).
		Set("latitude", c.Location.Latitude).
		Set("longitude", c.Location.Longitude).
		Set("organiser_name", c.OrganiserName).
		Set("organiser_email", c.OrganiserEmail).
		Set("organiser_phone", c.OrganiserPhone).
		Set("schedule_details", c.ScheduleDetails).
		Set("registration_link", c.RegistrationLink).
		Set("social_links", c.SocialLinks).
		Set("fee_description", c.FeeDescription).
		Set("max_teams", c.MaxTeams).
		Set("registration_deadline", c.RegistrationDeadline).
		Set("is_active", c.IsActive).
		Set("host_club_id", c.HostClubID).
		Set("created_by_user_id", c.CreatedByUserID).
		Set("source_kind", string(c.Source.Kind)).
		Set("external_id", nullableExternalID(c.Source.ExternalID)).
		Set("last_synced_at", c.Source.LastSyncedAt).
		Set("claimed_at", c.Source.ClaimedAt).
		Returning("*").
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("build create carnival query: %w", err)
	}

	var row carnivalTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return carnival.Carnival{}, fmt.Errorf("create carnival: %w", err)
	}

	return carnivalFromRow(row), nil
}

func (r *CarnivalRepository) Update(ctx context.Context, c carnival.Carnival) (carnival.Carnival, error) {
	query, args, err := qb.Update("carnivals").
		Set("title", c.Title).
		Set("start_date", c.StartDate).
		Set("end_date", c.EndDate).
		Set("state_code", c.StateCode).
		Set("address_line1", c.Location.AddressLine1).
		Set("address_line2", c.Location.AddressLine2).
		Set("suburb", c.Location.Suburb).
		Set("postcode", c.Location.Postcode).
		Set("latitude", c.Location.Latitude).
		Set("longitude", c.Location.Longitude).
		Set("organiser_name", c.OrganiserName).
		Set("organiser_email", c.OrganiserEmail).
		Set("organiser_phone", c.OrganiserPhone).
		Set("schedule_details", c.ScheduleDetails).
		Set("registration_link", c.RegistrationLink).
		Set("social_links", c.SocialLinks).
		Set("fee_description", c.FeeDescription).
		Set("max_teams", c.MaxTeams).
		Set("registration_deadline", c.RegistrationDeadline).
		Set("is_active", c.IsActive).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", c.ID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("build update carnival query: %w", err)
	}

	var row carnivalTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return carnival.Carnival{}, fmt.Errorf("update carnival: %w", err)
	}

	return carnivalFromRow(row), nil
}

func (r *CarnivalRepository) GetByID(ctx context.Context, carnivalID int64) (carnival.Carnival, bool, error) {
	query, args, err := qb.Select("*").From("carnivals").
		Where(qb.Eq("id", carnivalID)).
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, false, fmt.Errorf("build get carnival by id query: %w", err)
	}

	var row carnivalTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return carnival.Carnival{}, false, nil
		}
		return carnival.Carnival{}, false, fmt.Errorf("get carnival by id: %w", err)
	}

	return carnivalFromRow(row), true, nil
}

func (r *CarnivalRepository) GetByExternalID(ctx context.Context, externalID string) (carnival.Carnival, bool, error) {
	if externalID == "" {
		return carnival.Carnival{}, false, nil
	}

	query, args, err := qb.Select("*").From("carnivals").
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, false, fmt.Errorf("build get carnival by external id query: %w", err)
	}

	var row carnivalTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return carnival.Carnival{}, false, nil
		}
		return carnival.Carnival{}, false, fmt.Errorf("get carnival by external id: %w", err)
	}

	return carnivalFromRow(row), true, nil
}

func (r *CarnivalRepository) List(ctx context.Context, filter carnival.ListFilter) ([]carnival.Carnival, error) {
	builder := qb.Select("*").From("carnivals").Where(qb.Eq("is_active", true))
	if filter.StateCode != "" {
		builder = builder.Where(qb.Eq("state_code", filter.StateCode))
	}
	if filter.UpcomingFrom != nil {
		builder = builder.Where(qb.Expr("COALESCE(end_date, start_date) >= ?", *filter.UpcomingFrom))
	}
	query, args, err := builder.OrderBy("start_date", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list carnivals query: %w", err)
	}

	var rows []carnivalTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list carnivals: %w", err)
	}

	out := make([]carnival.Carnival, 0, len(rows))
	for _, row := range rows {
		out = append(out, carnivalFromRow(row))
	}
	return out, nil
}

func (r *CarnivalRepository) UpsertScraped(ctx context.Context, record carnival.ScrapedRecord, now time.Time) (carnival.Carnival, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("begin tx upsert scraped carnival: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery, lockArgs, err := qb.Select("*").From("carnivals").
		Where(qb.Eq("external_id", record.ExternalID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("build lock scraped carnival query: %w", err)
	}

	var existing carnivalTableModel
	lockErr := tx.GetContext(ctx, &existing, lockQuery, lockArgs...)
	if lockErr != nil && !isNotFound(lockErr) {
		return carnival.Carnival{}, fmt.Errorf("lock scraped carnival: %w", lockErr)
	}

	var row carnivalTableModel
	switch {
	case lockErr == nil && existing.SourceKind == string(carnival.SourceClaimed):
		// Claimed records keep the host's fields; only the scraped extras
		// refresh.
		query, args, err := qb.Update("carnivals").
			Set("registration_link", record.RegistrationLink).
			Set("social_links", record.SocialLinks).
			Set("last_synced_at", now).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			Returning("*").
			ToSQL()
		if err != nil {
			return carnival.Carnival{}, fmt.Errorf("build refresh claimed carnival query: %w", err)
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return carnival.Carnival{}, fmt.Errorf("refresh claimed carnival: %w", err)
		}

	case lockErr == nil:
		query, args, err := qb.Update("carnivals").
			Set("title", record.Title).
			Set("start_date", record.StartDate).
			Set("end_date", record.EndDate).
			Set("state_code", record.StateCode).
			Set("address_line1", record.Location.AddressLine1).
			Set("address_line2", record.Location.AddressLine2).
			Set("suburb", record.Location.Suburb).
			Set("postcode", record.Location.Postcode).
			Set("latitude", record.Location.Latitude).
			Set("longitude", record.Location.Longitude).
			Set("organiser_name", record.OrganiserName).
			Set("organiser_email", record.OrganiserEmail).
			Set("organiser_phone", record.OrganiserPhone).
			Set("schedule_details", record.ScheduleDetails).
			Set("registration_link", record.RegistrationLink).
			Set("social_links", record.SocialLinks).
			Set("last_synced_at", now).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			Returning("*").
			ToSQL()
		if err != nil {
			return carnival.Carnival{}, fmt.Errorf("build refresh scraped carnival query: %w", err)
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return carnival.Carnival{}, fmt.Errorf("refresh scraped carnival: %w", err)
		}

	default:
		query, args, err := qb.InsertInto("carnivals").
			Set("title", record.Title).
			Set("start_date", record.StartDate).
			Set("end_date", record.EndDate).
			Set("state_code", record.StateCode).
			Set("address_line1", record.Location.AddressLine1).
			Set("address_line2", record.Location.AddressLine2).
			Set("suburb", record.Location.Suburb).
			Set("postcode", record.Location.Postcode).
			Set("latitude", record.Location.Latitude).
			Set("longitude", record.Location.Longitude).
			Set("organiser_name", record.OrganiserName).
			Set("organiser_email", record.OrganiserEmail).
			Set("organiser_phone", record.OrganiserPhone).
			Set("schedule_details", record.ScheduleDetails).
			Set("registration_link", record.RegistrationLink).
			Set("social_links", record.SocialLinks).
			Set("is_active", true).
			Set("source_kind", string(carnival.SourceScraped)).
			Set("external_id", record.ExternalID).
			Set("last_synced_at", now).
			Returning("*").
			ToSQL()
		if err != nil {
			return carnival.Carnival{}, fmt.Errorf("build insert scraped carnival query: %w", err)
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return carnival.Carnival{}, fmt.Errorf("insert scraped carnival: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return carnival.Carnival{}, fmt.Errorf("commit upsert scraped carnival tx: %w", err)
	}

	return carnivalFromRow(row), nil
}

func (r *CarnivalRepository) Claim(ctx context.Context, carnivalID, clubID, userID int64, details carnival.ClaimDetails, now time.Time) (carnival.Carnival, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("begin tx claim carnival: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery, lockArgs, err := qb.Select("*").From("carnivals").
		Where(qb.Eq("id", carnivalID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("build lock carnival query: %w", err)
	}

	var existing carnivalTableModel
	if err := tx.GetContext(ctx, &existing, lockQuery, lockArgs...); err != nil {
		if isNotFound(err) {
			return carnival.Carnival{}, fmt.Errorf("claim carnival: not found")
		}
		return carnival.Carnival{}, fmt.Errorf("lock carnival: %w", err)
	}
	if !carnivalFromRow(existing).Source.Claimable() {
		return carnival.Carnival{}, carnival.ErrAlreadyClaimed
	}

	updateBuilder := qb.Update("carnivals").
		Set("source_kind", string(carnival.SourceClaimed)).
		Set("claimed_at", now).
		Set("host_club_id", clubID).
		Set("created_by_user_id", userID).
		Set("organiser_name", details.OrganiserName).
		Set("organiser_email", details.OrganiserEmail).
		Set("organiser_phone", details.OrganiserPhone).
		Set("schedule_details", details.ScheduleDetails).
		Set("fee_description", details.FeeDescription).
		Set("max_teams", details.MaxTeams).
		Set("registration_deadline", details.RegistrationDeadline).
		SetExpr("updated_at", "NOW()")
	if details.RegistrationLink != "" {
		updateBuilder = updateBuilder.Set("registration_link", details.RegistrationLink)
	}
	query, args, err := updateBuilder.
		Where(qb.Eq("id", carnivalID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return carnival.Carnival{}, fmt.Errorf("build claim carnival query: %w", err)
	}

	var row carnivalTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return carnival.Carnival{}, fmt.Errorf("claim carnival: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return carnival.Carnival{}, fmt.Errorf("commit claim carnival tx: %w", err)
	}

	return carnivalFromRow(row), nil
}

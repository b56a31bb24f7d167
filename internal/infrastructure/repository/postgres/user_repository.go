package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ausmasters/carnivalhub/internal/domain/user"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u user.User, password string) (user.User, error) {
	hash := ""
	if password != "" {
		var err error
		hash, err = user.HashPassword(password)
		if err != nil {
			return user.User{}, err
		}
	}

	query, args, err := qb.InsertInto("users").
		Set("email", user.NormalizeEmail(u.Email)).
		Set("password_hash", hash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("phone_number", u.PhoneNumber).
		Set("is_admin", u.IsAdmin).
		Set("is_primary_delegate", u.IsPrimaryDelegate).
		Set("is_active", u.IsActive).
		Set("club_id", u.ClubID).
		Set("invite_token", u.InviteToken).
		Set("invite_expires_at", u.InviteExpiresAt).
		Returning("*").
		ToSQL()
	if err != nil {
		return user.User{}, fmt.Errorf("build create user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrDuplicateEmail
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return userFromRow(row), nil
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	query, args, err := qb.Update("users").
		Set("email", user.NormalizeEmail(u.Email)).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("phone_number", u.PhoneNumber).
		Set("is_admin", u.IsAdmin).
		Set("is_primary_delegate", u.IsPrimaryDelegate).
		Set("is_active", u.IsActive).
		Set("club_id", u.ClubID).
		Set("last_login_at", u.LastLoginAt).
		Set("invite_token", u.InviteToken).
		Set("invite_expires_at", u.InviteExpiresAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", u.ID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return user.User{}, fmt.Errorf("build update user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrDuplicateEmail
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	return userFromRow(row), nil
}

func (r *UserRepository) UpdateCredentials(ctx context.Context, userID int64, u user.User, password string) (user.User, error) {
	hash, err := user.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}

	query, args, err := qb.Update("users").
		Set("password_hash", hash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("phone_number", u.PhoneNumber).
		Set("is_active", u.IsActive).
		Set("invite_token", u.InviteToken).
		Set("invite_expires_at", u.InviteExpiresAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", userID)).
		Returning("*").
		ToSQL()
	if err != nil {
		return user.User{}, fmt.Errorf("build update credentials query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, user.ErrInvalidInviteToken
		}
		return user.User{}, fmt.Errorf("update credentials: %w", err)
	}

	return userFromRow(row), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (user.User, bool, error) {
	return r.getOne(ctx, qb.Eq("id", userID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, bool, error) {
	return r.getOne(ctx, qb.Eq("email", user.NormalizeEmail(email)))
}

func (r *UserRepository) GetByInviteToken(ctx context.Context, token string) (user.User, bool, error) {
	if token == "" {
		return user.User{}, false, nil
	}
	return r.getOne(ctx, qb.Eq("invite_token", token))
}

func (r *UserRepository) ListByClub(ctx context.Context, clubID int64) ([]user.User, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.Eq("club_id", clubID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list users by club query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users by club: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (r *UserRepository) PrimaryDelegateByClub(ctx context.Context, clubID int64) (user.User, bool, error) {
	return r.getOne(ctx,
		qb.Eq("club_id", clubID),
		qb.Eq("is_primary_delegate", true),
		qb.Eq("is_active", true),
	)
}

func (r *UserRepository) TransferPrimaryDelegate(ctx context.Context, fromID, toID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx transfer primary delegate: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery, lockArgs, err := qb.Select("id", "is_primary_delegate").From("users").
		Where(qb.In("id", []any{fromID, toID})).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock users query: %w", err)
	}
	var locked []struct {
		ID                int64 `db:"id"`
		IsPrimaryDelegate bool  `db:"is_primary_delegate"`
	}
	if err := tx.SelectContext(ctx, &locked, lockQuery, lockArgs...); err != nil {
		return fmt.Errorf("lock users: %w", err)
	}
	if len(locked) != 2 {
		return fmt.Errorf("transfer primary delegate: user not found")
	}
	for _, row := range locked {
		if row.ID == toID && row.IsPrimaryDelegate {
			return user.ErrTargetAlreadyPrimary
		}
	}

	demoteQuery, demoteArgs, err := qb.Update("users").
		Set("is_primary_delegate", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", fromID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build demote delegate query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, demoteQuery, demoteArgs...); err != nil {
		return fmt.Errorf("demote delegate: %w", err)
	}

	promoteQuery, promoteArgs, err := qb.Update("users").
		Set("is_primary_delegate", true).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", toID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build promote delegate query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, promoteQuery, promoteArgs...); err != nil {
		return fmt.Errorf("promote delegate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer primary delegate tx: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, conditions ...qb.Condition) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").Where(conditions...).Limit(1).ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user: %w", err)
	}

	return userFromRow(row), true, nil
}

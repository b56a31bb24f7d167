package roster

import "context"

// Repository describes roster persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, p Player) (Player, error)
	Update(ctx context.Context, p Player) (Player, error)
	GetByID(ctx context.Context, playerID int64) (Player, bool, error)
	// FindByClubEmail matches on the lowercased email within one club,
	// including inactive rows, for the per-club uniqueness check.
	FindByClubEmail(ctx context.Context, clubID int64, email string) (Player, bool, error)
	ListByClub(ctx context.Context, clubID int64, filter ListFilter) (ListResult, error)
	SetActive(ctx context.Context, playerID int64, active bool) error
}

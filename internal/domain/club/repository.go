package club

import "context"

// Repository describes club persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, c Club) (Club, error)
	Update(ctx context.Context, c Club) (Club, error)
	GetByID(ctx context.Context, clubID int64) (Club, bool, error)
	// FindProxyByContactEmail matches inactive proxy clubs by contact email,
	// ignoring case. Used during user registration to hand over ownership.
	FindProxyByContactEmail(ctx context.Context, email string) (Club, bool, error)
	ListPublic(ctx context.Context) ([]Club, error)
}

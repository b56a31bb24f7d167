package user

import "context"

// Principal identifies an authenticated caller to the HTTP surface.
type Principal struct {
	UserID            int64
	Email             string
	IsAdmin           bool
	IsPrimaryDelegate bool
	ClubID            *int64
}

// Repository describes user persistence needs from use cases.
//
// Create and UpdateCredentials receive the plaintext password; the storage
// layer hashes it exactly once before writing.
type Repository interface {
	Create(ctx context.Context, u User, password string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	UpdateCredentials(ctx context.Context, userID int64, u User, password string) (User, error)
	GetByID(ctx context.Context, userID int64) (User, bool, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByInviteToken(ctx context.Context, token string) (User, bool, error)
	ListByClub(ctx context.Context, clubID int64) ([]User, error)
	PrimaryDelegateByClub(ctx context.Context, clubID int64) (User, bool, error)
	// TransferPrimaryDelegate clears the flag on fromID and sets it on toID
	// inside one transaction, locking both rows. Returns
	// ErrTargetAlreadyPrimary when toID already holds the flag.
	TransferPrimaryDelegate(ctx context.Context, fromID, toID int64) error
}

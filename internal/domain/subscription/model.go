package subscription

import (
	"fmt"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

// Subscription is an email audience entry for carnival announcements in the
// subscriber's states of interest.
type Subscription struct {
	ID               int64
	Email            string
	StateCodes       []string
	IsActive         bool
	SubscribedAt     time.Time
	UnsubscribedAt   *time.Time
	UnsubscribeToken string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s Subscription) Validate() error {
	if user.NormalizeEmail(s.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if len(s.StateCodes) == 0 {
		return fmt.Errorf("at least one state of interest is required")
	}
	for _, code := range s.StateCodes {
		if !club.IsValidStateCode(code) {
			return fmt.Errorf("invalid state code %q", code)
		}
	}
	return nil
}

// WantsState reports whether the subscriber follows the given state.
func (s Subscription) WantsState(code string) bool {
	for _, c := range s.StateCodes {
		if c == code {
			return true
		}
	}
	return false
}

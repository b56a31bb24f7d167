package club

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Australian state and territory codes accepted for clubs and carnivals.
var StateCodes = []string{"NSW", "QLD", "VIC", "WA", "SA", "TAS", "NT", "ACT"}

var ErrDuplicateName = errors.New("club name already in use")

// Club is a member organisation. A proxy club is a placeholder created on
// behalf of a club that has not joined yet; it stays inactive until claimed.
type Club struct {
	ID               int64
	Name             string
	StateCode        string
	Location         string
	IsPubliclyListed bool
	IsActive         bool
	IsProxy          bool
	ContactPerson    string
	ContactEmail     string
	ContactPhone     string
	LogoURL          string
	AlternateNames   []string
	CreatedByUserID  int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c Club) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("club name is required")
	}
	if !IsValidStateCode(c.StateCode) {
		return fmt.Errorf("invalid state code %q", c.StateCode)
	}
	return nil
}

func IsValidStateCode(code string) bool {
	for _, s := range StateCodes {
		if s == strings.ToUpper(strings.TrimSpace(code)) {
			return true
		}
	}
	return false
}

// MatchesName reports whether name equals the club name or one of its
// alternate names, ignoring case. Used when reconciling scraped records.
func (c Club) MatchesName(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	if strings.ToLower(c.Name) == name {
		return true
	}
	for _, alt := range c.AlternateNames {
		if strings.ToLower(alt) == name {
			return true
		}
	}
	return false
}

package roster

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrAgeOutOfRange carries the user-facing message verbatim.
	ErrAgeOutOfRange  = errors.New("Player must be between 16 and 100 years old")
	ErrDuplicateEmail = errors.New("a player with this email already exists for the club")
)

const (
	MinAge     = 16
	MaxAge     = 100
	MastersAge = 35
)

// ShortsColour is the Masters classification worn on field.
type ShortsColour string

const (
	ShortsUnrestricted ShortsColour = "Unrestricted"
	ShortsRed          ShortsColour = "Red"
	ShortsYellow       ShortsColour = "Yellow"
	ShortsBlue         ShortsColour = "Blue"
	ShortsGreen        ShortsColour = "Green"
)

func ParseShortsColour(raw string) (ShortsColour, error) {
	switch ShortsColour(titleCaser.String(strings.ToLower(strings.TrimSpace(raw)))) {
	case ShortsUnrestricted:
		return ShortsUnrestricted, nil
	case ShortsRed:
		return ShortsRed, nil
	case ShortsYellow:
		return ShortsYellow, nil
	case ShortsBlue:
		return ShortsBlue, nil
	case ShortsGreen:
		return ShortsGreen, nil
	default:
		return "", fmt.Errorf("unknown shorts colour %q", raw)
	}
}

var titleCaser = cases.Title(language.English)

// Player is a club roster member.
type Player struct {
	ID           int64
	ClubID       int64
	FirstName    string
	LastName     string
	Email        string
	DateOfBirth  time.Time
	ShortsColour *ShortsColour
	Notes        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize title-cases names and lowercases the email.
func (p Player) Normalize() Player {
	p.FirstName = titleCaser.String(strings.ToLower(strings.TrimSpace(p.FirstName)))
	p.LastName = titleCaser.String(strings.ToLower(strings.TrimSpace(p.LastName)))
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return p
}

func (p Player) Validate(now time.Time) error {
	if p.ClubID == 0 {
		return fmt.Errorf("club id is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("player first and last name are required")
	}
	if p.Email == "" {
		return fmt.Errorf("player email is required")
	}
	if p.DateOfBirth.IsZero() || p.DateOfBirth.After(now) {
		return ErrAgeOutOfRange
	}
	age := p.Age(now)
	if age < MinAge || age > MaxAge {
		return ErrAgeOutOfRange
	}
	return nil
}

// Age is the player's whole years at now.
func (p Player) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// MastersEligible reports whether the player meets the Masters minimum age.
func (p Player) MastersEligible(now time.Time) bool {
	return p.Age(now) >= MastersAge
}

// SortField values accepted by the roster listing.
const (
	SortFirstName = "firstName"
	SortLastName  = "lastName"
)

// ListFilter narrows and pages a club roster listing.
type ListFilter struct {
	Search   string
	SortBy   string
	Page     int
	PageSize int
}

// Normalize applies the default sort and page bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.SortBy != SortFirstName && f.SortBy != SortLastName {
		f.SortBy = SortLastName
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return f
}

// ListResult is one page of roster rows with the unpaged total.
type ListResult struct {
	Items    []Player
	Total    int
	Page     int
	PageSize int
}

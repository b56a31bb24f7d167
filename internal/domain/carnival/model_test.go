package carnival

import (
	"testing"
	"time"
)

func TestAcceptingAt(t *testing.T) {
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		carnival Carnival
		now      time.Time
		want     bool
	}{
		{
			name:     "no deadline",
			carnival: Carnival{IsActive: true},
			now:      deadline.AddDate(1, 0, 0),
			want:     true,
		},
		{
			name:     "before deadline",
			carnival: Carnival{IsActive: true, RegistrationDeadline: &deadline},
			now:      deadline.Add(-time.Hour),
			want:     true,
		},
		{
			name:     "exactly at deadline",
			carnival: Carnival{IsActive: true, RegistrationDeadline: &deadline},
			now:      deadline,
			want:     true,
		},
		{
			name:     "after deadline",
			carnival: Carnival{IsActive: true, RegistrationDeadline: &deadline},
			now:      deadline.Add(time.Second),
			want:     false,
		},
		{
			name:     "inactive",
			carnival: Carnival{IsActive: false},
			now:      deadline.Add(-time.Hour),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.carnival.AcceptingAt(tt.now); got != tt.want {
				t.Fatalf("AcceptingAt(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestSourceClaimable(t *testing.T) {
	syncedAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		source Source
		want   bool
	}{
		{name: "manual", source: ManualSource(), want: false},
		{name: "scraped", source: ScrapedSource("ext-1", syncedAt), want: true},
		{name: "claimed", source: ClaimedSource("ext-1", syncedAt), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.source.Claimable(); got != tt.want {
				t.Fatalf("Claimable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCarnivalValidate(t *testing.T) {
	start := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	earlier := start.AddDate(0, 0, -1)
	zeroTeams := 0

	valid := Carnival{Title: "State Masters Carnival", StartDate: start, StateCode: "QLD"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid carnival rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Carnival)
	}{
		{name: "blank title", mutate: func(c *Carnival) { c.Title = "   " }},
		{name: "missing start date", mutate: func(c *Carnival) { c.StartDate = time.Time{} }},
		{name: "end before start", mutate: func(c *Carnival) { c.EndDate = &earlier }},
		{name: "bad state code", mutate: func(c *Carnival) { c.StateCode = "XX" }},
		{name: "zero max teams", mutate: func(c *Carnival) { c.MaxTeams = &zeroTeams }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

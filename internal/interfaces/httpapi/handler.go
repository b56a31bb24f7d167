package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

// TokenIssuer mints a session token for an authenticated user.
type TokenIssuer interface {
	Issue(u user.User) (string, error)
}

type Handler struct {
	membershipService   *usecase.MembershipService
	carnivalService     *usecase.CarnivalService
	registrationService *usecase.RegistrationService
	rosterService       *usecase.RosterService
	assignmentService   *usecase.AssignmentService
	subscriptionService *usecase.SubscriptionService
	tokenIssuer         TokenIssuer
	logger              *slog.Logger
	validator           *validator.Validate
}

func NewHandler(
	membershipService *usecase.MembershipService,
	carnivalService *usecase.CarnivalService,
	registrationService *usecase.RegistrationService,
	rosterService *usecase.RosterService,
	assignmentService *usecase.AssignmentService,
	subscriptionService *usecase.SubscriptionService,
	tokenIssuer TokenIssuer,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		membershipService:   membershipService,
		carnivalService:     carnivalService,
		registrationService: registrationService,
		rosterService:       rosterService,
		assignmentService:   assignmentService,
		subscriptionService: subscriptionService,
		tokenIssuer:         tokenIssuer,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type userDTO struct {
	ID                int64  `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	PhoneNumber       string `json:"phoneNumber"`
	IsAdmin           bool   `json:"isAdmin"`
	IsPrimaryDelegate bool   `json:"isPrimaryDelegate"`
	IsActive          bool   `json:"isActive"`
	ClubID            *int64 `json:"clubId"`
	LastLoginAt       string `json:"lastLoginAt,omitempty"`
}

type clubDTO struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	StateCode        string   `json:"stateCode"`
	Location         string   `json:"location"`
	IsPubliclyListed bool     `json:"isPubliclyListed"`
	IsActive         bool     `json:"isActive"`
	IsProxy          bool     `json:"isProxy"`
	ContactPerson    string   `json:"contactPerson"`
	ContactEmail     string   `json:"contactEmail"`
	ContactPhone     string   `json:"contactPhone"`
	LogoURL          string   `json:"logoUrl"`
	AlternateNames   []string `json:"alternateNames"`
}

type locationDTO struct {
	AddressLine1 string   `json:"addressLine1"`
	AddressLine2 string   `json:"addressLine2"`
	Suburb       string   `json:"suburb"`
	Postcode     string   `json:"postcode"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type sourceDTO struct {
	Kind         string `json:"kind"`
	ExternalID   string `json:"externalId,omitempty"`
	LastSyncedAt string `json:"lastSyncedAt,omitempty"`
	ClaimedAt    string `json:"claimedAt,omitempty"`
}

type carnivalDTO struct {
	ID                   int64       `json:"id"`
	Title                string      `json:"title"`
	StartDate            string      `json:"startDate"`
	EndDate              string      `json:"endDate,omitempty"`
	StateCode            string      `json:"stateCode"`
	Location             locationDTO `json:"location"`
	OrganiserName        string      `json:"organiserName"`
	OrganiserEmail       string      `json:"organiserEmail"`
	OrganiserPhone       string      `json:"organiserPhone"`
	ScheduleDetails      string      `json:"scheduleDetails"`
	RegistrationLink     string      `json:"registrationLink"`
	SocialLinks          string      `json:"socialLinks"`
	FeeDescription       string      `json:"feeDescription"`
	MaxTeams             *int        `json:"maxTeams"`
	RegistrationDeadline string      `json:"registrationDeadline,omitempty"`
	IsActive             bool        `json:"isActive"`
	HostClubID           *int64      `json:"hostClubId"`
	Source               sourceDTO   `json:"source"`
}

type registrationDTO struct {
	ID                  int64   `json:"id"`
	CarnivalID          int64   `json:"carnivalId"`
	ClubID              int64   `json:"clubId"`
	RegisteredAt        string  `json:"registeredAt"`
	TeamName            string  `json:"teamName"`
	PlayerCount         int     `json:"playerCount"`
	ContactName         string  `json:"contactName"`
	ContactEmail        string  `json:"contactEmail"`
	ContactPhone        string  `json:"contactPhone"`
	SpecialRequirements string  `json:"specialRequirements"`
	Notes               string  `json:"notes"`
	PaymentAmount       int64   `json:"paymentAmount"`
	IsPaid              bool    `json:"isPaid"`
	PaymentDate         string  `json:"paymentDate,omitempty"`
	DisplayOrder        int     `json:"displayOrder"`
	IsActive            bool    `json:"isActive"`
	ApprovalStatus      string  `json:"approvalStatus"`
	ApprovedAt          string  `json:"approvedAt,omitempty"`
	RejectionReason     *string `json:"rejectionReason"`
}

type playerDTO struct {
	ID           int64  `json:"id"`
	ClubID       int64  `json:"clubId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	DateOfBirth  string `json:"dateOfBirth"`
	Age          int    `json:"age"`
	ShortsColour string `json:"shortsColour,omitempty"`
	Notes        string `json:"notes"`
	IsActive     bool   `json:"isActive"`
}

type rosterPageDTO struct {
	Items    []playerDTO `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

type assignmentDTO struct {
	ID               int64  `json:"id"`
	RegistrationID   int64  `json:"registrationId"`
	PlayerID         int64  `json:"playerId"`
	AttendanceStatus string `json:"attendanceStatus"`
	Notes            string `json:"notes"`
	AddedAt          string `json:"addedAt"`
	IsActive         bool   `json:"isActive"`
}

type attendanceCountsDTO struct {
	Confirmed   int `json:"confirmed"`
	Tentative   int `json:"tentative"`
	Unavailable int `json:"unavailable"`
	Total       int `json:"total"`
}

type subscriptionDTO struct {
	Email        string   `json:"email"`
	StateCodes   []string `json:"stateCodes"`
	IsActive     bool     `json:"isActive"`
	SubscribedAt string   `json:"subscribedAt"`
}

func userToDTO(ctx context.Context, v user.User) userDTO {
	ctx, span := startSpan(ctx, "httpapi.userToDTO")
	defer span.End()

	return userDTO{
		ID:                v.ID,
		Email:             v.Email,
		FirstName:         v.FirstName,
		LastName:          v.LastName,
		PhoneNumber:       v.PhoneNumber,
		IsAdmin:           v.IsAdmin,
		IsPrimaryDelegate: v.IsPrimaryDelegate,
		IsActive:          v.IsActive,
		ClubID:            v.ClubID,
		LastLoginAt:       formatTimePtr(v.LastLoginAt),
	}
}

func clubToDTO(ctx context.Context, v club.Club) clubDTO {
	ctx, span := startSpan(ctx, "httpapi.clubToDTO")
	defer span.End()

	return clubDTO{
		ID:               v.ID,
		Name:             v.Name,
		StateCode:        v.StateCode,
		Location:         v.Location,
		IsPubliclyListed: v.IsPubliclyListed,
		IsActive:         v.IsActive,
		IsProxy:          v.IsProxy,
		ContactPerson:    v.ContactPerson,
		ContactEmail:     v.ContactEmail,
		ContactPhone:     v.ContactPhone,
		LogoURL:          v.LogoURL,
		AlternateNames:   append([]string(nil), v.AlternateNames...),
	}
}

func carnivalToDTO(ctx context.Context, v carnival.Carnival) carnivalDTO {
	ctx, span := startSpan(ctx, "httpapi.carnivalToDTO")
	defer span.End()

	return carnivalDTO{
		ID:        v.ID,
		Title:     v.Title,
		StartDate: v.StartDate.UTC().Format(time.RFC3339),
		EndDate:   formatTimePtr(v.EndDate),
		StateCode: v.StateCode,
		Location: locationDTO{
			AddressLine1: v.Location.AddressLine1,
			AddressLine2: v.Location.AddressLine2,
			Suburb:       v.Location.Suburb,
			Postcode:     v.Location.Postcode,
			Latitude:     v.Location.Latitude,
			Longitude:    v.Location.Longitude,
		},
		OrganiserName:        v.OrganiserName,
		OrganiserEmail:       v.OrganiserEmail,
		OrganiserPhone:       v.OrganiserPhone,
		ScheduleDetails:      v.ScheduleDetails,
		RegistrationLink:     v.RegistrationLink,
		SocialLinks:          v.SocialLinks,
		FeeDescription:       v.FeeDescription,
		MaxTeams:             v.MaxTeams,
		RegistrationDeadline: formatTimePtr(v.RegistrationDeadline),
		IsActive:             v.IsActive,
		HostClubID:           v.HostClubID,
		Source: sourceDTO{
			Kind:         string(v.Source.Kind),
			ExternalID:   v.Source.ExternalID,
			LastSyncedAt: formatTimePtr(v.Source.LastSyncedAt),
			ClaimedAt:    formatTimePtr(v.Source.ClaimedAt),
		},
	}
}

func registrationToDTO(ctx context.Context, v registration.Registration) registrationDTO {
	ctx, span := startSpan(ctx, "httpapi.registrationToDTO")
	defer span.End()

	return registrationDTO{
		ID:                  v.ID,
		CarnivalID:          v.CarnivalID,
		ClubID:              v.ClubID,
		RegisteredAt:        v.RegisteredAt.UTC().Format(time.RFC3339),
		TeamName:            v.TeamName,
		PlayerCount:         v.PlayerCount,
		ContactName:         v.ContactName,
		ContactEmail:        v.ContactEmail,
		ContactPhone:        v.ContactPhone,
		SpecialRequirements: v.SpecialRequirements,
		Notes:               v.Notes,
		PaymentAmount:       v.PaymentAmount,
		IsPaid:              v.IsPaid,
		PaymentDate:         formatTimePtr(v.PaymentDate),
		DisplayOrder:        v.DisplayOrder,
		IsActive:            v.IsActive,
		ApprovalStatus:      string(v.ApprovalStatus),
		ApprovedAt:          formatTimePtr(v.ApprovedAt),
		RejectionReason:     v.RejectionReason,
	}
}

func playerToDTO(ctx context.Context, v roster.Player) playerDTO {
	ctx, span := startSpan(ctx, "httpapi.playerToDTO")
	defer span.End()

	colour := ""
	if v.ShortsColour != nil {
		colour = string(*v.ShortsColour)
	}

	return playerDTO{
		ID:           v.ID,
		ClubID:       v.ClubID,
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		Email:        v.Email,
		DateOfBirth:  v.DateOfBirth.UTC().Format("2006-01-02"),
		Age:          v.Age(time.Now()),
		ShortsColour: colour,
		Notes:        v.Notes,
		IsActive:     v.IsActive,
	}
}

func assignmentToDTO(ctx context.Context, v registration.Assignment) assignmentDTO {
	ctx, span := startSpan(ctx, "httpapi.assignmentToDTO")
	defer span.End()

	return assignmentDTO{
		ID:               v.ID,
		RegistrationID:   v.RegistrationID,
		PlayerID:         v.PlayerID,
		AttendanceStatus: string(v.AttendanceStatus),
		Notes:            v.Notes,
		AddedAt:          v.AddedAt.UTC().Format(time.RFC3339),
		IsActive:         v.IsActive,
	}
}

func subscriptionToDTO(ctx context.Context, v subscription.Subscription) subscriptionDTO {
	ctx, span := startSpan(ctx, "httpapi.subscriptionToDTO")
	defer span.End()

	return subscriptionDTO{
		Email:        v.Email,
		StateCodes:   append([]string(nil), v.StateCodes...),
		IsActive:     v.IsActive,
		SubscribedAt: v.SubscribedAt.UTC().Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

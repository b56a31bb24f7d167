package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) ListCarnivals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCarnivals")
	defer span.End()

	stateCode := strings.TrimSpace(r.URL.Query().Get("state"))
	upcomingOnly := false
	if raw := strings.TrimSpace(r.URL.Query().Get("upcoming")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid upcoming flag %q", usecase.ErrInvalidInput, raw))
			return
		}
		upcomingOnly = parsed
	}

	carnivals, err := h.carnivalService.List(ctx, stateCode, upcomingOnly)
	if err != nil {
		h.logger.ErrorContext(ctx, "list carnivals failed", "state", stateCode, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]carnivalDTO, 0, len(carnivals))
	for _, c := range carnivals {
		items = append(items, carnivalToDTO(ctx, c))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetCarnival(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCarnival")
	defer span.End()

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	c, err := h.carnivalService.Get(ctx, carnivalID)
	if err != nil {
		h.logger.WarnContext(ctx, "get carnival failed", "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, carnivalToDTO(ctx, c))
}

func (h *Handler) GetCarnivalRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCarnivalRegistrationStatus")
	defer span.End()

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	open, err := h.carnivalService.RegistrationOpen(ctx, carnivalID)
	if err != nil {
		h.logger.WarnContext(ctx, "registration status failed", "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}
	approved, err := h.carnivalService.CountApproved(ctx, carnivalID)
	if err != nil {
		h.logger.WarnContext(ctx, "count approved failed", "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationStatusDTO{
		Open:          open,
		ApprovedTeams: approved,
	})
}

func (h *Handler) CreateCarnival(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCarnival")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req carnivalRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input, err := req.toCreateInput()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.carnivalService.Create(ctx, principal.UserID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create carnival failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, carnivalToDTO(ctx, created))
}

func (h *Handler) UpdateCarnival(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateCarnival")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req carnivalRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	existing, err := h.carnivalService.Get(ctx, carnivalID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := req.applyTo(existing)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.carnivalService.Update(ctx, principal.UserID, updated)
	if err != nil {
		h.logger.WarnContext(ctx, "update carnival failed", "user_id", principal.UserID, "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, carnivalToDTO(ctx, saved))
}

func (h *Handler) ClaimCarnival(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimCarnival")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	if principal.ClubID == nil {
		writeError(ctx, w, fmt.Errorf("%w: club membership required to claim a carnival", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req claimCarnivalRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	deadline, err := parseOptionalTime(req.RegistrationDeadline)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	claimed, err := h.carnivalService.Claim(ctx, carnivalID, principal.UserID, *principal.ClubID, carnival.ClaimDetails{
		OrganiserName:        req.OrganiserName,
		OrganiserEmail:       req.OrganiserEmail,
		OrganiserPhone:       req.OrganiserPhone,
		ScheduleDetails:      req.ScheduleDetails,
		FeeDescription:       req.FeeDescription,
		RegistrationLink:     req.RegistrationLink,
		MaxTeams:             req.MaxTeams,
		RegistrationDeadline: deadline,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "claim carnival failed", "user_id", principal.UserID, "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, carnivalToDTO(ctx, claimed))
}

func (h *Handler) DeleteCarnival(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteCarnival")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.carnivalService.Deactivate(ctx, carnivalID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "delete carnival failed", "user_id", principal.UserID, "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"removed": true})
}

// BroadcastAttendees sends a host-authored message to every approved attending
// club.
func (h *Handler) BroadcastAttendees(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BroadcastAttendees")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req broadcastAttendeesRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.carnivalService.BroadcastAttendees(ctx, carnivalID, principal.UserID, req.Subject, req.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "attendee broadcast failed", "user_id", principal.UserID, "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, broadcastAttendeesResponse{
		Sent:   result.Sent,
		Failed: result.Failed,
	})
}

// IngestScrapedCarnivals accepts a batch from the scraper feed. Individual
// record failures are logged and skipped rather than failing the batch.
func (h *Handler) IngestScrapedCarnivals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestScrapedCarnivals")
	defer span.End()

	var req ingestScrapedRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	records := make([]carnival.ScrapedRecord, 0, len(req.Records))
	for _, rec := range req.Records {
		record, err := rec.toRecord()
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		records = append(records, record)
	}

	synced := h.carnivalService.IngestScrapedBatch(ctx, records)
	writeSuccess(ctx, w, http.StatusOK, ingestScrapedResponse{
		Received: len(records),
		Synced:   synced,
	})
}

type carnivalRequest struct {
	Title                string      `json:"title" validate:"required,max=300"`
	StartDate            string      `json:"startDate" validate:"required"`
	EndDate              string      `json:"endDate"`
	StateCode            string      `json:"stateCode" validate:"required,len=2|len=3"`
	Location             locationDTO `json:"location"`
	OrganiserName        string      `json:"organiserName" validate:"max=200"`
	OrganiserEmail       string      `json:"organiserEmail" validate:"omitempty,email"`
	OrganiserPhone       string      `json:"organiserPhone" validate:"max=30"`
	ScheduleDetails      string      `json:"scheduleDetails"`
	RegistrationLink     string      `json:"registrationLink" validate:"omitempty,url"`
	FeeDescription       string      `json:"feeDescription" validate:"max=500"`
	MaxTeams             *int        `json:"maxTeams" validate:"omitempty,min=1"`
	RegistrationDeadline string      `json:"registrationDeadline"`
}

type claimCarnivalRequest struct {
	OrganiserName        string `json:"organiserName" validate:"max=200"`
	OrganiserEmail       string `json:"organiserEmail" validate:"omitempty,email"`
	OrganiserPhone       string `json:"organiserPhone" validate:"max=30"`
	ScheduleDetails      string `json:"scheduleDetails"`
	FeeDescription       string `json:"feeDescription" validate:"max=500"`
	RegistrationLink     string `json:"registrationLink" validate:"omitempty,url"`
	MaxTeams             *int   `json:"maxTeams" validate:"omitempty,min=1"`
	RegistrationDeadline string `json:"registrationDeadline"`
}

type broadcastAttendeesRequest struct {
	Subject string `json:"subject" validate:"required,max=300"`
	Body    string `json:"body" validate:"required"`
}

type broadcastAttendeesResponse struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type scrapedRecordRequest struct {
	ExternalID       string      `json:"externalId" validate:"required,max=100"`
	Title            string      `json:"title" validate:"required,max=300"`
	StartDate        string      `json:"startDate" validate:"required"`
	EndDate          string      `json:"endDate"`
	StateCode        string      `json:"stateCode" validate:"required,len=2|len=3"`
	Location         locationDTO `json:"location"`
	OrganiserName    string      `json:"organiserName"`
	OrganiserEmail   string      `json:"organiserEmail" validate:"omitempty,email"`
	OrganiserPhone   string      `json:"organiserPhone"`
	ScheduleDetails  string      `json:"scheduleDetails"`
	RegistrationLink string      `json:"registrationLink"`
	SocialLinks      string      `json:"socialLinks"`
}

type ingestScrapedRequest struct {
	Records []scrapedRecordRequest `json:"records" validate:"required,min=1,dive"`
}

type ingestScrapedResponse struct {
	Received int `json:"received"`
	Synced   int `json:"synced"`
}

type registrationStatusDTO struct {
	Open          bool `json:"open"`
	ApprovedTeams int  `json:"approvedTeams"`
}

func (req carnivalRequest) toCreateInput() (usecase.CreateCarnivalInput, error) {
	startDate, err := parseRequiredTime(req.StartDate, "startDate")
	if err != nil {
		return usecase.CreateCarnivalInput{}, err
	}
	endDate, err := parseOptionalTime(req.EndDate)
	if err != nil {
		return usecase.CreateCarnivalInput{}, err
	}
	deadline, err := parseOptionalTime(req.RegistrationDeadline)
	if err != nil {
		return usecase.CreateCarnivalInput{}, err
	}

	return usecase.CreateCarnivalInput{
		Title:                req.Title,
		StartDate:            startDate,
		EndDate:              endDate,
		StateCode:            req.StateCode,
		Location:             req.Location.toDomain(),
		OrganiserName:        req.OrganiserName,
		OrganiserEmail:       req.OrganiserEmail,
		OrganiserPhone:       req.OrganiserPhone,
		ScheduleDetails:      req.ScheduleDetails,
		RegistrationLink:     req.RegistrationLink,
		FeeDescription:       req.FeeDescription,
		MaxTeams:             req.MaxTeams,
		RegistrationDeadline: deadline,
	}, nil
}

func (req carnivalRequest) applyTo(existing carnival.Carnival) (carnival.Carnival, error) {
	input, err := req.toCreateInput()
	if err != nil {
		return carnival.Carnival{}, err
	}

	updated := existing
	updated.Title = input.Title
	updated.StartDate = input.StartDate
	updated.EndDate = input.EndDate
	updated.StateCode = input.StateCode
	updated.Location = input.Location
	updated.OrganiserName = input.OrganiserName
	updated.OrganiserEmail = input.OrganiserEmail
	updated.OrganiserPhone = input.OrganiserPhone
	updated.ScheduleDetails = input.ScheduleDetails
	updated.RegistrationLink = input.RegistrationLink
	updated.FeeDescription = input.FeeDescription
	updated.MaxTeams = input.MaxTeams
	updated.RegistrationDeadline = input.RegistrationDeadline
	return updated, nil
}

func (rec scrapedRecordRequest) toRecord() (carnival.ScrapedRecord, error) {
	startDate, err := parseRequiredTime(rec.StartDate, "startDate")
	if err != nil {
		return carnival.ScrapedRecord{}, err
	}
	endDate, err := parseOptionalTime(rec.EndDate)
	if err != nil {
		return carnival.ScrapedRecord{}, err
	}

	return carnival.ScrapedRecord{
		ExternalID:       rec.ExternalID,
		Title:            rec.Title,
		StartDate:        startDate,
		EndDate:          endDate,
		StateCode:        rec.StateCode,
		Location:         rec.Location.toDomain(),
		OrganiserName:    rec.OrganiserName,
		OrganiserEmail:   rec.OrganiserEmail,
		OrganiserPhone:   rec.OrganiserPhone,
		ScheduleDetails:  rec.ScheduleDetails,
		RegistrationLink: rec.RegistrationLink,
		SocialLinks:      rec.SocialLinks,
	}, nil
}

func (l locationDTO) toDomain() carnival.Location {
	return carnival.Location{
		AddressLine1: l.AddressLine1,
		AddressLine2: l.AddressLine2,
		Suburb:       l.Suburb,
		Postcode:     l.Postcode,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
	}
}

func parseRequiredTime(raw, field string) (time.Time, error) {
	t, err := parseFlexibleTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, field, raw)
	}
	return t, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timestamp %q", usecase.ErrInvalidInput, raw)
	}
	return &t, nil
}

// parseFlexibleTime accepts RFC3339 or a bare date; the feed sends both.
func parseFlexibleTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/auth/register", handler.RegisterUser)
	mux.HandleFunc("POST /v1/auth/login", handler.Login)
	mux.HandleFunc("POST /v1/auth/invitations/accept", handler.AcceptInvitation)

	mux.HandleFunc("GET /v1/clubs", handler.ListClubs)
	mux.HandleFunc("GET /v1/clubs/{clubID}", handler.GetClub)

	mux.HandleFunc("GET /v1/carnivals", handler.ListCarnivals)
	mux.HandleFunc("GET /v1/carnivals/{carnivalID}", handler.GetCarnival)
	mux.HandleFunc("GET /v1/carnivals/{carnivalID}/registration-status", handler.GetCarnivalRegistrationStatus)
	mux.HandleFunc("GET /v1/carnivals/{carnivalID}/registrations", handler.ListRegistrationsByCarnival)

	mux.HandleFunc("POST /v1/subscriptions", handler.Subscribe)
	mux.HandleFunc("GET /v1/subscriptions/unsubscribe/{token}", handler.Unsubscribe)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedMembershipRoutes(mux, handler, verifier)
	registerAuthorizedCarnivalRoutes(mux, handler, verifier)
	registerAuthorizedRegistrationRoutes(mux, handler, verifier)
	registerAuthorizedRosterRoutes(mux, handler, verifier)
}

func registerFeedRoutes(mux *http.ServeMux, handler *Handler, scraperFeedToken string) {
	mux.Handle("POST /v1/feed/carnivals", RequireFeedToken(scraperFeedToken, http.HandlerFunc(handler.IngestScrapedCarnivals)))
}

func registerAuthorizedMembershipRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/clubs", RequireAuth(verifier, http.HandlerFunc(handler.CreateClub)))
	mux.Handle("PUT /v1/clubs/{clubID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateClub)))
	mux.Handle("GET /v1/delegates", RequireAuth(verifier, http.HandlerFunc(handler.ListDelegates)))
	mux.Handle("POST /v1/delegates/invitations", RequireAuth(verifier, http.HandlerFunc(handler.InviteDelegate)))
	mux.Handle("POST /v1/delegates/{userID}/transfer-primary", RequireAuth(verifier, http.HandlerFunc(handler.TransferPrimaryDelegate)))
}

func registerAuthorizedCarnivalRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/carnivals", RequireAuth(verifier, http.HandlerFunc(handler.CreateCarnival)))
	mux.Handle("PUT /v1/carnivals/{carnivalID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateCarnival)))
	mux.Handle("DELETE /v1/carnivals/{carnivalID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteCarnival)))
	mux.Handle("POST /v1/carnivals/{carnivalID}/claim", RequireAuth(verifier, http.HandlerFunc(handler.ClaimCarnival)))
	mux.Handle("POST /v1/carnivals/{carnivalID}/broadcast", RequireAuth(verifier, http.HandlerFunc(handler.BroadcastAttendees)))
}

func registerAuthorizedRegistrationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/carnivals/{carnivalID}/registrations", RequireAuth(verifier, http.HandlerFunc(handler.RegisterClub)))
	mux.Handle("POST /v1/carnivals/{carnivalID}/registrations/host-add", RequireAuth(verifier, http.HandlerFunc(handler.HostAddClub)))
	mux.Handle("PUT /v1/carnivals/{carnivalID}/registrations/order", RequireAuth(verifier, http.HandlerFunc(handler.ReorderRegistrations)))
	mux.Handle("POST /v1/registrations/{registrationID}/approve", RequireAuth(verifier, http.HandlerFunc(handler.ApproveRegistration)))
	mux.Handle("POST /v1/registrations/{registrationID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectRegistration)))
	mux.Handle("POST /v1/registrations/{registrationID}/resubmit", RequireAuth(verifier, http.HandlerFunc(handler.ResubmitRegistration)))
	mux.Handle("POST /v1/registrations/{registrationID}/withdraw", RequireAuth(verifier, http.HandlerFunc(handler.WithdrawRegistration)))
	mux.Handle("GET /v1/registrations/{registrationID}/players", RequireAuth(verifier, http.HandlerFunc(handler.ListAssignments)))
	mux.Handle("POST /v1/registrations/{registrationID}/players", RequireAuth(verifier, http.HandlerFunc(handler.AttachPlayers)))
	mux.Handle("GET /v1/registrations/{registrationID}/attendance", RequireAuth(verifier, http.HandlerFunc(handler.GetAttendanceSummary)))
	mux.Handle("DELETE /v1/assignments/{assignmentID}", RequireAuth(verifier, http.HandlerFunc(handler.DetachPlayer)))
	mux.Handle("PUT /v1/assignments/{assignmentID}/attendance", RequireAuth(verifier, http.HandlerFunc(handler.SetAttendance)))
}

func registerAuthorizedRosterRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/clubs/{clubID}/players", RequireAuth(verifier, http.HandlerFunc(handler.ListPlayers)))
	mux.Handle("POST /v1/clubs/{clubID}/players", RequireAuth(verifier, http.HandlerFunc(handler.AddPlayer)))
	mux.Handle("GET /v1/players/{playerID}", RequireAuth(verifier, http.HandlerFunc(handler.GetPlayer)))
	mux.Handle("PUT /v1/players/{playerID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdatePlayer)))
	mux.Handle("DELETE /v1/players/{playerID}", RequireAuth(verifier, http.HandlerFunc(handler.RemovePlayer)))
}

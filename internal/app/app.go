package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/panjf2000/ants/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/ausmasters/carnivalhub/internal/config"
	"github.com/ausmasters/carnivalhub/internal/domain/audit"
	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/infrastructure/mailer"
	"github.com/ausmasters/carnivalhub/internal/infrastructure/repository/memory"
	"github.com/ausmasters/carnivalhub/internal/infrastructure/repository/postgres"
	"github.com/ausmasters/carnivalhub/internal/interfaces/httpapi"
	"github.com/ausmasters/carnivalhub/internal/platform/authtoken"
	"github.com/ausmasters/carnivalhub/internal/platform/ratelimit"
	"github.com/ausmasters/carnivalhub/internal/platform/token"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

type repositories struct {
	users         user.Repository
	clubs         club.Repository
	carnivals     carnival.Repository
	registrations registration.Repository
	assignments   registration.AssignmentRepository
	roster        roster.Repository
	subscriptions subscription.Repository
}

func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repos, db, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(cfg.NotifyWorkers)
	if err != nil {
		return nil, fmt.Errorf("create notification worker pool: %w", err)
	}

	sender := mailer.NewRelayClient(mailer.RelayClientConfig{
		BaseURL:          cfg.MailRelayURL,
		Token:            cfg.MailRelayToken,
		Timeout:          cfg.MailRelayTimeout,
		FailureThreshold: cfg.MailRelayFailureCount,
		OpenTimeout:      cfg.MailRelayOpenTimeout,
	}, logger)
	emailEnabled := cfg.EmailEnabled && strings.TrimSpace(cfg.MailRelayURL) != ""
	if !emailEnabled {
		logger.Info("email dispatch disabled", "email_enabled", cfg.EmailEnabled, "relay_configured", cfg.MailRelayURL != "")
	}

	dispatcher := usecase.NewDispatcher(
		sender,
		repos.subscriptions,
		repos.users,
		repos.clubs,
		repos.registrations,
		pool,
		cfg.PublicBaseURL,
		emailEnabled,
		logger,
	)

	tokens := token.NewRandomGenerator()
	auditor := audit.NewLogRecorder(logger)
	limiter := ratelimit.New(cfg.SubscribeRateLimitTTL)
	issuer := authtoken.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)

	membershipSvc := usecase.NewMembershipService(repos.users, repos.clubs, dispatcher, auditor, tokens, logger)
	carnivalSvc := usecase.NewCarnivalService(repos.carnivals, repos.clubs, repos.users, repos.registrations, dispatcher, logger)
	registrationSvc := usecase.NewRegistrationService(repos.registrations, repos.carnivals, repos.clubs, repos.users, dispatcher, logger)
	rosterSvc := usecase.NewRosterService(repos.roster, repos.users, logger)
	assignmentSvc := usecase.NewAssignmentService(repos.assignments, repos.registrations, repos.carnivals, repos.users, logger)
	subscriptionSvc := usecase.NewSubscriptionService(repos.subscriptions, tokens, limiter, logger)

	handler := httpapi.NewHandler(
		membershipSvc,
		carnivalSvc,
		registrationSvc,
		rosterSvc,
		assignmentSvc,
		subscriptionSvc,
		issuer,
		logger,
	)
	router := httpapi.NewRouter(handler, issuer, logger, cfg.CORSAllowedOrigins, cfg.ScraperFeedToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	server.RegisterOnShutdown(func() {
		pool.Release()
		if db != nil {
			_ = db.Close()
		}
	})

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// buildRepositories connects Postgres when DB_URL is set and falls back to
// the in-memory store otherwise (dev and test runs).
func buildRepositories(cfg config.Config, logger *slog.Logger) (repositories, *sqlx.DB, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		logger.Info("using in-memory repositories", "reason", "DB_URL empty")
		carnivalRepo := memory.NewCarnivalRepository()
		rosterRepo := memory.NewRosterRepository()
		registrationRepo := memory.NewRegistrationRepository(carnivalRepo)
		assignmentRepo := memory.NewAssignmentRepository(registrationRepo, rosterRepo)

		return repositories{
			users:         memory.NewUserRepository(),
			clubs:         memory.NewClubRepository(),
			carnivals:     carnivalRepo,
			registrations: registrationRepo,
			assignments:   assignmentRepo,
			roster:        rosterRepo,
			subscriptions: memory.NewSubscriptionRepository(),
		}, nil, nil
	}

	db, err := otelsqlx.Connect("postgres", cfg.DBURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return repositories{}, nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	logger.Info("connected to database", "db_name", dbNameFromURL(cfg.DBURL))

	return repositories{
		users:         postgres.NewUserRepository(db),
		clubs:         postgres.NewClubRepository(db),
		carnivals:     postgres.NewCarnivalRepository(db),
		registrations: postgres.NewRegistrationRepository(db),
		assignments:   postgres.NewAssignmentRepository(db),
		roster:        postgres.NewRosterRepository(db),
		subscriptions: postgres.NewSubscriptionRepository(db),
	}, db, nil
}

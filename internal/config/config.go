package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ausmasters/carnivalhub/internal/platform/logging"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	DBURL string

	// PublicBaseURL is embedded in notification links.
	PublicBaseURL string
	// EmailEnabled suppresses all outbound email when false (degraded mode).
	EmailEnabled             bool
	MailRelayURL             string
	MailRelayToken           string
	MailRelayTimeout         time.Duration
	MailRelayFailureCount    int
	MailRelayOpenTimeout     time.Duration
	NotifyWorkers            int

	SessionSecret string
	SessionTTL    time.Duration

	// ScraperFeedToken guards the scraped-feed ingestion endpoint.
	ScraperFeedToken string

	SubscribeRateLimitTTL time.Duration
	CORSAllowedOrigins    []string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAuthToken     string

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	readTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	emailEnabled, err := getEnvAsBool("EMAIL_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	mailTimeout, err := getEnvAsDuration("MAIL_RELAY_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	mailFailureCount, err := getEnvAsInt("MAIL_RELAY_CIRCUIT_FAILURES", 5)
	if err != nil {
		return Config{}, err
	}
	mailOpenTimeout, err := getEnvAsDuration("MAIL_RELAY_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	notifyWorkers, err := getEnvAsInt("NOTIFY_WORKERS", 8)
	if err != nil {
		return Config{}, err
	}

	sessionTTL, err := getEnvAsDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	subscribeTTL, err := getEnvAsDuration("SUBSCRIBE_RATE_LIMIT_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}

	sessionSecret := strings.TrimSpace(getEnv("SESSION_SECRET", ""))
	if appEnv == EnvProd && sessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required in prod")
	}
	if sessionSecret == "" {
		sessionSecret = "dev-only-session-secret"
	}

	return Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("SERVICE_NAME", "carnivalhub"),
		ServiceVersion:         getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:            readTimeout,
		WriteTimeout:           writeTimeout,
		DBURL:                  strings.TrimSpace(getEnv("DB_URL", "")),
		PublicBaseURL:          strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		EmailEnabled:           emailEnabled,
		MailRelayURL:           strings.TrimSpace(getEnv("MAIL_RELAY_URL", "")),
		MailRelayToken:         strings.TrimSpace(getEnv("MAIL_RELAY_TOKEN", "")),
		MailRelayTimeout:       mailTimeout,
		MailRelayFailureCount:  mailFailureCount,
		MailRelayOpenTimeout:   mailOpenTimeout,
		NotifyWorkers:          notifyWorkers,
		SessionSecret:          sessionSecret,
		SessionTTL:             sessionTTL,
		ScraperFeedToken:       strings.TrimSpace(getEnv("SCRAPER_FEED_TOKEN", "")),
		SubscribeRateLimitTTL:  subscribeTTL,
		CORSAllowedOrigins:     splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:           pprofEnabled,
		PprofAddr:              getEnv("PPROF_ADDR", "localhost:6060"),
		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,
		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		LogLevel:               logLevel,
	}, nil
}

func parseAppEnv(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", EnvDev, "development", "local":
		return EnvDev, nil
	case EnvProd, "production":
		return EnvProd, nil
	default:
		return "", fmt.Errorf("unknown APP_ENV %q", raw)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

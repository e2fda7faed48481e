package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Rabbit    RabbitConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Mail      MailConfig
	Directory DirectoryConfig
	SLA       SLAConfig
	Intake    IntakeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitConfig holds the optional event-relay broker settings. An empty URL
// disables the relay.
type RabbitConfig struct {
	URL           string
	Exchange      string
	RetryAttempts int
}

// LoggerConfig configures logging behavior. Format is "json" or "console".
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// MailConfig holds the transactional mail relay's OAuth2 client-credentials
// settings. Notifications are best-effort; a blank TokenURL disables them.
type MailConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	SendURL      string
	From         string
}

// DirectoryConfig holds the identity-directory search adapter settings.
type DirectoryConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	SearchURL    string
}

// SLAConfig tunes the breach watchdog and per-priority due windows.
type SLAConfig struct {
	SweepIntervalSeconds int
	LowHours             int
	MediumHours          int
	HighHours            int
	CriticalHours        int
}

// IntakeConfig tunes the chat intake flow.
type IntakeConfig struct {
	// FourLevelPriorities enables the Critical option in the priority step.
	FourLevelPriorities bool
	ReplyDelayMillis    int
	// ConversationTTLMinutes bounds how long an abandoned conversation is
	// kept in memory before being dropped.
	ConversationTTLMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "district-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Rabbit: RabbitConfig{
			URL:           os.Getenv("RABBIT_URL"),
			Exchange:      getEnv("RABBIT_EXCHANGE", "helpdesk.events"),
			RetryAttempts: getEnvAsInt("RABBIT_RETRY_ATTEMPTS", 5),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Mail: MailConfig{
			TokenURL:     os.Getenv("MAIL_TOKEN_URL"),
			ClientID:     os.Getenv("MAIL_CLIENT_ID"),
			ClientSecret: os.Getenv("MAIL_CLIENT_SECRET"),
			Scope:        getEnv("MAIL_SCOPE", "mail.send"),
			SendURL:      os.Getenv("MAIL_SEND_URL"),
			From:         getEnv("MAIL_FROM", "helpdesk@district.example"),
		},
		Directory: DirectoryConfig{
			TokenURL:     os.Getenv("DIRECTORY_TOKEN_URL"),
			ClientID:     os.Getenv("DIRECTORY_CLIENT_ID"),
			ClientSecret: os.Getenv("DIRECTORY_CLIENT_SECRET"),
			Scope:        getEnv("DIRECTORY_SCOPE", "directory.read"),
			SearchURL:    os.Getenv("DIRECTORY_SEARCH_URL"),
		},
		SLA: SLAConfig{
			SweepIntervalSeconds: getEnvAsInt("SLA_SWEEP_INTERVAL_SECONDS", 300),
			LowHours:             getEnvAsInt("SLA_LOW_HOURS", 72),
			MediumHours:          getEnvAsInt("SLA_MEDIUM_HOURS", 24),
			HighHours:            getEnvAsInt("SLA_HIGH_HOURS", 8),
			CriticalHours:        getEnvAsInt("SLA_CRITICAL_HOURS", 4),
		},
		Intake: IntakeConfig{
			FourLevelPriorities:    getEnvAsBool("INTAKE_FOUR_LEVEL_PRIORITIES", false),
			ReplyDelayMillis:       getEnvAsInt("INTAKE_REPLY_DELAY_MILLIS", 0),
			ConversationTTLMinutes: getEnvAsInt("INTAKE_CONVERSATION_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the watchdog cadence.
func (s SLAConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

// DueWindow returns the SLA window for a priority label.
func (s SLAConfig) DueWindow(priority string) time.Duration {
	hours := s.MediumHours
	switch priority {
	case "Low":
		hours = s.LowHours
	case "High":
		hours = s.HighHours
	case "Critical":
		hours = s.CriticalHours
	}
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// ReplyDelay returns the intake typing pause.
func (i IntakeConfig) ReplyDelay() time.Duration {
	if i.ReplyDelayMillis <= 0 {
		return 0
	}
	return time.Duration(i.ReplyDelayMillis) * time.Millisecond
}

// ConversationTTL returns how long idle conversations are retained.
func (i IntakeConfig) ConversationTTL() time.Duration {
	if i.ConversationTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(i.ConversationTTLMinutes) * time.Minute
}

// Enabled reports whether the mail relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.TokenURL) != "" && strings.TrimSpace(m.SendURL) != ""
}

// Enabled reports whether directory search is configured.
func (d DirectoryConfig) Enabled() bool {
	return strings.TrimSpace(d.TokenURL) != "" && strings.TrimSpace(d.SearchURL) != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mail transports
const (
	MailTransportSES  = "ses"
	MailTransportSMTP = "smtp"
	MailTransportLog  = "log"
)

// Limits holds the per-user rate limits and the character caps shared with
// the client. Character counts are Unicode code points.
type Limits struct {
	MaxPostsPerPeriod     int
	MaxResponsesPerPeriod int
	PeriodDays            int

	MaxNarrationChars int
	MaxQuestionChars  int
	MaxAnswerChars    int
	MaxLocationChars  int

	MaxNarrations   int
	MaxQuestions    int
	MaxPostsPerLoad int

	DefaultQuestion string
}

// Period returns the trailing window used for rate-limited counts
func (l Limits) Period() time.Duration {
	return time.Duration(l.PeriodDays) * 24 * time.Hour
}

// DatabaseConfig describes the postgres connection
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// MailConfig selects and configures the outbound mail transport
type MailConfig struct {
	Transport    string
	FromAddress  string
	FromName     string
	AWSRegion    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// SearchConfig configures the optional Elasticsearch backend
type SearchConfig struct {
	URL      string
	Username string
	Password string
}

// Enabled reports whether Elasticsearch is configured
func (s SearchConfig) Enabled() bool {
	return s.URL != ""
}

// RedisConfig configures the optional Redis connection
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether Redis is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// TelemetryConfig configures OpenTelemetry tracing
type TelemetryConfig struct {
	OTLPEndpoint string
	SamplingRate float64
}

// Enabled reports whether an OTLP endpoint is configured
func (t TelemetryConfig) Enabled() bool {
	return t.OTLPEndpoint != ""
}

// Config is the whole process configuration. It is loaded once in main and
// passed down explicitly.
type Config struct {
	Environment string
	Port        string
	UIDistPath  string
	LogLevel    string
	LogFile     string

	IPRateLimit  int
	IPRateWindow time.Duration

	RequireElasticsearch bool
	RequireRedis         bool

	Database  DatabaseConfig
	Mail      MailConfig
	Search    SearchConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	Limits    Limits
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads .env (if present) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		// Not fatal: production injects the environment directly.
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using system environment variables")
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without touching .env files
func FromEnv() *Config {
	return &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8787"),
		UIDistPath:  os.Getenv("UI_DIST_PATH"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "/tmp/lingxijiao.log"),

		IPRateLimit:  getEnvInt("IP_RATE_LIMIT", 120),
		IPRateWindow: getEnvDuration("IP_RATE_WINDOW", time.Minute),

		RequireElasticsearch: isTruthy(os.Getenv("LINGXIJIAO_REQUIRE_ELASTICSEARCH")),
		RequireRedis:         isTruthy(os.Getenv("LINGXIJIAO_REQUIRE_REDIS")),

		Database: DatabaseConfig{
			URL:          databaseURL(),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
		},
		Mail: MailConfig{
			Transport:    strings.ToLower(getEnvOrDefault("MAIL_TRANSPORT", MailTransportLog)),
			FromAddress:  os.Getenv("APP_EMAIL_ADDRESS"),
			FromName:     getEnvOrDefault("APP_EMAIL_NAME", "灵犀角"),
			AWSRegion:    os.Getenv("AWS_REGION"),
			SMTPHost:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnvOrDefault("SMTP_USERNAME", os.Getenv("APP_EMAIL_ADDRESS")),
			SMTPPassword: getEnvOrDefault("SMTP_PASSWORD", os.Getenv("APP_EMAIL_PASSWORD")),
		},
		Search: SearchConfig{
			URL:      os.Getenv("ELASTICSEARCH_URL"),
			Username: os.Getenv("ELASTICSEARCH_USERNAME"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SamplingRate: getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		Limits: Limits{
			MaxPostsPerPeriod:     getEnvInt("MAX_NUMBER_POST_PER_PERIOD", 3),
			MaxResponsesPerPeriod: getEnvInt("MAX_NUMBER_RESPONSE_PER_PERIOD", 10),
			PeriodDays:            getEnvInt("PERIOD_DAYS_FOR_MAX_NUMBER_CHECK", 7),
			MaxNarrationChars:     getEnvInt("MAX_NARRATION_CHARACTERS", 40),
			MaxQuestionChars:      getEnvInt("MAX_QUESTION_CHARACTERS", 20),
			MaxAnswerChars:        getEnvInt("MAX_ANSWER_CHARACTERS", 40),
			MaxLocationChars:      getEnvInt("MAX_LOCATION_CHARACTERS", 10),
			MaxNarrations:         getEnvInt("MAX_NARRATIONS", 4),
			MaxQuestions:          getEnvInt("MAX_QUESTIONS", 3),
			MaxPostsPerLoad:       getEnvInt("MAX_POSTS_PER_LOAD", 50),
			DefaultQuestion:       strings.TrimSpace(os.Getenv("DEFAULT_QUESTION")),
		},
	}
}

// DefaultLimits returns the limits used when nothing is configured
func DefaultLimits() Limits {
	return Limits{
		MaxPostsPerPeriod:     3,
		MaxResponsesPerPeriod: 10,
		PeriodDays:            7,
		MaxNarrationChars:     40,
		MaxQuestionChars:      20,
		MaxAnswerChars:        40,
		MaxLocationChars:      10,
		MaxNarrations:         4,
		MaxQuestions:          3,
		MaxPostsPerLoad:       50,
	}
}

// Validate checks that limits are usable and the mail transport is known
func (c *Config) Validate() error {
	positive := map[string]int{
		"MAX_NUMBER_POST_PER_PERIOD":       c.Limits.MaxPostsPerPeriod,
		"MAX_NUMBER_RESPONSE_PER_PERIOD":   c.Limits.MaxResponsesPerPeriod,
		"PERIOD_DAYS_FOR_MAX_NUMBER_CHECK": c.Limits.PeriodDays,
		"MAX_NARRATION_CHARACTERS":         c.Limits.MaxNarrationChars,
		"MAX_QUESTION_CHARACTERS":          c.Limits.MaxQuestionChars,
		"MAX_ANSWER_CHARACTERS":            c.Limits.MaxAnswerChars,
		"MAX_LOCATION_CHARACTERS":          c.Limits.MaxLocationChars,
		"MAX_NARRATIONS":                   c.Limits.MaxNarrations,
		"MAX_POSTS_PER_LOAD":               c.Limits.MaxPostsPerLoad,
		"IP_RATE_LIMIT":                    c.IPRateLimit,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	if c.Limits.MaxQuestions < 0 {
		return fmt.Errorf("MAX_QUESTIONS must not be negative, got %d", c.Limits.MaxQuestions)
	}

	switch c.Mail.Transport {
	case MailTransportLog:
	case MailTransportSES:
		if c.Mail.AWSRegion == "" || c.Mail.FromAddress == "" {
			return fmt.Errorf("MAIL_TRANSPORT=ses requires AWS_REGION and APP_EMAIL_ADDRESS")
		}
	case MailTransportSMTP:
		if c.Mail.FromAddress == "" {
			return fmt.Errorf("MAIL_TRANSPORT=smtp requires APP_EMAIL_ADDRESS")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	return nil
}

// databaseURL prefers DATABASE_URL and falls back to individual components
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnvOrDefault("DB_NAME", "lingxijiao"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Content sources the service can analyse.
const (
	SourcePostgres = "postgres"
	SourceReddit   = "reddit"
)

// Config holds all application configuration
type Config struct {
	Environment string `validate:"required"`
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Analysis    AnalysisConfig
	Reddit      RedditConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	MaxConns      int `validate:"min=1"`
	MinConns      int `validate:"min=0,ltefield=MaxConns"`
	MaxLifetime   time.Duration
	SSLMode       string
	RunMigrations bool
}

// ConnString returns the postgres URL for this configuration.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	// Enabled selects NATS for analysis events; otherwise an in-process hub is used.
	Enabled        bool
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// AnalysisConfig holds the default engine parameters and batch scheduling
type AnalysisConfig struct {
	Source               string  `validate:"oneof=postgres reddit"`
	TopN                 int     `validate:"min=1"`
	Threshold            float64 `validate:"gte=0"`
	TopK                 int     `validate:"min=1"`
	MinDepth             int     `validate:"min=1"`
	OrphanPolicy         string  `validate:"oneof=root drop defer"`
	MaxConcurrentBatches int     `validate:"min=1"`
	ScanInterval         time.Duration
	EventsTopic          string `validate:"required"`
}

// RedditConfig holds Reddit content source configuration
type RedditConfig struct {
	BaseURL           string `validate:"url"`
	OAuthBaseURL      string `validate:"url"`
	TokenURL          string `validate:"url"`
	ClientID          string
	ClientSecret      string
	UserAgent         string `validate:"required"`
	Subreddit         string `validate:"required"`
	Limit             int    `validate:"min=1,max=100"`
	Timeout           time.Duration
	RequestsPerMinute int `validate:"min=1"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// Load loads configuration from environment variables, reading a .env file
// first when one is present.
func Load() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			Database:      getEnv("DB_NAME", "tagpulse"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 5),
			MaxLifetime:   getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:       getEnv("DB_SSL_MODE", "disable"),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		NATS: NATSConfig{
			Enabled:        getEnvAsBool("NATS_ENABLED", true),
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Analysis: AnalysisConfig{
			Source:               getEnv("ANALYSIS_SOURCE", SourcePostgres),
			TopN:                 getEnvAsInt("ANALYSIS_TOP_N", 20),
			Threshold:            getEnvAsFloat("ANALYSIS_THRESHOLD", 0.3),
			TopK:                 getEnvAsInt("ANALYSIS_TOP_K", 3),
			MinDepth:             getEnvAsInt("ANALYSIS_MIN_DEPTH", 3),
			OrphanPolicy:         getEnv("ANALYSIS_ORPHAN_POLICY", "root"),
			MaxConcurrentBatches: getEnvAsInt("ANALYSIS_MAX_CONCURRENT_BATCHES", 8),
			ScanInterval:         getEnvAsDuration("ANALYSIS_SCAN_INTERVAL", 0),
			EventsTopic:          getEnv("ANALYSIS_EVENTS_TOPIC", "analysis"),
		},
		Reddit: RedditConfig{
			BaseURL:           getEnv("REDDIT_BASE_URL", "https://www.reddit.com"),
			OAuthBaseURL:      getEnv("REDDIT_OAUTH_BASE_URL", "https://oauth.reddit.com"),
			TokenURL:          getEnv("REDDIT_TOKEN_URL", "https://www.reddit.com/api/v1/access_token"),
			ClientID:          getEnv("REDDIT_CLIENT_ID", ""),
			ClientSecret:      getEnv("REDDIT_CLIENT_SECRET", ""),
			UserAgent:         getEnv("REDDIT_USER_AGENT", "tagpulse/1.0"),
			Subreddit:         getEnv("REDDIT_SUBREDDIT", "news"),
			Limit:             getEnvAsInt("REDDIT_LIMIT", 20),
			Timeout:           getEnvAsDuration("REDDIT_TIMEOUT", 10*time.Second),
			RequestsPerMinute: getEnvAsInt("REDDIT_REQUESTS_PER_MINUTE", 60),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, validate(config)
}

var validate = func() func(Config) error {
	v := validator.New()
	return func(config Config) error {
		if err := v.Struct(config); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if config.Analysis.Threshold > 1 {
			return fmt.Errorf("invalid configuration: analysis threshold %.2f exceeds 1", config.Analysis.Threshold)
		}
		if config.Reddit.ClientID != "" && config.Reddit.ClientSecret == "" {
			return fmt.Errorf("invalid configuration: REDDIT_CLIENT_SECRET must be set with REDDIT_CLIENT_ID")
		}
		return nil
	}
}()

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Companion CompanionConfig
	Otel      OtelConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	FeedLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type CompanionConfig struct {
	Subjects        []string
	ListingPath     string // page that owns the subject filter
	FallbackPath    string // where a failed create lands
	FilterKey       string
	FilterSentinel  string
	DefaultDuration int
	ListCacheTTL    time.Duration
	EventTopic      string // in-process watermill topic
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			FeedLogFilePath:    getEnv("FEED_LOG_FILE_PATH", "logs/feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Companion: CompanionConfig{
			Subjects:        getEnvAsList("COMPANION_SUBJECTS", DefaultSubjects),
			ListingPath:     getEnv("COMPANION_LISTING_PATH", "/companions"),
			FallbackPath:    getEnv("COMPANION_FALLBACK_PATH", "/"),
			FilterKey:       getEnv("COMPANION_FILTER_KEY", "subject"),
			FilterSentinel:  getEnv("COMPANION_FILTER_SENTINEL", "all"),
			DefaultDuration: getEnvAsInt("COMPANION_DEFAULT_DURATION", 15),
			ListCacheTTL:    time.Duration(getEnvAsInt("COMPANION_LIST_CACHE_SECONDS", 60)) * time.Second,
			EventTopic:      getEnv("COMPANION_EVENT_TOPIC", "COMPANION_CREATED"),
		},
		Otel: OtelConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// DefaultSubjects is the subject enumeration offered by the form.
var DefaultSubjects = []string{"maths", "language", "science", "history", "coding", "economics"}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList reads a comma separated list, dropping blank entries.
func getEnvAsList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

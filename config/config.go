package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Notification modes.
const (
	NotifyAlways = "always"
	NotifyHits   = "hits"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// HTML renderers for storefront sources.
const (
	RendererHTTP   = "http"
	RendererChrome = "chrome"
)

// Config holds all application configuration. Credentials and run knobs
// come from the environment; what to search for and the price limits are
// fixed in targets.go.
type Config struct {
	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string
	JinaAPIKey       string

	DBDriver   string
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	NotifyMode        string
	QueryDelayMs      int
	FetchTimeoutSec   int
	MaxAlertLines     int
	CheapestPerBucket int
	IncludeUnpriced   bool
	EnabledSources    []string
	HTMLRenderer      string
	ChromeBin         string
	CSVOutputPath     string
	LogLevel          string

	Targets Targets
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	targets := DefaultTargets()

	return &Config{
		TelegramBotToken: getEnv("BOT_TOKEN", ""),
		TelegramChatID:   getEnv("CHAT_ID", ""),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		JinaAPIKey:       getEnv("JINA_API_KEY", ""),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		SQLitePath: getEnv("SQLITE_PATH", "tirebot.sqlite"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tirebot"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tirebot"),
		PostgresDB:       getEnv("POSTGRES_DB", "tirebot"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		NotifyMode:        strings.ToLower(getEnv("NOTIFY_MODE", NotifyAlways)),
		QueryDelayMs:      getEnvInt("QUERY_DELAY_MS", 1000),
		FetchTimeoutSec:   getEnvInt("FETCH_TIMEOUT_SEC", 30),
		MaxAlertLines:     getEnvInt("MAX_ALERT_LINES", 20),
		CheapestPerBucket: getEnvInt("CHEAPEST_PER_BUCKET", 3),
		IncludeUnpriced:   getEnvBool("INCLUDE_UNPRICED", false),
		EnabledSources:    getEnvList("ENABLED_SOURCES", targets.Sources),
		HTMLRenderer:      strings.ToLower(getEnv("HTML_RENDERER", RendererHTTP)),
		ChromeBin:         getEnv("CHROME_BIN", ""),
		CSVOutputPath:     getEnv("CSV_OUTPUT_PATH", "./output/raw_candidates.csv"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),

		Targets: targets,
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// QueryDelay is the pause after each source query.
func (c *Config) QueryDelay() time.Duration {
	return time.Duration(c.QueryDelayMs) * time.Millisecond
}

// FetchTimeout bounds every outbound fetch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// Validate reports every setting that would make a run pointless.
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.TelegramChatID == "" {
		errs = append(errs, errors.New("CHAT_ID is required"))
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of sqlite, postgres", c.DBDriver))
	}
	switch c.NotifyMode {
	case NotifyAlways, NotifyHits:
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_MODE %q is not one of always, hits", c.NotifyMode))
	}
	switch c.HTMLRenderer {
	case RendererHTTP, RendererChrome:
	default:
		errs = append(errs, fmt.Errorf("HTML_RENDERER %q is not one of http, chrome", c.HTMLRenderer))
	}
	if len(c.Targets.Limits) == 0 {
		errs = append(errs, errors.New("no wheel-size price limits configured"))
	}
	for size := range c.Targets.Limits {
		if !size.Valid() {
			errs = append(errs, fmt.Errorf("price limit for unsupported wheel size %d", int(size)))
		}
	}
	errs = append(errs, c.Targets.checkMeasures()...)
	if len(c.EnabledSources) == 0 {
		errs = append(errs, errors.New("no sources enabled"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/visual-search/internal/constants"
)

// Database drivers accepted in DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Database DatabaseConfig
	Hash     HashConfig
	Search   SearchConfig
	Web      WebConfig
	Log      LogConfig
	Unsplash UnsplashConfig
}

type DatabaseConfig struct {
	Driver       string // postgres or mysql
	URL          string // connection URL (PostgreSQL) or DSN (MySQL/MariaDB)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type HashConfig struct {
	Width  int // reduced grid width (default 8)
	Height int // reduced grid height (default 8)
}

// Bits returns the fingerprint length produced by this configuration.
func (c HashConfig) Bits() int {
	return c.Width * c.Height
}

type SearchConfig struct {
	DefaultLimit      int // results returned when the caller gives no limit
	Workers           int // goroutines used for large catalogs
	ParallelThreshold int // catalog size at which ranking goes parallel
}

type WebConfig struct {
	Host           string
	Port           int
	MaxUploadMB    int
	AllowedOrigins []string // "*" allows every origin
}

// MaxUploadBytes returns the upload limit in bytes.
func (c WebConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// UnsplashConfig is used by bulk seeding to find images by search term.
type UnsplashConfig struct {
	APIURL    string
	AccessKey string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the trimmed env var or defaultVal when it is empty.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma separated env var, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       strings.ToLower(envString("DATABASE_DRIVER", DriverPostgres)),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Hash: HashConfig{
			Width:  envInt("HASH_WIDTH", 8),
			Height: envInt("HASH_HEIGHT", 8),
		},
		Search: SearchConfig{
			DefaultLimit:      envInt("SEARCH_LIMIT", constants.DefaultSearchLimit),
			Workers:           envInt("SEARCH_WORKERS", 4),
			ParallelThreshold: envInt("SEARCH_PARALLEL_THRESHOLD", 2048),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			MaxUploadMB:    envInt("WEB_MAX_UPLOAD_MB", constants.DefaultMaxUploadMB),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envString("LOG_LEVEL", "info")),
			Format: strings.ToLower(envString("LOG_FORMAT", "text")),
		},
		Unsplash: UnsplashConfig{
			APIURL:    strings.TrimSuffix(envString("UNSPLASH_API_URL", "https://api.unsplash.com"), "/"),
			AccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		},
	}
}

// Validate checks values that envInt cannot reject on its own.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q (want %s or %s)", c.Database.Driver, DriverPostgres, DriverMySQL))
	}
	if c.Hash.Bits()%4 != 0 {
		errs = append(errs, fmt.Errorf("HASH_WIDTH*HASH_HEIGHT must be a multiple of 4, got %dx%d", c.Hash.Width, c.Hash.Height))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q (want text or json)", c.Log.Format))
	}
	return errors.Join(errs...)
}

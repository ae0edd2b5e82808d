package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Endpoints are the upstream path prefixes, relative to the API base URL.
type Endpoints struct {
	Auth          string
	Accounts      string
	Transactions  string
	Users         string
	Notifications string
	Employee      string
	Applications  string
}

// Features toggles optional dashboard sections.
type Features struct {
	Notifications  bool
	FundTransfer   bool
	UserManagement bool
	SystemStats    bool
}

// Paths are the portal's navigation targets.
type Paths struct {
	Entry             string
	UserDashboard     string
	EmployeeDashboard string
}

// TokenStore selects and configures persisted token storage.
type TokenStore struct {
	Kind          string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
}

// Config holds the portal configuration.
type Config struct {
	Addr     string
	GRPCAddr string

	AppName    string
	AppVersion string
	Env        string

	APIBaseURL      string
	StorageKey      string
	VerifySecret    string // empty disables signature checks on decoded tokens
	UpstreamTimeout time.Duration

	Endpoints Endpoints
	Features  Features
	Paths     Paths

	ItemsPerPage      int
	MaxTransferAmount float64
	SessionTimeout    time.Duration

	TokenStore TokenStore

	CookieName       string
	CookieSecure     bool
	SessionCacheSize int

	RateBurst  int
	RatePerSec int

	LogLevel     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads the optional .env file and the environment, applying defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		Addr:     getEnv("PORTAL_ADDR", ":3000"),
		GRPCAddr: getEnv("PORTAL_GRPC_ADDR", ""),

		AppName:    getEnv("PORTAL_APP_NAME", "Banking Management System"),
		AppVersion: getEnv("PORTAL_APP_VERSION", "1.0.0"),
		Env:        getEnv("PORTAL_ENV", "development"),

		APIBaseURL:      strings.TrimRight(getEnv("PORTAL_API_BASE_URL", "http://localhost:8080/api"), "/"),
		StorageKey:      getEnv("PORTAL_JWT_STORAGE_KEY", "bank_jwt"),
		VerifySecret:    getEnv("PORTAL_JWT_VERIFY_SECRET", ""),
		UpstreamTimeout: p.duration("PORTAL_UPSTREAM_TIMEOUT", 0),

		Endpoints: Endpoints{
			Auth:          getEnv("PORTAL_AUTH_ENDPOINT", "/auth"),
			Accounts:      getEnv("PORTAL_ACCOUNTS_ENDPOINT", "/accounts"),
			Transactions:  getEnv("PORTAL_TRANSACTIONS_ENDPOINT", "/transactions"),
			Users:         getEnv("PORTAL_USERS_ENDPOINT", "/users"),
			Notifications: getEnv("PORTAL_NOTIFICATIONS_ENDPOINT", "/notifications"),
			Employee:      getEnv("PORTAL_EMPLOYEE_ENDPOINT", "/employee"),
			Applications:  getEnv("PORTAL_APPLICATIONS_ENDPOINT", "/applications"),
		},
		Features: Features{
			Notifications:  p.boolean("PORTAL_ENABLE_NOTIFICATIONS", true),
			FundTransfer:   p.boolean("PORTAL_ENABLE_FUND_TRANSFER", true),
			UserManagement: p.boolean("PORTAL_ENABLE_USER_MANAGEMENT", true),
			SystemStats:    p.boolean("PORTAL_ENABLE_SYSTEM_STATS", true),
		},
		Paths: Paths{
			Entry:             getEnv("PORTAL_ENTRY_PATH", "/"),
			UserDashboard:     getEnv("PORTAL_USER_DASHBOARD_PATH", "/user-dashboard"),
			EmployeeDashboard: getEnv("PORTAL_EMPLOYEE_DASHBOARD_PATH", "/employee-dashboard"),
		},

		ItemsPerPage:      p.integer("PORTAL_ITEMS_PER_PAGE", 10),
		MaxTransferAmount: p.float("PORTAL_MAX_TRANSFER_AMOUNT", 10000),
		SessionTimeout:    p.duration("PORTAL_SESSION_TIMEOUT", 30*time.Minute),

		TokenStore: TokenStore{
			Kind:          strings.ToLower(getEnv("PORTAL_TOKEN_STORE", StoreMemory)),
			Dir:           getEnv("PORTAL_TOKEN_DIR", ""),
			RedisAddr:     getEnv("PORTAL_REDIS_ADDR", ""),
			RedisPassword: getEnv("PORTAL_REDIS_PASSWORD", ""),
			RedisDB:       p.integer("PORTAL_REDIS_DB", 0),
			PostgresDSN:   getEnv("PORTAL_PG_DSN", ""),
		},

		CookieName:       getEnv("PORTAL_COOKIE_NAME", "portal_sid"),
		CookieSecure:     p.boolean("PORTAL_COOKIE_SECURE", false),
		SessionCacheSize: p.integer("PORTAL_SESSION_CACHE_SIZE", 10000),

		RateBurst:  p.integer("PORTAL_RATE_BURST", 20),
		RatePerSec: p.integer("PORTAL_RATE_PER_SEC", 10),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: p.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("PORTAL_API_BASE_URL cannot be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PORTAL_API_BASE_URL %q is not an absolute URL", c.APIBaseURL)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return errors.New("PORTAL_JWT_STORAGE_KEY cannot be empty")
	}
	if c.Addr == "" {
		return errors.New("PORTAL_ADDR cannot be empty")
	}
	if c.SessionCacheSize <= 0 {
		return errors.New("PORTAL_SESSION_CACHE_SIZE must be positive")
	}
	if c.ItemsPerPage <= 0 {
		return errors.New("PORTAL_ITEMS_PER_PAGE must be positive")
	}
	if c.RateBurst <= 0 || c.RatePerSec <= 0 {
		return errors.New("PORTAL_RATE_BURST and PORTAL_RATE_PER_SEC must be positive")
	}
	switch c.TokenStore.Kind {
	case StoreMemory:
	case StoreFile:
		if c.TokenStore.Dir == "" {
			return errors.New("PORTAL_TOKEN_DIR is required for the file token store")
		}
	case StoreRedis:
		if c.TokenStore.RedisAddr == "" {
			return errors.New("PORTAL_REDIS_ADDR is required for the redis token store")
		}
	case StorePostgres:
		if c.TokenStore.PostgresDSN == "" {
			return errors.New("PORTAL_PG_DSN is required for the postgres token store")
		}
	default:
		return fmt.Errorf("unknown PORTAL_TOKEN_STORE %q", c.TokenStore.Kind)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
// KEY_FILE takes precedence and names a file holding the value.
func getEnv(key, fallback string) string {
	if path := os.Getenv(key + "_FILE"); path != "" {
		content, err := os.ReadFile(path)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

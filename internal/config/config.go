// Package config loads server settings from flags, environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limiter backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds every server setting.
type Config struct {
	HTTPAddr    string
	DatabaseURL string

	SupabaseURL      string
	SupabaseAnonKey  string
	ServiceRoleKey   string
	JWTSecret        string
	TurnstileSiteKey string
	AuthAdminRPS     float64
	CORSOrigins      []string
	WorkflowTimeout  time.Duration
	RollbackTimeout  time.Duration
	DraftTTL         time.Duration
	LinkUnconfirmed  bool
	RateLimit        int
	RateWindow       time.Duration
	RateStore        string
	RedisAddr        string
	Migrate          bool
	Dev              bool
	ShutdownTimeout  time.Duration
	MaxBodyBytes     int64
	SweepInterval    time.Duration
}

// Load reads envFile (missing is fine), then parses args with environment-backed defaults.
func Load(args []string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c := &Config{}
	fs := flag.NewFlagSet("supermock-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "addr", getenv("HTTP_ADDR", ":8080"), "listen address")
	fs.StringVar(&c.DatabaseURL, "dsn", getenv("DATABASE_URL", ""), "PostgreSQL DSN")
	fs.StringVar(&c.SupabaseURL, "supabase-url", getenv("SUPABASE_URL", ""), "hosted auth/base URL")
	fs.StringVar(&c.SupabaseAnonKey, "anon-key", getenv("SUPABASE_ANON_KEY", ""), "public anon key served to the dashboard")
	fs.StringVar(&c.ServiceRoleKey, "service-key", getenv("SUPABASE_SERVICE_ROLE_KEY", ""), "service role key for the auth admin API")
	fs.StringVar(&c.JWTSecret, "jwt-secret", getenv("SUPABASE_JWT_SECRET", ""), "HS256 secret used to verify session tokens")
	fs.StringVar(&c.TurnstileSiteKey, "turnstile-site-key", getenv("TURNSTILE_SITE_KEY", ""), "public captcha site key")
	fs.Float64Var(&c.AuthAdminRPS, "auth-admin-rps", getenvFloat("AUTH_ADMIN_RPS", 10), "auth admin API requests per second, 0 = unlimited")
	origins := fs.String("cors-origins", getenv("CORS_ORIGINS", "*"), "comma separated allowed origins")
	fs.DurationVar(&c.WorkflowTimeout, "workflow-timeout", getenvDuration("WORKFLOW_TIMEOUT", 20*time.Second), "provisioning workflow timeout")
	fs.DurationVar(&c.RollbackTimeout, "rollback-timeout", getenvDuration("ROLLBACK_TIMEOUT", 10*time.Second), "compensation timeout")
	fs.DurationVar(&c.DraftTTL, "draft-ttl", getenvDuration("DRAFT_TTL", 12*time.Hour), "idle grading draft expiry")
	fs.BoolVar(&c.LinkUnconfirmed, "link-unconfirmed-orphans", getenvBool("LINK_UNCONFIRMED_ORPHANS", false), "link auth identities with unverified email")
	fs.IntVar(&c.RateLimit, "rate-limit", getenvInt("RATE_LIMIT", 20), "requests per window per principal")
	fs.DurationVar(&c.RateWindow, "rate-window", getenvDuration("RATE_WINDOW", time.Minute), "rate limit window")
	fs.StringVar(&c.RateStore, "rate-store", getenv("RATE_STORE", StoreMemory), "rate limit store: memory|redis|postgres")
	fs.StringVar(&c.RedisAddr, "redis-addr", getenv("REDIS_ADDR", "localhost:6379"), "redis address for the redis rate store")
	fs.BoolVar(&c.Migrate, "migrate", getenvBool("MIGRATE", false), "apply migrations on start")
	fs.BoolVar(&c.Dev, "dev", getenvBool("DEV", false), "development logging")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	fs.Int64Var(&c.MaxBodyBytes, "max-body", 8192, "maximum request body size in bytes")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", time.Minute, "expiry sweep interval for in-memory state")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.CORSOrigins = splitList(*origins)
	return c, nil
}

// Validate reports every missing or inconsistent setting.
func (c *Config) Validate() error {
	var problems []string
	if c.SupabaseURL == "" {
		problems = append(problems, "SUPABASE_URL is required")
	}
	if c.ServiceRoleKey == "" {
		problems = append(problems, "SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "SUPABASE_JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	switch c.RateStore {
	case StoreMemory, StorePostgres:
	case StoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, "REDIS_ADDR is required for the redis rate store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown RATE_STORE %q", c.RateStore))
	}
	if c.RateLimit <= 0 {
		problems = append(problems, "RATE_LIMIT must be positive")
	}
	if c.RateWindow <= 0 {
		problems = append(problems, "RATE_WINDOW must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		problems = append(problems, "max body size must be positive")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if n, err := strconv.Atoi(getenv(key, "")); err == nil {
		return n
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(getenv(key, ""), 64); err == nil {
		return f
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(getenv(key, "")); err == nil {
		return b
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getenv(key, "")); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

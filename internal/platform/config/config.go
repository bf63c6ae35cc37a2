package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server    Server
	Auth      Auth
	PDP       PDP
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	RateLimit RateLimit
	Log       Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Auth configures token issuance and password hashing.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	BcryptCost    int
}

// PDP configures the policy decision point.
type PDP struct {
	Backend          string // cerbos, cedar or openfga
	Host             string
	Port             int
	Timeout          time.Duration
	MaxAttempts      int
	BreakerThreshold int
	BreakerCooldown  time.Duration
	PolicyVersion    string
	PolicyFile       string // cedar only; embedded policies when empty
	Plaintext        bool   // cerbos only; gRPC without TLS
	StoreID          string // openfga only
	ModelID          string // openfga only
	APIToken         string // openfga only
}

// Addr returns host:port.
func (p PDP) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Database configures PostgreSQL. An empty URL selects in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the revocation list backend. An empty URL selects
// the in-memory revocation list.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures audit publishing. No brokers means audit events are logged.
type Kafka struct {
	Brokers     []string
	AuditTopic  string
	AuditBuffer int
}

// RateLimit throttles the public account endpoints per client IP. The
// window is shared through Redis when REDIS_URL is set.
type RateLimit struct {
	AuthRequests int
	AuthWindow   time.Duration
	Disabled     bool
}

// Log configures the structured logger.
type Log struct {
	Level  string
	Format string
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset variables fall back to development defaults; malformed values are errors.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:            p.str("POSTGATE_ADDR", ":8080"),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			// Development default; override in production.
			JWTSigningKey: p.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     p.str("JWT_ISSUER", "postgate"),
			TokenTTL:      p.duration("JWT_TTL", 30*time.Minute),
			BcryptCost:    p.integer("BCRYPT_COST", 12),
		},
		PDP: PDP{
			Backend:          strings.ToLower(p.str("PDP_BACKEND", "cerbos")),
			Host:             p.str("PDP_HOST", "cerbos"),
			Port:             p.integer("PDP_PORT", 3593),
			Timeout:          p.duration("PDP_TIMEOUT", 2*time.Second),
			MaxAttempts:      p.integer("PDP_MAX_ATTEMPTS", 1),
			BreakerThreshold: p.integer("PDP_BREAKER_THRESHOLD", 0),
			BreakerCooldown:  p.duration("PDP_BREAKER_COOLDOWN", 30*time.Second),
			PolicyVersion:    p.str("PDP_POLICY_VERSION", "default"),
			PolicyFile:       p.str("PDP_POLICY_FILE", ""),
			Plaintext:        p.boolean("PDP_PLAINTEXT", true),
			StoreID:          p.str("OPENFGA_STORE_ID", ""),
			ModelID:          p.str("OPENFGA_MODEL_ID", ""),
			APIToken:         p.str("OPENFGA_API_TOKEN", ""),
		},
		Database: Database{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:     p.list("KAFKA_BROKERS"),
			AuditTopic:  p.str("KAFKA_AUDIT_TOPIC", "postgate.audit"),
			AuditBuffer: p.integer("AUDIT_BUFFER", 1024),
		},
		RateLimit: RateLimit{
			AuthRequests: p.integer("RATELIMIT_AUTH_REQUESTS", 20),
			AuthWindow:   p.duration("RATELIMIT_AUTH_WINDOW", time.Minute),
			Disabled:     p.boolean("RATELIMIT_DISABLED", false),
		},
		Log: Log{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", "json"),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.PDP.Backend {
	case "cerbos", "cedar", "openfga":
	default:
		return fmt.Errorf("config: PDP_BACKEND must be cerbos, cedar or openfga, got %q", c.PDP.Backend)
	}
	if c.PDP.Timeout <= 0 {
		return fmt.Errorf("config: PDP_TIMEOUT must be positive")
	}
	if c.PDP.MaxAttempts < 1 {
		return fmt.Errorf("config: PDP_MAX_ATTEMPTS must be at least 1")
	}
	if c.PDP.BreakerThreshold < 0 {
		return fmt.Errorf("config: PDP_BREAKER_THRESHOLD must not be negative")
	}
	if c.PDP.Backend == "openfga" && c.PDP.StoreID == "" {
		return fmt.Errorf("config: OPENFGA_STORE_ID is required for the openfga backend")
	}
	if c.RateLimit.AuthRequests < 0 {
		return fmt.Errorf("config: RATELIMIT_AUTH_REQUESTS must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	return nil
}

// parser records the first malformed variable.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) list(key string) []string {
	raw := p.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

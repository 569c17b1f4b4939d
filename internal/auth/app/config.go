package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
)

const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"

	RevocationDriverDatabase = "database"
	RevocationDriverRedis    = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Issuer                string        `yaml:"issuer" env:"AUTH_ISSUER" env-default:"carservice-auth"`
	AccessTokenTTLMinutes int           `yaml:"access_token_ttl_minutes" env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" env-default:"30"`
	RefreshTokenTTLDays   int           `yaml:"refresh_token_ttl_days" env:"AUTH_REFRESH_TOKEN_TTL_DAYS" env-default:"1"`
	TokenLeeway           time.Duration `yaml:"token_leeway" env:"AUTH_TOKEN_LEEWAY" env-default:"0s"`

	// Key material, inline PEM or a path. Inline wins when both are set.
	PrivateKey     string `yaml:"private_key" env:"AUTH_PRIVATE_KEY"`
	PrivateKeyFile string `yaml:"private_key_file" env:"AUTH_PRIVATE_KEY_FILE"`
	PublicKey      string `yaml:"public_key" env:"AUTH_PUBLIC_KEY"`
	PublicKeyFile  string `yaml:"public_key_file" env:"AUTH_PUBLIC_KEY_FILE"`

	PasswordPepper string `yaml:"password_pepper" env:"AUTH_PASSWORD_PEPPER"`

	DatabaseDriver string `yaml:"database_driver" env:"DATABASE_DRIVER" env-default:"sqlite"`
	DatabaseFile   string `yaml:"database_file" env:"DATABASE_FILE" env-default:"auth.db"`
	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL"`

	RevocationDriver string `yaml:"revocation_driver" env:"REVOCATION_DRIVER" env-default:"database"`
	RedisAddr        string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword    string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB          int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`

	// Optional: first admin, created only while the user directory is empty.
	BootstrapAdminEmail    string `yaml:"bootstrap_admin_email" env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password" env:"BOOTSTRAP_ADMIN_PASSWORD"`

	// Requests per minute for each rate limit profile.
	RateLimitCredential int `yaml:"ratelimit_credential" env:"RATELIMIT_CREDENTIAL_REQUESTS" env-default:"10"`
	RateLimitUser       int `yaml:"ratelimit_user" env:"RATELIMIT_USER_REQUESTS" env-default:"60"`
	RateLimitPublic     int `yaml:"ratelimit_public" env:"RATELIMIT_PUBLIC_REQUESTS" env-default:"600"`

	// Proxies (addresses or CIDRs) whose X-Forwarded-For is believed when
	// keying per-IP limits. Empty means the peer address is used as is.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`

	Env                  string        `yaml:"env" env:"ENV" env-default:"dev"`
	LogLevel             string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat            string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	Port                 int           `yaml:"port" env:"PORT" env-default:"8080"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL" env-default:"1h"`
}

// LoadConfig reads the optional YAML file at path, then the environment,
// which overrides the file.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Issuer == "" {
		add("AUTH_ISSUER must not be empty")
	}
	if c.AccessTokenTTLMinutes <= 0 {
		add("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", c.AccessTokenTTLMinutes)
	}
	if c.RefreshTokenTTLDays <= 0 {
		add("AUTH_REFRESH_TOKEN_TTL_DAYS must be positive, got %d", c.RefreshTokenTTLDays)
	}
	if c.TokenLeeway < 0 {
		add("AUTH_TOKEN_LEEWAY must not be negative")
	}

	switch c.DatabaseDriver {
	case DatabaseDriverSQLite:
		if c.DatabaseFile == "" {
			add("DATABASE_FILE is required for the sqlite driver")
		}
	case DatabaseDriverPostgres:
		if c.DatabaseURL == "" {
			add("DATABASE_URL is required for the postgres driver")
		}
	default:
		add("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.RevocationDriver {
	case RevocationDriverDatabase:
	case RevocationDriverRedis:
		if c.RedisAddr == "" {
			add("REDIS_ADDR is required for the redis revocation driver")
		}
	default:
		add("unknown REVOCATION_DRIVER %q", c.RevocationDriver)
	}

	if (c.BootstrapAdminEmail == "") != (c.BootstrapAdminPassword == "") {
		add("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	if c.RateLimitCredential <= 0 || c.RateLimitUser <= 0 || c.RateLimitPublic <= 0 {
		add("rate limits must be positive")
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		add("TRUSTED_PROXIES: %v", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		add("PORT out of range: %d", c.Port)
	}

	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func perMinute(n int) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute, Burst: n}
}

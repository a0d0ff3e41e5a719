package config

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Invite   InviteConfig
	Session  SessionConfig
	Notifx   NotifxConfig
	Jobx     JobxConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// StoreConfig selects the identity store: "postgres" or "memory".
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig is optional. An empty host disables the job queue and the
// identity cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

func (r RedisConfig) Enabled() bool   { return r.Host != "" }
func (r RedisConfig) Address() string { return fmt.Sprintf("%s:%d", r.Host, r.Port) }

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	SessionSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
	CookieName    string
	CookieSecure  bool
}

type InviteConfig struct {
	TTL       time.Duration
	AcceptURL string
}

type SessionConfig struct {
	SweepInterval time.Duration
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	env := getEnv("APP_ENV", EnvDevelopment)
	production := env == EnvProduction

	accessTTL := 12 * time.Hour
	if production {
		accessTTL = 15 * time.Minute
	}

	cfg := &Config{
		Env: env,
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{Driver: getEnv("STORE_DRIVER", "postgres")},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "propcore"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", devSecret(production, "dev-access-secret")),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", devSecret(production, "dev-refresh-secret")),
			SessionSecret: getEnv("SESSION_HASH_SECRET", devSecret(production, "dev-session-secret")),
			Issuer:        getEnv("JWT_ISSUER", "propcore"),
			AccessTTL:     getEnvDuration("JWT_ACCESS_TTL", accessTTL),
			RefreshTTL:    getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			BcryptCost:    getEnvInt("BCRYPT_COST", 12),
			CookieName:    getEnv("REFRESH_COOKIE_NAME", "refreshToken"),
			CookieSecure:  getEnvBool("REFRESH_COOKIE_SECURE", production),
		},
		Invite: InviteConfig{
			TTL:       getEnvDuration("INVITE_TTL", 7*24*time.Hour),
			AcceptURL: getEnv("INVITE_ACCEPT_URL", "http://localhost:3000/invites"),
		},
		Session: SessionConfig{
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		Notifx: loadNotifxConfig(),
		Jobx:   loadJobxConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func devSecret(production bool, value string) string {
	if production {
		return ""
	}
	return value
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	a := c.Auth
	switch {
	case a.AccessSecret == "" || a.RefreshSecret == "" || a.SessionSecret == "":
		return errx.Validation("JWT_ACCESS_SECRET, JWT_REFRESH_SECRET and SESSION_HASH_SECRET are required")
	case a.AccessSecret == a.RefreshSecret:
		return errx.Validation("access and refresh token secrets must differ")
	case a.AccessTTL <= 0 || a.RefreshTTL <= 0:
		return errx.Validation("token lifetimes must be positive")
	}
	if c.Store.Driver != "postgres" && c.Store.Driver != "memory" {
		return errx.Validation("STORE_DRIVER must be postgres or memory").WithDetail("driver", c.Store.Driver)
	}
	if c.IsProduction() && c.Store.Driver == "memory" {
		return errx.Validation("the memory store is not allowed in production")
	}
	return nil
}

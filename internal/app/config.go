package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. CASEINTAKE_SERVER_PORT.
const EnvPrefix = "CASEINTAKE"

// Config represents the runtime configuration for the case intake service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	Environment     string          `mapstructure:"environment"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string        `mapstructure:"trusted_proxies"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// IsProduction reports whether the server runs with production defaults.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

// RateLimitConfig bounds public intake requests per client IP. Backend is
// "memory" for a process-local counter or "database" to share counters
// between instances.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Backend  string        `mapstructure:"backend"`
}

// UsesDatabase reports whether counters live in the primary database.
func (c RateLimitConfig) UsesDatabase() bool {
	return strings.EqualFold(strings.TrimSpace(c.Backend), "database")
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Name     string            `mapstructure:"name"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT     JWTSettings       `mapstructure:"jwt"`
	Session SessionSettings   `mapstructure:"session"`
	Local   LocalAuthSettings `mapstructure:"local"`
	Admin   AdminSettings     `mapstructure:"admin"`
}

// JWTSettings configures the signed session token.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// SessionSettings configures the session cookie.
type SessionSettings struct {
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
	SameSite   string `mapstructure:"same_site"`
	Domain     string `mapstructure:"domain"`
}

// LocalAuthSettings defines controls for the local auth provider.
type LocalAuthSettings struct {
	LockoutThreshold int           `mapstructure:"lockout_threshold"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`
}

// AdminSettings seeds the admin account on first start.
type AdminSettings struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// StorageConfig selects where resume payloads are kept.
type StorageConfig struct {
	Driver           string   `mapstructure:"driver"`
	Path             string   `mapstructure:"path"`
	MaxUploadBytes   int64    `mapstructure:"max_upload_bytes"`
	InspectDocuments bool     `mapstructure:"inspect_documents"`
	S3               S3Config `mapstructure:"s3"`
}

// S3Config holds object storage credentials. Endpoint enables S3 compatible
// providers such as R2 or MinIO.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig controls the background lead reporter.
type MaintenanceConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Schedule   string        `mapstructure:"schedule"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.rate_limit.requests", 30)
	v.SetDefault("server.rate_limit.window", "1m")
	v.SetDefault("server.rate_limit.backend", "memory")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/caseintake.sqlite")

	v.SetDefault("auth.jwt.issuer", "caseintake")
	v.SetDefault("auth.jwt.ttl", "168h") // 7 days
	v.SetDefault("auth.session.cookie_name", "token")
	v.SetDefault("auth.session.secure", false)
	v.SetDefault("auth.session.same_site", "lax")
	v.SetDefault("auth.local.lockout_threshold", 5)
	v.SetDefault("auth.local.lockout_duration", "15m")
	v.SetDefault("auth.admin.name", "Admin User")

	v.SetDefault("storage.driver", "database")
	v.SetDefault("storage.path", "./data/resumes")
	v.SetDefault("storage.max_upload_bytes", 10<<20)
	v.SetDefault("storage.inspect_documents", true)
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.prefix", "resumes/")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@every 5m")
	v.SetDefault("maintenance.stale_after", "72h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

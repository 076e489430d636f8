package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	Timezone            string
	Location            *time.Location
	CORSAllowOrigins    string
	DatabaseDriver      string
	DatabaseURL         string
	RedisURL            string
	ReportCacheTTL      time.Duration
	JWTSecret           string
	JWTTTL              time.Duration
	LoginRateLimit      int
	NATSURL             string
	NATSSubjectPrefix   string
	BootstrapTelegramID int64
	BootstrapPhone      string
	BootstrapName       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// HasBootstrapAdmin reports whether an administrator should be ensured on start.
func (c Config) HasBootstrapAdmin() bool {
	return c.BootstrapPhone != ""
}

// Load reads configuration values from environment variables and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DAVOMAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Davomat API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.timezone", "Asia/Tashkent")
	v.SetDefault("app.cors_origins", "*")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("reports.cache_ttl", "5m")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("nats.subject_prefix", "davomat")

	cacheTTL, err := time.ParseDuration(v.GetString("reports.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reports cache ttl: %w", err)
	}

	jwtTTL, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	timezone := v.GetString("app.timezone")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		Timezone:            timezone,
		Location:            location,
		CORSAllowOrigins:    v.GetString("app.cors_origins"),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		ReportCacheTTL:      cacheTTL,
		JWTSecret:           v.GetString("jwt.secret"),
		JWTTTL:              jwtTTL,
		LoginRateLimit:      v.GetInt("auth.login_rate_limit"),
		NATSURL:             v.GetString("nats.url"),
		NATSSubjectPrefix:   v.GetString("nats.subject_prefix"),
		BootstrapTelegramID: v.GetInt64("bootstrap.admin_telegram_id"),
		BootstrapPhone:      v.GetString("bootstrap.admin_phone"),
		BootstrapName:       v.GetString("bootstrap.admin_name"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

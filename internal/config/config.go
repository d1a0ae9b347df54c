package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Log
		Telemetry
		Covers
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Driver string // postgres or sqlite3
		URL    string
	}
	Auth struct {
		JWTSecret          string
		JWTIssuer          string
		JWTTTL             time.Duration
		BcryptCost         int
		LoginRatePerMinute int
		LoginRateBurst     int
	}
	Log struct {
		Level  string
		Format string // console or json
	}
	Telemetry struct {
		OTLPEndpoint string // empty disables trace and metric export
	}
	Covers struct {
		FetchTimeout time.Duration
		MaxBytes     int64
	}
	Global struct {
		ShutdownTimeout time.Duration
	}
)

// NewConfig reads the configuration from the environment.
func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("database_driver", "postgres")
	v.SetDefault("database_url", "host=localhost port=5432 user=library password=library dbname=library sslmode=disable")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "libraryhub")
	v.SetDefault("jwt_ttl", "60m")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("login_rate_per_minute", 30)
	v.SetDefault("login_rate_burst", 10)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("otel_exporter_otlp_endpoint", "")

	v.SetDefault("cover_fetch_timeout", "10s")
	v.SetDefault("cover_max_bytes", 5<<20)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Driver: v.GetString("DATABASE_DRIVER"),
			URL:    v.GetString("DATABASE_URL"),
		},
		Auth: Auth{
			JWTSecret:          v.GetString("JWT_SECRET"),
			JWTIssuer:          v.GetString("JWT_ISSUER"),
			JWTTTL:             v.GetDuration("JWT_TTL"),
			BcryptCost:         v.GetInt("BCRYPT_COST"),
			LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
			LoginRateBurst:     v.GetInt("LOGIN_RATE_BURST"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Telemetry: Telemetry{
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Covers: Covers{
			FetchTimeout: v.GetDuration("COVER_FETCH_TIMEOUT"),
			MaxBytes:     v.GetInt64("COVER_MAX_BYTES"),
		},
		Global: Global{
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
	}
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Auth.LoginRatePerMinute <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MINUTE must be positive"))
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite3" {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.Database.Driver))
	}
	return errors.Join(errs...)
}

package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"  // log is used to report configuration errors and halt execution
	"time" // token lifetimes are expressed as durations

	"github.com/caarlos0/env/v11" // struct-tag driven env parsing
	"github.com/joho/godotenv"    // optional .env file support for local runs
	"golang.org/x/crypto/bcrypt"  // cost bounds for password hashing
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and database coordinates are required;
// everything else has a development-friendly default.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`   // application environment (e.g. "dev", "prod")
	Port string `env:"APP_PORT" envDefault:"8000"` // HTTP port to listen on

	DBUser string `env:"DB_USER,required"`          // database username
	DBPass string `env:"DB_PASS"`                   // database password (optional)
	DBHost string `env:"DB_HOST,required"`          // database host address
	DBPort string `env:"DB_PORT" envDefault:"3306"` // database port number
	DBName string `env:"DB_NAME,required"`          // database name

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`  // signs access tokens
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`   // access token lifetime
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"` // signs refresh tokens
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"` // refresh token lifetime
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`            // bcrypt cost factor

	CORSOrigins  []string `env:"CORS_ORIGIN" envSeparator:"," envDefault:"http://localhost:3000"`
	CookieSecure bool     `env:"COOKIE_SECURE" envDefault:"true"` // Secure flag on session cookies
	BodyLimit    string   `env:"BODY_LIMIT" envDefault:"16KB"`    // max JSON body size
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then parses and validates the
// environment.  Missing or invalid values cause the program to exit with
// a fatal log message.
func Load() Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from the current environment without exiting.
func Parse() (Config, error) {
	var cfg Config
	if err := parseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that tags cannot express.
func (c Config) Validate() error {
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	if c.AccessTokenExpiry >= c.RefreshTokenExpiry {
		return errors.New("ACCESS_TOKEN_EXPIRY must be shorter than REFRESH_TOKEN_EXPIRY")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// parseEnv wraps env.Parse so every loader reports errors the same way.
func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// mustParse is used by the secondary loaders, which only carry defaults
// and optional values; a parse failure there means a malformed value.
func mustParse(target any) {
	if err := parseEnv(target); err != nil {
		log.Fatalf("config: %v", err)
	}
}

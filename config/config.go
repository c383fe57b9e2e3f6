package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	defaultDSN       = "host=localhost user=postgres password=postgres dbname=cafe port=5432 sslmode=disable"
	developmentKey   = "cafefinder-development-secret"
	releaseMode      = "release"
	minSecretKeySize = 16
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string        `env:"PORT,default=8083"`
	GinMode        string        `env:"GIN_MODE,default=debug"`
	DatabaseDSN    string        `env:"DATABASE_DSN"`
	SecretKey      string        `env:"SECRET_KEY"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS"`
	UploadDir      string        `env:"UPLOAD_DIR,default=./uploads"`
	SessionTTL     time.Duration `env:"SESSION_TTL,default=24h"`
	SecureCookies  bool          `env:"SECURE_COOKIES,default=false"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	LogFormat      string        `env:"LOG_FORMAT,default=text"`
	AuthRateLimit  float64       `env:"AUTH_RATE_LIMIT,default=1"`
	AuthRateBurst  int           `env:"AUTH_RATE_BURST,default=5"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDSN
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Release reports whether gin should run in release mode.
func (c Config) Release() bool {
	return c.GinMode == releaseMode
}

// Origins returns the CORS origins; localhost:3000 is always allowed.
func (c Config) Origins() []string {
	origins := []string{"http://localhost:3000"}
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// UsesDevelopmentKey reports whether SECRET_KEY was missing and the built-in key is in use.
func (c Config) UsesDevelopmentKey() bool {
	return c.SecretKey == developmentKey
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		if c.Release() {
			return errors.New("SECRET_KEY is required in release mode")
		}
		c.SecretKey = developmentKey
	}
	if len(c.SecretKey) < minSecretKeySize {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeySize)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return nil
}

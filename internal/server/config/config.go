// Package config handles configuration for the server, layering defaults,
// an optional JSON file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophbooks/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAccessTokenValidityDuration is how long an issued access token stays
// valid unless configured otherwise.
const DefaultAccessTokenValidityDuration = 15 * 24 * time.Hour

var (
	ErrMissingSecretKey = errors.New("secret key is not configured")
	ErrInvalidSetting   = errors.New("invalid setting")
)

// Config holds runtime settings for the gophbooks server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the REST API.
//   - EndpointAddrGRPC: bind address of the gRPC health endpoint.
//   - DatabaseDSN: postgres:// URL (pgx) or SQLite DSN/file path.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Required.
//   - AccessTokenValidityDuration: lifetime of issued access tokens.
//   - PasswordHashAlgorithm / BcryptCost: how new passwords are hashed.
//   - CrossOrigins: CORS allowlist; empty disables CORS headers.
//   - ConstantTimeLogin: verify against a dummy hash for unknown emails.
type Config struct {
	EndpointAddrHTTP            string        `env:"HTTP_ADDRESS"`
	EndpointAddrGRPC            string        `env:"GRPC_ADDRESS"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	SecretKey                   string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_VALIDITY_DURATION"`
	PasswordHashAlgorithm       string        `env:"PASSWORD_HASH_ALGORITHM"`
	BcryptCost                  int           `env:"BCRYPT_COST"`
	CrossOrigins                []string      `env:"CROSS_ORIGINS" envSeparator:";"`
	ConstantTimeLogin           bool          `env:"CONSTANT_TIME_LOGIN"`
	LogLevel                    string        `env:"LOG_LEVEL"`
	ShutdownTimeout             time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadDefaults populates Config with development defaults. There is no
// default secret key: it must come from the JSON file, SECRET_KEY or -s.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "data/gophbooks.db"
	c.AccessTokenValidityDuration = DefaultAccessTokenValidityDuration
	c.PasswordHashAlgorithm = cryptox.AlgorithmBcrypt
	c.BcryptCost = 10
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}

	switch c.PasswordHashAlgorithm {
	case "", cryptox.AlgorithmBcrypt, cryptox.AlgorithmArgon2id:
	default:
		return fmt.Errorf("%w: password hash algorithm %q", ErrInvalidSetting, c.PasswordHashAlgorithm)
	}

	// zero selects bcrypt.DefaultCost
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("%w: bcrypt cost %d outside %d..%d", ErrInvalidSetting, c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.AccessTokenValidityDuration < 0 {
		return fmt.Errorf("%w: negative access token validity %s", ErrInvalidSetting, c.AccessTokenValidityDuration)
	}

	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}

	return cfg, nil
}

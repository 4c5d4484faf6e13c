package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/cryptox"
	"github.com/aussiebroadwan/fortress/pkg/totpx"
	"github.com/caarlos0/env/v11"
)

// ConfigFileEnv names an optional JSON file with the same keys as Config's
// json tags. Environment variables win over the file.
const ConfigFileEnv = "IDENTITY_CONFIG"

// Lower bounds for an online password store.
const (
	MinSecretBytes     = 32
	MinHashTime        = 1
	MinHashMemoryKB    = 19456
	MinHashParallelism = 1
)

type Config struct {
	JWTSecret        string   `env:"JWT_SECRET" json:"jwtSecret"`                          // Required: HS256 key, at least 32 bytes
	JWTIssuer        string   `env:"JWT_ISSUER" json:"jwtIssuer"`                          // default: fortress-identity
	JWTAudience      []string `env:"JWT_AUDIENCE" envSeparator:"," json:"jwtAudience"`     // default: fortress
	JWTExpiryMinutes int      `env:"JWT_EXPIRY_MINUTES" json:"jwtExpiryMinutes"`           // default: 60

	HashTime        uint32 `env:"HASH_TIME"        json:"hashTime"`        // default: 4
	HashMemoryKB    uint32 `env:"HASH_MEMORY_KB"   json:"hashMemoryKB"`    // default: 65536
	HashParallelism uint8  `env:"HASH_PARALLELISM" json:"hashParallelism"` // default: 4
	PepperFile      string `env:"PEPPER_FILE"      json:"pepperFile"`      // Optional: created on first start

	MFAIssuer string `env:"MFA_ISSUER" json:"mfaIssuer"` // default: FortressIdentity
	MFASkew   *uint  `env:"MFA_SKEW"   json:"mfaSkew"`   // default: 1, 0 is allowed

	DatabaseFile        string   `env:"DATABASE_FILE"         json:"databaseFile"`        // default: identity.db
	Env                 string   `env:"ENV"                   json:"env"`                 // default: dev
	LogLevel            string   `env:"LOG_LEVEL"             json:"logLevel"`            // default: info
	LogFormat           string   `env:"LOG_FORMAT"            json:"logFormat"`           // default: json
	Port                int      `env:"PORT"                  json:"port"`                // default: 8080
	ShutdownGracePeriod Duration `env:"SHUTDOWN_GRACE_PERIOD" json:"shutdownGracePeriod"` // default: 10s
	BootstrapAdminEmail string   `env:"BOOTSTRAP_ADMIN_EMAIL" json:"bootstrapAdminEmail"` // Optional
}

// Duration reads "10s" style values from both env and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func DefaultConfig() Config {
	skew := uint(1)
	return Config{
		JWTIssuer:           "fortress-identity",
		JWTAudience:         []string{"fortress"},
		JWTExpiryMinutes:    60,
		HashTime:            4,
		HashMemoryKB:        64 * 1024,
		HashParallelism:     4,
		MFAIssuer:           "FortressIdentity",
		MFASkew:             &skew,
		DatabaseFile:        "identity.db",
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: Duration(10 * time.Second),
	}
}

// LoadConfig layers environment over the optional config file over
// DefaultConfig and validates the result.
func LoadConfig() (Config, error) {
	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}

	layers := []Config{fromEnv}
	if path := os.Getenv(ConfigFileEnv); path != "" {
		fromFile, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		layers = append(layers, fromFile)
	}
	layers = append(layers, DefaultConfig())

	return mergeConfig(layers...)
}

// mergeConfig fills each zero field from the first layer that sets it. A
// non-nil pointer counts as set, so MFA_SKEW=0 survives.
func mergeConfig(layers ...Config) (Config, error) {
	var cfg Config
	for _, l := range layers {
		if err := mergo.Merge(&cfg, l, mergo.WithoutDereference); err != nil {
			return Config{}, fmt.Errorf("merge config: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

func readConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < MinSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretBytes))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}
	if len(c.JWTAudience) == 0 {
		errs = append(errs, errors.New("JWT_AUDIENCE is required"))
	}
	if c.JWTExpiryMinutes <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_MINUTES must be positive"))
	}
	if c.HashTime < MinHashTime {
		errs = append(errs, fmt.Errorf("HASH_TIME must be at least %d", MinHashTime))
	}
	if c.HashMemoryKB < MinHashMemoryKB {
		errs = append(errs, fmt.Errorf("HASH_MEMORY_KB must be at least %d", MinHashMemoryKB))
	}
	if c.HashParallelism < MinHashParallelism {
		errs = append(errs, fmt.Errorf("HASH_PARALLELISM must be at least %d", MinHashParallelism))
	}
	if c.MFAIssuer == "" {
		errs = append(errs, errors.New("MFA_ISSUER is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) HashParams() cryptox.Params {
	p := cryptox.DefaultParams()
	p.Time = c.HashTime
	p.MemoryKB = c.HashMemoryKB
	p.Parallelism = c.HashParallelism
	return p
}

func (c Config) TOTPOptions() totpx.Options {
	opts := totpx.DefaultOptions()
	if c.MFASkew != nil {
		opts.Skew = *c.MFASkew
	}
	return opts
}

func (c Config) TokenConfig() service.TokenConfig {
	return service.TokenConfig{
		Issuer:   c.JWTIssuer,
		Audience: c.JWTAudience,
		TTL:      time.Duration(c.JWTExpiryMinutes) * time.Minute,
	}
}

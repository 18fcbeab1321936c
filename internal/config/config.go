package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	AlgodServer   string `env:"ALGOD_SERVER,required"`
	AlgodToken    string `env:"ALGOD_TOKEN"`
	IndexerServer string `env:"INDEXER_SERVER"`
	IndexerToken  string `env:"INDEXER_TOKEN"`
	Network       string `env:"NETWORK" envDefault:"testnet"`

	FeeBps           uint64 `env:"FEE_BPS" envDefault:"150"`
	TreasuryMnemonic string `env:"TREASURY_MNEMONIC,required,unset"`

	VaultClient       string `env:"VAULT_CLIENT" envDefault:"Vault"`
	VaultContractsDir string `env:"VAULT_CONTRACTS_DIR" envDefault:"contracts"`
	VaultAppID        string `env:"VAULT_APP_ID"`

	DBDriver string `env:"DB_DRIVER" envDefault:"postgres"`
	DBDSN    string `env:"DB_DSN"`

	BadgerDir string `env:"BADGER_DIR"`

	JWTSecret    string        `env:"JWT_SECRET,required,unset"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ChallengeTTL time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads PAYDAY_* variables from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: "PAYDAY_"})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: "PAYDAY_", Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FeeBps > 10000 {
		return fmt.Errorf("fee bps %d out of range 0..10000", c.FeeBps)
	}

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	case DriverSQLite:
		if c.DBDSN == "" {
			c.DBDSN = "file::memory:?cache=shared"
		}
	default:
		return fmt.Errorf("unknown db driver %q (allowed: postgres, sqlite)", c.DBDriver)
	}

	if c.SessionTTL <= 0 || c.ChallengeTTL <= 0 {
		return errors.New("session and challenge ttl must be positive")
	}
	return nil
}

// IndexerEnabled reports whether transaction history can be served.
func (c *Config) IndexerEnabled() bool {
	return strings.TrimSpace(c.IndexerServer) != ""
}

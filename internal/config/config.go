// Package config reads and writes kassabok.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name in a company directory.
const FileName = "kassabok.yaml"

// Storage drivers.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Audit sinks.
const (
	AuditCSV   = "csv"
	AuditMongo = "mongo"
)

// Config represents the top-level kassabok.yaml configuration.
type Config struct {
	Company   CompanyConfig   `yaml:"company"`
	Fiscal    FiscalConfig    `yaml:"fiscal"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Storage   StorageConfig   `yaml:"storage"`
	Audit     AuditConfig     `yaml:"audit"`
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

// CompanyConfig identifies the company.
type CompanyConfig struct {
	ID         string `yaml:"id,omitempty"` // row scope in the postgres store
	Name       string `yaml:"name"`
	OrgNumber  string `yaml:"org_number"`
	Form       string `yaml:"form"` // e.g. "aktiebolag"
	PostalCode string `yaml:"postal_code,omitempty"`
	City       string `yaml:"city,omitempty"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// LedgerConfig controls verification numbering.
type LedgerConfig struct {
	Series string `yaml:"series"`
}

// StorageConfig selects where verifications are kept. DSN may reference
// environment variables, e.g. "${KASSABOK_DSN}".
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn,omitempty"`
}

// AuditConfig selects where assistant actions are logged.
type AuditConfig struct {
	Sink string `yaml:"sink"`
	URI  string `yaml:"uri,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AssistantConfig tunes the chat assistant.
type AssistantConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	ChunkDelay  time.Duration `yaml:"chunk_delay"`
	ChunkSize   int           `yaml:"chunk_size"`
	MaxHandoffs int           `yaml:"max_handoffs"`

	// ActionTTL is how long a proposed booking waits for confirmation.
	ActionTTL time.Duration `yaml:"action_ttl"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development,omitempty"`
}

// Load reads a kassabok.yaml file from disk and expands environment
// variables in connection strings.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Storage.DSN = os.ExpandEnv(cfg.Storage.DSN)
	cfg.Audit.URI = os.ExpandEnv(cfg.Audit.URI)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new company.
func Default(name, orgNumber, form string) *Config {
	if form == "" {
		form = "aktiebolag"
	}
	return &Config{
		Company: CompanyConfig{
			Name:      name,
			OrgNumber: orgNumber,
			Form:      form,
		},
		Fiscal:  FiscalConfig{YearStart: "01-01"},
		Ledger:  LedgerConfig{Series: "A"},
		Storage: StorageConfig{Driver: StorageFile},
		Audit:   AuditConfig{Sink: AuditCSV},
		Server:  ServerConfig{Addr: ":8080"},
		Assistant: AssistantConfig{
			Timeout:     30 * time.Second,
			ChunkDelay:  20 * time.Millisecond,
			ChunkSize:   24,
			MaxHandoffs: 3,
			ActionTTL:   15 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// FiscalStart returns the month and day the fiscal year starts on.
func (c *Config) FiscalStart() (time.Month, int, error) {
	t, err := time.Parse("01-02", c.Fiscal.YearStart)
	if err != nil {
		return 0, 0, fmt.Errorf("fiscal.year_start %q: want MM-DD", c.Fiscal.YearStart)
	}
	return t.Month(), t.Day(), nil
}

// Validate reports every inconsistent setting.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := c.FiscalStart(); err != nil {
		errs = append(errs, err)
	}
	if s := c.Ledger.Series; len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		errs = append(errs, fmt.Errorf("ledger.series %q: want one letter A-Z", s))
	}
	switch c.Storage.Driver {
	case StorageFile:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
		if c.Company.ID == "" {
			errs = append(errs, errors.New("company.id is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: want %s or %s", c.Storage.Driver, StorageFile, StoragePostgres))
	}
	switch c.Audit.Sink {
	case AuditCSV:
	case AuditMongo:
		if c.Audit.URI == "" {
			errs = append(errs, errors.New("audit.uri is required for mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("audit.sink %q: want %s or %s", c.Audit.Sink, AuditCSV, AuditMongo))
	}
	if c.Assistant.Timeout < 0 || c.Assistant.ChunkDelay < 0 || c.Assistant.ActionTTL < 0 {
		errs = append(errs, errors.New("assistant durations must not be negative"))
	}
	return errors.Join(errs...)
}

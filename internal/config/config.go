package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all recibi configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Beneficiary spreadsheet layout
	Data DataConfig `yaml:"data"`

	// Aid catalog override
	Catalog CatalogConfig `yaml:"catalog"`

	// Co-payment rule
	Copay CopayConfig `yaml:"copay"`

	// Template and output
	Receipt ReceiptConfig `yaml:"receipt"`

	// Issued-receipt journal
	Journal JournalConfig `yaml:"journal"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`
}

// CatalogConfig points at a replacement catalog YAML. Empty uses the
// catalog embedded in the binary.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// CopayConfig configures the co-payment deduction.
type CopayConfig struct {
	Rate  string   `yaml:"rate"`  // decimal fraction, e.g. "0.15"
	Codes []string `yaml:"codes"` // aid codes subject to co-payment
}

// ReceiptConfig configures template rendering.
type ReceiptConfig struct {
	Template   string `yaml:"template"`
	OutputDir  string `yaml:"output_dir"`
	ChildLabel string `yaml:"child_label"`
	OpenAfter  bool   `yaml:"open_after"`
}

// JournalConfig configures the SQLite register of issued receipts.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "recibi",
		Version: "1.0.0",

		Data: DefaultDataConfig(),

		Copay: CopayConfig{
			Rate:  "0.15",
			Codes: []string{"ATSANGA", "ATSANTDE"},
		},

		Receipt: ReceiptConfig{
			Template:   "plantilla_recibo.docx",
			OutputDir:  ".",
			ChildLabel: "Hijo/a",
			OpenAfter:  false,
		},

		Journal: JournalConfig{
			Enabled: true,
			Path:    ".recibi/journal.db",
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},

		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// DefaultConfigPath returns the workspace-relative config location.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(workspace, ".recibi", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("RECIBI_DATA"); path != "" {
		c.Data.Path = path
	}
	if path := os.Getenv("RECIBI_TEMPLATE"); path != "" {
		c.Receipt.Template = path
	}
	if dir := os.Getenv("RECIBI_OUTPUT_DIR"); dir != "" {
		c.Receipt.OutputDir = dir
	}
	if path := os.Getenv("RECIBI_JOURNAL"); path != "" {
		c.Journal.Path = path
		c.Journal.Enabled = true
	}
}

// ValidPaymentMethods lists the payment methods a receipt may carry.
var ValidPaymentMethods = []string{"Efectivo", "Banco"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Receipt.Template) == "" {
		return fmt.Errorf("receipt template not configured (set receipt.template or RECIBI_TEMPLATE)")
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return fmt.Errorf("journal enabled but journal.path is empty")
	}
	return nil
}

// ResolvePaths makes relative file paths absolute against workspace.
func (c *Config) ResolvePaths(workspace string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(workspace, p)
	}
	c.Data.Path = abs(c.Data.Path)
	c.Catalog.Path = abs(c.Catalog.Path)
	c.Receipt.Template = abs(c.Receipt.Template)
	c.Receipt.OutputDir = abs(c.Receipt.OutputDir)
	c.Journal.Path = abs(c.Journal.Path)
}

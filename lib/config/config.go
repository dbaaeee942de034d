// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for a shared deployment.
	Production Environment = "production"
)

// EnvVar names the environment variable Load reads.
const EnvVar = "SUPPORTDESK_CONFIG"

// DefaultIndexes are the composite indexes supportdesk's ordered
// queries are written against. A store without them still
// works; each query degrades to its unordered form.
var DefaultIndexes = []string{
	"conversations: participantId ==, status ==, createdAt desc",
	"messages: conversationId ==, timestamp asc",
}

// Config is the supportdesk configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Root is the base data directory, available as ${SUPPORTDESK_ROOT}
	// in other paths.
	Root string `yaml:"root"`

	Store   StoreConfig   `yaml:"store"`
	Device  DeviceConfig  `yaml:"device"`
	Agent   AgentConfig   `yaml:"agent"`
	FAQ     FAQConfig     `yaml:"faq"`
	Console ConsoleConfig `yaml:"console"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the fields an environment section may replace.
type Overrides struct {
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Device  *DeviceConfig  `yaml:"device,omitempty"`
	Agent   *AgentConfig   `yaml:"agent,omitempty"`
	FAQ     *FAQConfig     `yaml:"faq,omitempty"`
	Console *ConsoleConfig `yaml:"console,omitempty"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	// Path is the SQLite file shared by the widget and the console.
	// Default: ${SUPPORTDESK_ROOT}/store.db
	Path string `yaml:"path"`

	// PollInterval is how often writes from other processes are
	// detected, as a Go duration string. Default: 250ms
	PollInterval string `yaml:"poll_interval"`

	// Indexes declares composite indexes in docstore.ParseIndex form.
	// Default: DefaultIndexes
	Indexes []string `yaml:"indexes"`
}

// DeviceConfig configures device-local state.
type DeviceConfig struct {
	// StatePath holds participant ids and UI preferences.
	// Default: ${SUPPORTDESK_ROOT}/device.yaml
	StatePath string `yaml:"state_path"`
}

// AgentConfig configures the agent console identity.
type AgentConfig struct {
	// Name is shown to visitors on agent replies. Default: Support Agent
	Name string `yaml:"name"`
}

// FAQConfig configures the FAQ catalog.
type FAQConfig struct {
	// SeedFile is a JSON-with-comments file of FAQ entries used by
	// "faq seed" when --file is not given.
	SeedFile string `yaml:"seed_file"`
}

// ConsoleConfig configures the agent console.
type ConsoleConfig struct {
	// Theme is the initial theme, "dark" or "light", used until the
	// device state records a toggle. Default: dark
	Theme string `yaml:"theme"`
}

// Default returns the configuration used when no file is given, and
// the base that a loaded file is merged onto.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".local", "share", "supportdesk")
	return &Config{
		Environment: Development,
		Root:        root,
		Store: StoreConfig{
			Path:         filepath.Join(root, "store.db"),
			PollInterval: "250ms",
			Indexes:      slices.Clone(DefaultIndexes),
		},
		Device: DeviceConfig{
			StatePath: filepath.Join(root, "device.yaml"),
		},
		Agent: AgentConfig{
			Name: "Support Agent",
		},
		Console: ConsoleConfig{
			Theme: "dark",
		},
	}
}

// Load loads configuration from the file named by SUPPORTDESK_CONFIG.
// It fails when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your supportdesk.yaml, or use --config", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Store: &StoreConfig{PollInterval: "1s"}}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Store != nil {
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.PollInterval != "" {
			c.Store.PollInterval = overrides.Store.PollInterval
		}
		if overrides.Store.Indexes != nil {
			c.Store.Indexes = overrides.Store.Indexes
		}
	}
	if overrides.Device != nil && overrides.Device.StatePath != "" {
		c.Device.StatePath = overrides.Device.StatePath
	}
	if overrides.Agent != nil && overrides.Agent.Name != "" {
		c.Agent.Name = overrides.Agent.Name
	}
	if overrides.FAQ != nil && overrides.FAQ.SeedFile != "" {
		c.FAQ.SeedFile = overrides.FAQ.SeedFile
	}
	if overrides.Console != nil && overrides.Console.Theme != "" {
		c.Console.Theme = overrides.Console.Theme
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Root = expandVars(c.Root, vars)
	vars["SUPPORTDESK_ROOT"] = c.Root

	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Device.StatePath = expandVars(c.Device.StatePath, vars)
	c.FAQ.SeedFile = expandVars(c.FAQ.SeedFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. Provided vars win over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// PollInterval returns the parsed store poll interval.
func (c *Config) PollInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Store.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("store.poll_interval: %w", err)
	}
	return interval, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	if interval, err := c.PollInterval(); err != nil {
		errs = append(errs, err)
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("store.poll_interval must be positive"))
	}
	if c.Device.StatePath == "" {
		errs = append(errs, fmt.Errorf("device.state_path is required"))
	}
	if c.Agent.Name == "" {
		errs = append(errs, fmt.Errorf("agent.name is required"))
	}
	if c.Console.Theme != "dark" && c.Console.Theme != "light" {
		errs = append(errs, fmt.Errorf("console.theme must be dark or light, got %q", c.Console.Theme))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the parent directories of the store and device
// state files.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Store.Path, c.Device.StatePath} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
	}
	return nil
}

// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "DISCIPLINE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for testing a policy on a workstation.
	Development Environment = "development"
	// Production is for machines under enforcement.
	Production Environment = "production"
)

// Config is the master configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Intervals configures the sync loop cadence.
	Intervals IntervalsConfig `yaml:"intervals"`

	// Debug configures the localhost HTTP debug surface.
	Debug DebugConfig `yaml:"debug"`

	// Host configures the commands run for OS capabilities.
	Host HostConfig `yaml:"host"`

	// Log configures the daemon's logger.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config.
	DevelopmentOverrides *Overrides `yaml:"development,omitempty"`
	ProductionOverrides  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Debug *DebugConfig `yaml:"debug,omitempty"`
	Log   *LogConfig   `yaml:"log,omitempty"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Root is the base directory for daemon data.
	Root string `yaml:"root"`

	// State is the state file the daemon loads and saves.
	// Default: ${DISCIPLINE_ROOT}/state.cbor
	State string `yaml:"state"`

	// Policy is the JSONC policy used on first run, when no state
	// file exists yet.
	Policy string `yaml:"policy"`

	// Identity is an age identity file. When set, the state file is
	// sealed to it. Empty means the state file is stored unsealed.
	Identity string `yaml:"identity"`
}

// IntervalsConfig configures the sync loop cadence. Values are Go
// duration strings ("5m", "30s").
type IntervalsConfig struct {
	// User is the user access sync period. Default: 5m
	User time.Duration `yaml:"user"`

	// Network is the network access sync period. Default: 1m
	Network time.Duration `yaml:"network"`

	// Device is the device access sync period. Default: 5s
	Device time.Duration `yaml:"device"`

	// TimeSync is the minimum spacing between system clock syncs.
	// Default: 5m
	TimeSync time.Duration `yaml:"time_sync"`
}

// DebugConfig configures the debug HTTP server.
type DebugConfig struct {
	// Enabled starts the server. Default: true (development),
	// false (production)
	Enabled bool `yaml:"enabled"`

	// Address is the listen address. It should be a loopback address;
	// the endpoints are unauthenticated. Default: 127.0.0.1:9000
	Address string `yaml:"address"`
}

// HostConfig configures the commands behind each OS capability. Each
// entry is an argv.
type HostConfig struct {
	ChangePassword []string `yaml:"change_password"`
	BlockNetwork   []string `yaml:"block_network"`
	AllowNetwork   []string `yaml:"allow_network"`
	SyncClock      []string `yaml:"sync_clock"`

	// Shutdown, when empty, powers off through the reboot syscall.
	Shutdown []string `yaml:"shutdown"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist to give every field a sensible value, not as a fallback:
// the config file is required.
func Default() *Config {
	defaultRoot := "/var/lib/discipline"

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:   defaultRoot,
			State:  filepath.Join("${DISCIPLINE_ROOT}", "state.cbor"),
			Policy: "/etc/discipline/policy.jsonc",
		},
		Intervals: IntervalsConfig{
			User:     5 * time.Minute,
			Network:  time.Minute,
			Device:   5 * time.Second,
			TimeSync: 5 * time.Minute,
		},
		Debug: DebugConfig{
			Enabled: true,
			Address: "127.0.0.1:9000",
		},
		Host: HostConfig{
			ChangePassword: []string{"chpasswd"},
			BlockNetwork:   []string{"nmcli", "networking", "off"},
			AllowNetwork:   []string{"nmcli", "networking", "on"},
			SyncClock:      []string{"chronyc", "makestep"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the DISCIPLINE_CONFIG environment
// variable.
//
// There are no fallbacks: if DISCIPLINE_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your discipline.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path and
// validates it.
//
// The config file is the single source of truth. Environment variables
// do not override config values; the only expansion performed is
// ${HOME} and similar variables in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.DevelopmentOverrides
	case Production:
		overrides = c.ProductionOverrides
		// Production defaults: no unauthenticated HTTP surface.
		if overrides == nil {
			overrides = &Overrides{Debug: &DebugConfig{Enabled: false}}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Debug != nil {
		// Enabled is a bool, so it is always applied from overrides.
		c.Debug.Enabled = overrides.Debug.Enabled
		if overrides.Debug.Address != "" {
			c.Debug.Address = overrides.Debug.Address
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DISCIPLINE_ROOT": c.Paths.Root,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["DISCIPLINE_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Policy = expandVars(c.Paths.Policy, vars)
	c.Paths.Identity = expandVars(c.Paths.Identity, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.State == "" {
		errs = append(errs, errors.New("paths.state is required"))
	}

	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"intervals.user", c.Intervals.User},
		{"intervals.network", c.Intervals.Network},
		{"intervals.device", c.Intervals.Device},
		{"intervals.time_sync", c.Intervals.TimeSync},
	}
	for _, interval := range intervals {
		if interval.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", interval.name, interval.value))
		}
	}

	if c.Debug.Enabled {
		if _, _, err := net.SplitHostPort(c.Debug.Address); err != nil {
			errs = append(errs, fmt.Errorf("debug.address: %w", err))
		}
	}

	commands := []struct {
		name string
		argv []string
	}{
		{"host.change_password", c.Host.ChangePassword},
		{"host.block_network", c.Host.BlockNetwork},
		{"host.allow_network", c.Host.AllowNetwork},
		{"host.sync_clock", c.Host.SyncClock},
	}
	for _, command := range commands {
		if len(command.argv) == 0 || command.argv[0] == "" {
			errs = append(errs, fmt.Errorf("%s is required", command.name))
		}
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// EnsurePaths creates the directories holding the state file and the
// identity file.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		filepath.Dir(c.Paths.State),
	}
	if c.Paths.Identity != "" {
		paths = append(paths, filepath.Dir(c.Paths.Identity))
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

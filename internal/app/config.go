// Package app provides configuration and the conformance runner for the
// emulator.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moriano/locones/internal/cpu"
)

// Config holds all application configuration
type Config struct {
	Suites []SuiteConfig `json:"suites"`
	Trace  TraceConfig   `json:"trace"`
	Run    RunConfig     `json:"run"`

	// Internal state
	configPath string
	loaded     bool
}

// SuiteConfig is one ROM checked against one reference log.
type SuiteConfig struct {
	Name string `json:"name"`
	ROM  string `json:"rom"`
	Log  string `json:"log"`
	// StartPC is hex ("C000", "0xC000" or "$C000"); empty uses the reset vector.
	StartPC string `json:"start_pc"`
	// MaxSteps caps the instructions compared; 0 runs the whole log.
	MaxSteps int  `json:"max_steps"`
	CheckPPU bool `json:"check_ppu"`
}

// TraceConfig controls what is printed while suites run.
type TraceConfig struct {
	PrintTrace     bool   `json:"print_trace"`
	StopOnMismatch bool   `json:"stop_on_mismatch"`
	Color          string `json:"color"` // "auto", "always", "never"
	// Context is how many preceding instructions a failure report shows.
	Context int `json:"context"`
}

// RunConfig contains execution settings
type RunConfig struct {
	Parallel int `json:"parallel"`
	// ResetCycles is the CPU cycle count the reset sequence is credited with.
	ResetCycles uint64 `json:"reset_cycles"`
}

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	config := &Config{
		Suites: []SuiteConfig{
			{
				Name:    "nestest",
				ROM:     "testdata/nestest.nes",
				Log:     "testdata/nestest.log",
				StartPC: "C000",
			},
		},
		Trace: TraceConfig{
			PrintTrace:     false,
			StopOnMismatch: true,
			Color:          ColorAuto,
			Context:        5,
		},
		Run: RunConfig{
			Parallel:    1,
			ResetCycles: cpu.ResetCycles,
		},
		loaded: false,
	}

	return config
}

// LoadFromFile loads configuration from a JSON file
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist - save default config and use it
		if err := c.SaveToFile(path); err != nil {
			return err
		}
		c.resolvePaths(filepath.Dir(path))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Suites in the file replace the defaults instead of merging into them.
	c.Suites = nil
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.resolvePaths(filepath.Dir(path))
	c.loaded = true
	return nil
}

// resolvePaths makes relative suite paths relative to the config file's
// directory.
func (c *Config) resolvePaths(base string) {
	for i := range c.Suites {
		c.Suites[i].ROM = resolvePath(base, c.Suites[i].ROM)
		c.Suites[i].Log = resolvePath(base, c.Suites[i].Log)
	}
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// validate rejects unusable suites and normalises out-of-range settings.
func (c *Config) validate() error {
	seen := make(map[string]bool)
	for i := range c.Suites {
		s := &c.Suites[i]
		if s.ROM == "" {
			return &ConfigError{Field: fmt.Sprintf("suites[%d].rom", i), Value: s.ROM, Err: errors.New("required")}
		}
		if s.Log == "" {
			return &ConfigError{Field: fmt.Sprintf("suites[%d].log", i), Value: s.Log, Err: errors.New("required")}
		}
		if _, _, err := s.EntryPoint(); err != nil {
			return &ConfigError{Field: fmt.Sprintf("suites[%d].start_pc", i), Value: s.StartPC, Err: err}
		}
		if s.Name == "" {
			s.Name = strings.TrimSuffix(filepath.Base(s.ROM), filepath.Ext(s.ROM))
		}
		if seen[s.Name] {
			return &ConfigError{Field: fmt.Sprintf("suites[%d].name", i), Value: s.Name, Err: errors.New("duplicate")}
		}
		seen[s.Name] = true
		if s.MaxSteps < 0 {
			s.MaxSteps = 0
		}
	}

	switch c.Trace.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		c.Trace.Color = ColorAuto
	}
	if c.Trace.Context < 0 {
		c.Trace.Context = 0
	}

	if c.Run.Parallel <= 0 {
		c.Run.Parallel = 1
	}

	return nil
}

// UseSuite replaces the configured suites with suite, as when a single ROM
// and log are given on the command line.
func (c *Config) UseSuite(suite SuiteConfig) error {
	c.Suites = []SuiteConfig{suite}
	return c.validate()
}

// EntryPoint parses StartPC. ok is false when the reset vector should be used.
func (s SuiteConfig) EntryPoint() (pc uint16, ok bool, err error) {
	text := strings.TrimSpace(s.StartPC)
	if text == "" {
		return 0, false, nil
	}
	text = strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(text, "$"), "0x"), "0X")
	v, err := strconv.ParseUint(text, 16, 16)
	if err != nil {
		return 0, false, fmt.Errorf("bad start address %q", s.StartPC)
	}
	return uint16(v), true, nil
}

// Suite returns the suite with the given name.
func (c *Config) Suite(name string) (SuiteConfig, bool) {
	for _, s := range c.Suites {
		if s.Name == name {
			return s, true
		}
	}
	return SuiteConfig{}, false
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	// Marshal to JSON and back to create deep copy
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded

	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/locones.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

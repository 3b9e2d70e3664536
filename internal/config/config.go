// Package config loads and validates the calsync YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultDaysBack  = 7
	defaultDaysAhead = 90
	defaultStateDB   = "~/.local/share/calsync/sync_state.db"

	defaultCredentialsFile = "credentials.json"
	defaultTokenFile       = "token.json"
	defaultNotifyCommand   = "notify-send"
)

// Config is the full configuration consumed at run start.
type Config struct {
	CredentialsFile  string           `yaml:"credentials_file"`
	TokenFile        string           `yaml:"token_file"`
	StateDB          string           `yaml:"state_db"`
	TargetCalendarID string           `yaml:"target_calendar_id"`
	SourceCalendars  []SourceCalendar `yaml:"source_calendars"`
	Sync             SyncConfig       `yaml:"sync"`
	Notify           NotifyConfig     `yaml:"notify"`
	Daemon           DaemonConfig     `yaml:"daemon"`
}

// SourceCalendar identifies one read-only calendar to mirror.
type SourceCalendar struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// SyncConfig controls the reconciliation behavior.
type SyncConfig struct {
	DaysAhead            int    `yaml:"days_ahead"`
	DaysBack             int    `yaml:"days_back"`
	EventPrefix          string `yaml:"event_prefix"`
	SyncDescription      bool   `yaml:"sync_description"`
	DeleteOnSourceDelete bool   `yaml:"delete_on_source_delete"`
}

// NotifyConfig controls failure notification dispatch.
type NotifyConfig struct {
	OnFailure bool   `yaml:"on_failure"`
	Command   string `yaml:"command"`
}

// DaemonConfig is only consulted by the daemon command.
type DaemonConfig struct {
	// Schedule is a cron expression (standard five-field format).
	Schedule string `yaml:"schedule"`
}

// ValidationError reports an invalid configuration value. Any validation
// failure aborts the run before remote calls are made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Load reads, decodes, defaults, and validates the config file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and decodes the config without validating it. Commands that
// only need credentials (auth, calendars) use this so they work before the
// sync section is filled in; a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		CredentialsFile: defaultCredentialsFile,
		TokenFile:       defaultTokenFile,
		StateDB:         defaultStateDB,
		Sync: SyncConfig{
			DaysAhead:       defaultDaysAhead,
			DaysBack:        defaultDaysBack,
			SyncDescription: true,
		},
		Notify: NotifyConfig{Command: defaultNotifyCommand},
	}
}

// applyDefaults restores defaults for fields the decoder may have zeroed out
// when the key was present but empty.
func (c *Config) applyDefaults() {
	if c.StateDB == "" {
		c.StateDB = defaultStateDB
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = defaultCredentialsFile
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile
	}
	if c.Notify.Command == "" {
		c.Notify.Command = defaultNotifyCommand
	}
}

// Validate enforces the preconditions the engine relies on.
func (c *Config) Validate() error {
	if c.TargetCalendarID == "" {
		return &ValidationError{Field: "target_calendar_id", Message: "required"}
	}
	if len(c.SourceCalendars) == 0 {
		return &ValidationError{Field: "source_calendars", Message: "at least one source calendar required"}
	}

	seen := make(map[string]bool, len(c.SourceCalendars))
	for i, src := range c.SourceCalendars {
		if src.ID == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("source_calendars[%d].id", i),
				Message: "required",
			}
		}
		if seen[src.ID] {
			return &ValidationError{
				Field:   fmt.Sprintf("source_calendars[%d].id", i),
				Message: fmt.Sprintf("duplicate calendar id %q", src.ID),
			}
		}
		seen[src.ID] = true
	}

	if c.Sync.DaysAhead < 0 {
		return &ValidationError{Field: "sync.days_ahead", Message: "must be >= 0"}
	}
	if c.Sync.DaysBack < 0 {
		return &ValidationError{Field: "sync.days_back", Message: "must be >= 0"}
	}
	return nil
}

// StateDBPath returns the state database location with a leading ~ expanded.
func (c *Config) StateDBPath() (string, error) {
	return ExpandHome(c.StateDB)
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultServerURL      = "http://localhost:3000"
	DefaultPollInterval   = 3 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// Config represents the global ~/.wachats/config.toml.
type Config struct {
	DefaultProfile string              `toml:"default_profile"`
	Profiles       map[string]*Profile `toml:"profiles"`
}

// Profile describes one backend the client can talk to.
type Profile struct {
	ServerURL      string   `toml:"server_url"`
	Token          string   `toml:"token,omitempty"`
	PollInterval   Duration `toml:"poll_interval,omitempty"`
	RequestTimeout Duration `toml:"request_timeout,omitempty"`
}

// Duration is a time.Duration that decodes from TOML strings like "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Profile returns the named profile with defaults applied. Unknown names
// yield a profile made only of defaults.
func (c *Config) Profile(name string) Profile {
	var p Profile
	if c != nil && c.Profiles[name] != nil {
		p = *c.Profiles[name]
	}
	return p.WithDefaults()
}

// WithDefaults fills every unset field.
func (p Profile) WithDefaults() Profile {
	if p.ServerURL == "" {
		p.ServerURL = DefaultServerURL
	}
	if p.PollInterval.Duration <= 0 {
		p.PollInterval.Duration = DefaultPollInterval
	}
	if p.RequestTimeout.Duration <= 0 {
		p.RequestTimeout.Duration = DefaultRequestTimeout
	}
	return p
}

package profile

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/matheus3301/wachats/internal/config"
)

const DefaultName = "main"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. config.toml default_profile
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultName
}

// Settings loads the named profile from config.toml with defaults applied.
// A missing config file yields the defaults; any other load error is
// returned. serverOverride replaces the configured server URL when
// non-empty.
func Settings(name, serverOverride string) (config.Profile, error) {
	cfg, err := config.Load(ConfigPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Profile{}, fmt.Errorf("load %s: %w", ConfigPath(), err)
	}
	p := cfg.Profile(name)
	if serverOverride != "" {
		p.ServerURL = serverOverride
	}
	return p, nil
}

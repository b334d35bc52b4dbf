package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFile is the layout of ~/.kbequiv/config.yaml.
type configFile struct {
	// Flat format
	URL    string `yaml:"url,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles,omitempty"`
	ActiveProfile string                   `yaml:"active_profile,omitempty"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// settings are the effective connection parameters.
type settings struct {
	URL    string
	APIKey string
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kbequiv", "config.yaml")
}

// loadConfigFile reads and decodes the config file at path.
func loadConfigFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user config path.
	if err != nil {
		return nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// profile returns the active profile's values, falling back to the flat fields.
func (c *configFile) profile() configProfile {
	p := configProfile{URL: c.URL, APIKey: c.APIKey}
	if c.Profiles == nil {
		return p
	}
	name := c.ActiveProfile
	if name == "" {
		name = "default"
	}
	if prof, ok := c.Profiles[name]; ok {
		if prof.URL != "" {
			p.URL = prof.URL
		}
		if prof.APIKey != "" {
			p.APIKey = prof.APIKey
		}
	}
	return p
}

// resolveSettings applies flag > env > config file > default precedence.
func resolveSettings(cmd *cobra.Command, lookupEnv func(string) (string, bool), cfgPath string) settings {
	s := settings{URL: defaultURL}

	if cfgPath != "" {
		if cfg, err := loadConfigFile(cfgPath); err == nil {
			p := cfg.profile()
			if p.URL != "" {
				s.URL = p.URL
			}
			s.APIKey = p.APIKey
		}
	}

	if v, ok := lookupEnv("KBEQUIV_URL"); ok && v != "" {
		s.URL = v
	}
	if v, ok := lookupEnv("KBEQUIV_API_KEY"); ok && v != "" {
		s.APIKey = v
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		s.URL, _ = flags.GetString("url")
	}
	if flags.Changed("api-key") {
		s.APIKey, _ = flags.GetString("api-key")
	}

	return s
}

// writeConfig stores url and apiKey as the default profile at path, preserving other profiles.
// An unreadable or malformed existing file is left untouched.
func writeConfig(path, url, apiKey string) error {
	cfg, err := loadConfigFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = &configFile{}
	case err != nil:
		return err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]configProfile{}
	}
	cfg.Profiles["default"] = configProfile{URL: url, APIKey: apiKey}
	cfg.ActiveProfile = "default"
	cfg.URL, cfg.APIKey = "", ""

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

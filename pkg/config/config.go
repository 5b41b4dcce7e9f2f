// Package config loads the pytide INI configuration: which stations to
// report on, who receives the report, and how to reach the SMTP server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/ini.v1"
)

// envPrefix namespaces the environment overrides, e.g. PYTIDE_CONFIG_FILE.
const envPrefix = "pytide"

// Station is a configured NOAA station. Name is an optional display name
// that overrides the name NOAA reports.
type Station struct {
	ID   string
	Name string
}

// SMTP holds the mail server settings from the SMTP SERVER section.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
}

// Config is the full user configuration.
type Config struct {
	Stations   []Station
	Recipients []string
	SMTP       SMTP
	MapsAPIKey string
}

// Env holds the settings that may come from the environment.
type Env struct {
	ConfigFile string `envconfig:"CONFIG_FILE"`
	MapsAPIKey string `envconfig:"MAPS_API_KEY"`
}

// FromEnv reads the PYTIDE_* environment overrides.
func FromEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Resolve picks the configuration file to use: the explicit path if given,
// then the environment, then the well-known locations.
func Resolve(explicit string, env Env) (string, error) {
	candidates := []string{
		explicit,
		env.ConfigFile,
		"config.ini",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "pytide", "config.ini"))
	}
	candidates = append(candidates, "/etc/pytide/config.ini")

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		} else if candidate == explicit {
			return "", fmt.Errorf("config file %s not found", explicit)
		}
	}
	return "", fmt.Errorf("no configuration file found; use --config-file or set PYTIDE_CONFIG_FILE")
}

// Load parses the INI file at path.
func Load(path string) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{}

	for _, key := range file.Section("STATIONS").Keys() {
		name := key.Value()
		if name == "true" {
			// A bare station line parses as a boolean key.
			name = ""
		}
		cfg.Stations = append(cfg.Stations, Station{
			ID:   strings.TrimSpace(key.Name()),
			Name: strings.TrimSpace(name),
		})
	}

	seen := make(map[string]bool)
	for _, key := range file.Section("RECIPIENTS").Keys() {
		addr := strings.TrimSpace(key.Name())
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		cfg.Recipients = append(cfg.Recipients, addr)
	}

	smtp := file.Section("SMTP SERVER")
	cfg.SMTP.Host = smtp.Key("host").String()
	cfg.SMTP.Port = smtp.Key("port").MustInt(587)
	cfg.SMTP.User = smtp.Key("user").String()
	cfg.SMTP.Password = smtp.Key("password").String()
	cfg.SMTP.Sender = smtp.Key("sender").String()

	cfg.MapsAPIKey = file.Section("GOOGLE MAPS API").Key("key").String()

	return cfg, nil
}

// Validate checks that the configuration can drive a report. SMTP settings
// are only required when the report will actually be sent.
func (c *Config) Validate(sending bool) error {
	if len(c.Stations) == 0 {
		return fmt.Errorf("no stations configured")
	}
	if sending {
		if len(c.Recipients) == 0 {
			return fmt.Errorf("no recipients configured")
		}
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host not configured")
		}
		if c.SMTP.Sender == "" {
			return fmt.Errorf("SMTP sender not configured")
		}
	}
	return nil
}

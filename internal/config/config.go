// Package config loads the engine's process configuration: the YAML
// `bots` document plus the environment variables the credential and
// logging collaborators consume. This process trades exactly one pair
// between two venues and keeps no durable state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"arbengine/internal/models"
)

// Config is the top-level YAML document: a list of bot entries, one of
// which (selected by BotID, or the sole entry when only one is defined)
// this process runs.
type Config struct {
	Bots    []models.BotConfig `yaml:"bots"`
	Logging LoggingConfig      `yaml:"-"`
}

// LoggingConfig controls the zap-backed logging facade in pkg/utils.
// It is populated from the environment, not the YAML file, so the same
// config file can run with different log rendering per deployment.
type LoggingConfig struct {
	Level  string
	Format string // json, pretty, tui (tui is rendering-only, out of core scope)
}

// Load reads and parses the YAML config file at path, then overlays
// environment-sourced logging settings.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(cfg.Bots) == 0 {
		return nil, fmt.Errorf("config: %s defines no bots", path)
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	return &cfg, nil
}

// BotByID returns the named bot entry, or the sole entry if id is empty
// and exactly one bot is configured. The engine runs one bot per process.
func (c *Config) BotByID(id string) (models.BotConfig, error) {
	if id == "" {
		if len(c.Bots) == 1 {
			return c.Bots[0], nil
		}
		return models.BotConfig{}, fmt.Errorf("config: bot id required, %d bots configured", len(c.Bots))
	}
	for _, b := range c.Bots {
		if b.ID == id {
			return b, nil
		}
	}
	return models.BotConfig{}, fmt.Errorf("config: no bot with id %q", id)
}

// VenueCredentials holds the signer/auth material for one venue, read
// directly from the environment. The actual signature mechanics (EIP-712,
// SNIP-12, Schnorr) live behind each venue's signer; the engine only
// needs these raw strings to hand over.
type VenueCredentials struct {
	Address    string
	PrivateKey string
	SigningKey string // optional, some venues separate trading key from account key
}

// LoadVenueCredentials reads ADDRESS/PRIVATE_KEY/SIGNING_KEY env vars
// namespaced by venue, e.g. VENUE_A_ADDRESS, VENUE_A_PRIVATE_KEY.
func LoadVenueCredentials(venuePrefix string) (VenueCredentials, error) {
	creds := VenueCredentials{
		Address:    os.Getenv(venuePrefix + "_ADDRESS"),
		PrivateKey: os.Getenv(venuePrefix + "_PRIVATE_KEY"),
		SigningKey: os.Getenv(venuePrefix + "_SIGNING_KEY"),
	}
	if creds.Address == "" || creds.PrivateKey == "" {
		return creds, fmt.Errorf("config: missing %s_ADDRESS or %s_PRIVATE_KEY", venuePrefix, venuePrefix)
	}
	return creds, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Package config loads settings from an optional YAML file with environment
// overrides on top, so a bare binary still starts with sane defaults.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hearthapp/hearth/internal/payments"
)

// Config is everything both binaries read.
type Config struct {
	// ListenAddr is the relay server's bind address.
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	// RelayURL is the websocket endpoint agents dial. Empty keeps an agent
	// bus-only.
	RelayURL string `yaml:"relay_url"`

	// SnapshotPath is where an agent persists household state.
	SnapshotPath string `yaml:"snapshot_path"`

	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// AllowedNames overrides the default family roster eligible for
	// accounts.
	AllowedNames []string `yaml:"allowed_names"`

	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	Daraja  payments.DarajaConfig `yaml:"daraja"`
	Intents payments.StoreConfig  `yaml:"intents"`
}

func defaults() Config {
	return Config{
		ListenAddr:        ":5050",
		LogLevel:          "info",
		SnapshotPath:      "hearth-state.json",
		HeartbeatInterval: 15 * time.Second,
		SessionTTL:        30 * 24 * time.Hour,
	}
}

// Load reads the file at path (skipped when empty; a missing explicit path
// is an error) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = strEnv("HEARTH_ADDR", cfg.ListenAddr)
	cfg.LogLevel = strEnv("HEARTH_LOG_LEVEL", cfg.LogLevel)
	cfg.RelayURL = strEnv("HEARTH_RELAY_URL", cfg.RelayURL)
	cfg.SnapshotPath = strEnv("HEARTH_SNAPSHOT_PATH", cfg.SnapshotPath)
	cfg.MaxBodyBytes = int64Env("HEARTH_MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.HeartbeatInterval = durationEnv("HEARTH_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.SessionSecret = strEnv("HEARTH_SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTL = durationEnv("HEARTH_SESSION_TTL", cfg.SessionTTL)

	cfg.Daraja.ConsumerKey = strEnv("DARAJA_CONSUMER_KEY", cfg.Daraja.ConsumerKey)
	cfg.Daraja.ConsumerSecret = strEnv("DARAJA_CONSUMER_SECRET", cfg.Daraja.ConsumerSecret)
	cfg.Daraja.ShortCode = strEnv("DARAJA_SHORTCODE", cfg.Daraja.ShortCode)
	cfg.Daraja.Passkey = strEnv("DARAJA_PASSKEY", cfg.Daraja.Passkey)
	cfg.Daraja.CallbackURL = strEnv("DARAJA_CALLBACK_URL", cfg.Daraja.CallbackURL)
	cfg.Daraja.BaseURL = strEnv("DARAJA_BASE_URL", cfg.Daraja.BaseURL)

	cfg.Intents.Backend = strEnv("HEARTH_INTENTS_BACKEND", cfg.Intents.Backend)
	cfg.Intents.Path = strEnv("HEARTH_INTENTS_PATH", cfg.Intents.Path)
	cfg.Intents.DSN = strEnv("HEARTH_INTENTS_DSN", cfg.Intents.DSN)
}

func strEnv(name, fallback string) string {
	if raw := os.Getenv(name); raw != "" {
		return raw
	}
	return fallback
}

func int64Env(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback)
		return fallback
	}
	return value
}

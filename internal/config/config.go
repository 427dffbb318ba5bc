package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration loaded from file/env. It carries
// broker-wide defaults; per-connection stream parameters still arrive on
// each request and override the stream defaults here.
type Config struct {
	OwningApplicationRegex string         `json:"owningApplicationRegex"`
	EventTypeNameRegex     string         `json:"eventTypeNameRegex"`
	StreamDefaults         StreamDefaults `json:"streamDefaults"`
	Kafka                  KafkaEndpoints `json:"kafka"`
	Toggles                DefaultToggles `json:"toggles"`
}

// StreamDefaults holds the starting values the HTTP binding layer copies
// into each streaming.Config before applying request query parameters.
// MaxBatchLimit and MaxStreamTimeout are carried here but are not read by
// the HTTP layer: request values are not capped by them.
type StreamDefaults struct {
	BatchLimit           int           `json:"batchLimit"`
	BatchTimeout         time.Duration `json:"batchTimeout"`
	StreamLimit          int           `json:"streamLimit"`
	StreamTimeout        time.Duration `json:"streamTimeout"`
	StreamKeepAliveLimit int           `json:"streamKeepAliveLimit"`
	MaxBatchLimit        int           `json:"maxBatchLimit"`
	MaxStreamTimeout     time.Duration `json:"maxStreamTimeout"`
}

// KafkaEndpoints configures the partition consumer port's Kafka backend.
type KafkaEndpoints struct {
	Brokers []string `json:"brokers"`
}

// DefaultToggles are the built-in values for the feature gates in §4.5,
// overridable per-request by internal/toggles' injectable backing.
type DefaultToggles struct {
	HighLevelAPI             bool `json:"highLevelAPI"`
	CheckOwningApplication   bool `json:"checkOwningApplication"`
	SendBatchViaOutputStream bool `json:"sendBatchViaOutputStream"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		OwningApplicationRegex: "[a-zA-Z0-9_.-]{1,128}",
		EventTypeNameRegex:     "[a-zA-Z0-9_.-]{1,255}",
		StreamDefaults: StreamDefaults{
			BatchLimit:           100,
			BatchTimeout:         30 * time.Second,
			StreamLimit:          0,
			StreamTimeout:        0,
			StreamKeepAliveLimit: 0,
			MaxBatchLimit:        10000,
			MaxStreamTimeout:     3600 * time.Second,
		},
		Toggles: DefaultToggles{
			HighLevelAPI:             true,
			CheckOwningApplication:   false,
			SendBatchViaOutputStream: true,
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults. YAML is not supported, matching the teacher's own config
// loader's MVP scope.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	ext := filepath.Ext(path)
	switch ext {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported yet; use JSON for now")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

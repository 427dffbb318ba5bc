package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays STREAMHUB_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("STREAMHUB_OWNING_APPLICATION_REGEX"); v != "" {
		cfg.OwningApplicationRegex = v
	}
	if v := os.Getenv("STREAMHUB_EVENT_TYPE_NAME_REGEX"); v != "" {
		cfg.EventTypeNameRegex = v
	}
	if v := os.Getenv("STREAMHUB_BATCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamDefaults.BatchLimit = n
		}
	}
	if v := os.Getenv("STREAMHUB_BATCH_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamDefaults.BatchTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("STREAMHUB_STREAM_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamDefaults.StreamLimit = n
		}
	}
	if v := os.Getenv("STREAMHUB_STREAM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamDefaults.StreamTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("STREAMHUB_STREAM_KEEP_ALIVE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamDefaults.StreamKeepAliveLimit = n
		}
	}
	if v := os.Getenv("STREAMHUB_KAFKA_BROKERS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Kafka.Brokers = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, p)
			}
		}
	}
	if v := os.Getenv("STREAMHUB_HIGH_LEVEL_API"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Toggles.HighLevelAPI = b
		}
	}
	if v := os.Getenv("STREAMHUB_CHECK_OWNING_APPLICATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Toggles.CheckOwningApplication = b
		}
	}
	if v := os.Getenv("STREAMHUB_SEND_BATCH_VIA_OUTPUT_STREAM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Toggles.SendBatchViaOutputStream = b
		}
	}
}

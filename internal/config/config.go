// Package config holds the worker's runtime settings.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// environment variables, then command-line flags. Validate checks the merged
// result without touching it; Normalize fills whatever is still unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a node started with no configuration at all.
const (
	DefaultPort             = 9000
	DefaultAdvertiseAddress = "0.0.0.0"
	DefaultMasterAddress    = "master"
	DefaultMasterPort       = 8081
	DefaultReadyAttempts    = 30
	DefaultReadyDelay       = 2 * time.Second
	DefaultSendTimeout      = 5 * time.Second
	DefaultLoadInterval     = 5 * time.Second
	DefaultHeartbeat        = 10 * time.Second
	DefaultStreamInterval   = time.Second
	DefaultMQTTTopic        = "workers"
)

type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Master    MasterConfig    `yaml:"master"`
	Reporting ReportingConfig `yaml:"reporting"`
	HTTP      HTTPConfig      `yaml:"http"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ---- NODE ----

type NodeConfig struct {
	ID               string `yaml:"id"` // empty: random per process
	AdvertiseAddress string `yaml:"advertise_address"`
	Port             int    `yaml:"port"`
}

// ---- MASTER ----

type MasterConfig struct {
	Address       string `yaml:"address"`
	Port          int    `yaml:"port"`
	ReadyAttempts int    `yaml:"ready_attempts"`
	ReadyDelayMs  int    `yaml:"ready_delay_ms"`

	// nil means default; 0 disables the deadline on coordinator sends.
	SendTimeoutMs *int `yaml:"send_timeout_ms"`
}

func (m MasterConfig) ReadyDelay() time.Duration {
	return time.Duration(m.ReadyDelayMs) * time.Millisecond
}

func (m MasterConfig) SendTimeout() time.Duration {
	if m.SendTimeoutMs == nil {
		return DefaultSendTimeout
	}
	return time.Duration(*m.SendTimeoutMs) * time.Millisecond
}

// ---- REPORTING ----

type ReportingConfig struct {
	LoadIntervalMs      int `yaml:"load_interval_ms"`
	HeartbeatIntervalMs int `yaml:"heartbeat_interval_ms"`
}

func (r ReportingConfig) LoadInterval() time.Duration {
	return time.Duration(r.LoadIntervalMs) * time.Millisecond
}

func (r ReportingConfig) HeartbeatInterval() time.Duration {
	return time.Duration(r.HeartbeatIntervalMs) * time.Millisecond
}

// ---- HTTP ----

type HTTPConfig struct {
	StreamIntervalMs int `yaml:"stream_interval_ms"`
}

func (h HTTPConfig) StreamInterval() time.Duration {
	return time.Duration(h.StreamIntervalMs) * time.Millisecond
}

// ---- TELEMETRY ----

type TelemetryConfig struct {
	MQTTBroker string `yaml:"mqtt_broker"` // empty disables the mirror
	MQTTTopic  string `yaml:"mqtt_topic"`
}

// Default returns a fully normalized configuration.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

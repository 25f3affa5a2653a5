package config

import (
	"fmt"
	"net/url"

	"golang.org/x/exp/slices"
)

var mqttSchemes = []string{"tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss"}

// Validate checks configuration correctness.
// Zero values are accepted and mean "use the default".
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if err := validPort("node.port", cfg.Node.Port); err != nil {
		return err
	}
	if err := validPort("master.port", cfg.Master.Port); err != nil {
		return err
	}

	if cfg.Master.ReadyAttempts < 0 {
		return fmt.Errorf("master.ready_attempts must be >= 0, got %d", cfg.Master.ReadyAttempts)
	}
	if cfg.Master.ReadyDelayMs < 0 {
		return fmt.Errorf("master.ready_delay_ms must be >= 0, got %d", cfg.Master.ReadyDelayMs)
	}
	if t := cfg.Master.SendTimeoutMs; t != nil && *t < 0 {
		return fmt.Errorf("master.send_timeout_ms must be >= 0, got %d", *t)
	}

	if cfg.Reporting.LoadIntervalMs < 0 {
		return fmt.Errorf("reporting.load_interval_ms must be >= 0, got %d", cfg.Reporting.LoadIntervalMs)
	}
	if cfg.Reporting.HeartbeatIntervalMs < 0 {
		return fmt.Errorf("reporting.heartbeat_interval_ms must be >= 0, got %d", cfg.Reporting.HeartbeatIntervalMs)
	}
	if cfg.HTTP.StreamIntervalMs < 0 {
		return fmt.Errorf("http.stream_interval_ms must be >= 0, got %d", cfg.HTTP.StreamIntervalMs)
	}

	if b := cfg.Telemetry.MQTTBroker; b != "" {
		u, err := url.Parse(b)
		if err != nil {
			return fmt.Errorf("telemetry.mqtt_broker: %w", err)
		}
		if !slices.Contains(mqttSchemes, u.Scheme) {
			return fmt.Errorf("telemetry.mqtt_broker: unsupported scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("telemetry.mqtt_broker: missing host in %q", b)
		}
	}

	return nil
}

func validPort(field string, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%s must be within 0-65535, got %d", field, port)
	}
	return nil
}

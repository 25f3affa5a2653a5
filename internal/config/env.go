package config

import (
	"fmt"
	"strconv"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvNodeID        = "NODE_ID"
	EnvNodePort      = "NODE_PORT"
	EnvAdvertiseAddr = "NODE_ADVERTISE_ADDR"
	EnvMasterAddr    = "MASTER_ADDR"
	EnvMasterPort    = "MASTER_PORT"
	EnvMQTTBroker    = "MQTT_BROKER"
)

// ApplyEnv overlays non-empty environment values onto cfg. getenv is
// normally os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvNodeID); v != "" {
		cfg.Node.ID = v
	}
	if v := getenv(EnvAdvertiseAddr); v != "" {
		cfg.Node.AdvertiseAddress = v
	}
	if v := getenv(EnvMasterAddr); v != "" {
		cfg.Master.Address = v
	}
	if v := getenv(EnvMQTTBroker); v != "" {
		cfg.Telemetry.MQTTBroker = v
	}

	if err := envInt(getenv, EnvNodePort, &cfg.Node.Port); err != nil {
		return err
	}
	return envInt(getenv, EnvMasterPort, &cfg.Master.Port)
}

func envInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("env %s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

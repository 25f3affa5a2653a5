package config

// Normalize fills unset fields with defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	setDefault(&cfg.Node.Port, DefaultPort)
	if cfg.Node.AdvertiseAddress == "" {
		cfg.Node.AdvertiseAddress = DefaultAdvertiseAddress
	}

	if cfg.Master.Address == "" {
		cfg.Master.Address = DefaultMasterAddress
	}
	setDefault(&cfg.Master.Port, DefaultMasterPort)
	setDefault(&cfg.Master.ReadyAttempts, DefaultReadyAttempts)
	setDefault(&cfg.Master.ReadyDelayMs, int(DefaultReadyDelay.Milliseconds()))
	if cfg.Master.SendTimeoutMs == nil {
		ms := int(DefaultSendTimeout.Milliseconds())
		cfg.Master.SendTimeoutMs = &ms
	}

	setDefault(&cfg.Reporting.LoadIntervalMs, int(DefaultLoadInterval.Milliseconds()))
	setDefault(&cfg.Reporting.HeartbeatIntervalMs, int(DefaultHeartbeat.Milliseconds()))
	setDefault(&cfg.HTTP.StreamIntervalMs, int(DefaultStreamInterval.Milliseconds()))

	if cfg.Telemetry.MQTTTopic == "" {
		cfg.Telemetry.MQTTTopic = DefaultMQTTTopic
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

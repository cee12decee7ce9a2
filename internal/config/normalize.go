// internal/config/normalize.go
package config

import "strings"

// Default knobs. Retry defaults mirror the field tuning this bridge has
// always shipped with: up to five attempts, doubling from one second,
// capped at two minutes.
const (
	DefaultPort           = 502
	DefaultTimeoutMs      = 5000
	DefaultIntervalMs     = 30000
	DefaultAttempts       = 5
	DefaultBaseDelayMs    = 1000
	DefaultMaxDelayMs     = 120000
	DefaultUnitIDRegister = 42109

	DefaultClientID       = "sma2mqtt"
	DefaultTopicPrefix    = "sma"
	DefaultDiscoveryTopic = "homeassistant"
	DefaultLogLevel       = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	// ------------------------------------------------------------
	// MQTT
	// ------------------------------------------------------------

	if !strings.Contains(b.MQTT.Broker, "://") {
		b.MQTT.Broker = "tcp://" + b.MQTT.Broker
	}
	if b.MQTT.ClientID == "" {
		b.MQTT.ClientID = DefaultClientID
	}
	if b.MQTT.TopicPrefix == "" {
		b.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	b.MQTT.TopicPrefix = strings.TrimSuffix(b.MQTT.TopicPrefix, "/")

	// ------------------------------------------------------------
	// POLL + RETRY
	// ------------------------------------------------------------

	if b.Poll.IntervalMs == 0 {
		b.Poll.IntervalMs = DefaultIntervalMs
	}
	if b.Poll.Retry.Attempts == 0 {
		b.Poll.Retry.Attempts = DefaultAttempts
	}
	if b.Poll.Retry.BaseDelayMs == 0 {
		b.Poll.Retry.BaseDelayMs = DefaultBaseDelayMs
	}
	if b.Poll.Retry.MaxDelayMs == 0 {
		b.Poll.Retry.MaxDelayMs = DefaultMaxDelayMs
	}

	// ------------------------------------------------------------
	// INVERTERS
	// ------------------------------------------------------------

	for i := range b.Inverters {
		inv := &b.Inverters[i]
		if inv.Port == 0 {
			inv.Port = DefaultPort
		}
		if inv.TimeoutMs == 0 {
			inv.TimeoutMs = DefaultTimeoutMs
		}
		if inv.UnitIDRegister == 0 {
			inv.UnitIDRegister = DefaultUnitIDRegister
		}
	}

	// ------------------------------------------------------------
	// DISCOVERY + LOG
	// ------------------------------------------------------------

	if b.Discovery.Prefix == "" {
		b.Discovery.Prefix = DefaultDiscoveryTopic
	}
	b.Discovery.Prefix = strings.TrimSuffix(b.Discovery.Prefix, "/")

	if b.Log.Level == "" {
		b.Log.Level = DefaultLogLevel
	}
}

// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/sma2mqtt/internal/register"
)

// reservedIDs are topic segments the bridge itself publishes under the
// prefix. An inverter with one of these ids would shadow them.
var reservedIDs = map[string]struct{}{
	"status":     {},
	"sw-version": {},
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	b := &cfg.Bridge

	// ------------------------------------------------------------
	// BROKER + QOS
	// ------------------------------------------------------------

	if b.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	if b.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos %d out of range (0-2)", b.MQTT.QoS)
	}
	if b.MQTT.RateMs < 0 {
		return fmt.Errorf("mqtt: rate_ms must be >= 0")
	}
	if strings.ContainsAny(b.MQTT.TopicPrefix, "+#") {
		return fmt.Errorf("mqtt: topic_prefix must not contain wildcards")
	}
	if strings.ContainsAny(b.Discovery.Prefix, "+#") {
		return fmt.Errorf("discovery: prefix must not contain wildcards")
	}

	// ------------------------------------------------------------
	// POLL + RETRY
	// ------------------------------------------------------------

	if b.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must be >= 0")
	}
	r := b.Poll.Retry
	if r.Attempts < 0 || r.BaseDelayMs < 0 || r.MaxDelayMs < 0 {
		return fmt.Errorf("poll: retry values must be >= 0")
	}
	if r.MaxDelayMs != 0 && r.BaseDelayMs != 0 && r.MaxDelayMs < r.BaseDelayMs {
		return fmt.Errorf("poll: retry max_delay_ms %d is below base_delay_ms %d", r.MaxDelayMs, r.BaseDelayMs)
	}

	// ------------------------------------------------------------
	// INVERTERS (TOPIC COLLISIONS, TARGETS, TABLES)
	// ------------------------------------------------------------

	if len(b.Inverters) == 0 {
		return fmt.Errorf("at least one inverter is required")
	}

	// key = inverter id (one topic subtree per inverter)
	topicOwner := make(map[string]struct{})

	for _, inv := range b.Inverters {
		if inv.ID == "" {
			return fmt.Errorf("inverter: id is required")
		}
		if !topicSegment(inv.ID) {
			return fmt.Errorf("inverter %q: id must be a single topic segment (no '/', '+', '#', whitespace)", inv.ID)
		}
		if _, reserved := reservedIDs[inv.ID]; reserved {
			return fmt.Errorf("inverter %q: id shadows a bridge topic", inv.ID)
		}
		if _, dup := topicOwner[inv.ID]; dup {
			return fmt.Errorf("inverter %q: duplicate id", inv.ID)
		}
		topicOwner[inv.ID] = struct{}{}

		if inv.Host == "" {
			return fmt.Errorf("inverter %q: host is required", inv.ID)
		}
		if inv.Port < 0 || inv.Port > 65535 {
			return fmt.Errorf("inverter %q: port %d out of range", inv.ID, inv.Port)
		}
		if inv.TimeoutMs < 0 {
			return fmt.Errorf("inverter %q: timeout_ms must be >= 0", inv.ID)
		}

		table, err := validateRegisters(inv)
		if err != nil {
			return err
		}

		for _, name := range inv.Measurements {
			if _, ok := table[name]; !ok {
				return fmt.Errorf("inverter %q: unknown measurement %q", inv.ID, name)
			}
		}
	}

	return nil
}

// validateRegisters checks the extra descriptors of one inverter and returns
// the full name set (built-in plus extras) for whitelist validation.
func validateRegisters(inv InverterConfig) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	for _, d := range register.SunnyBoy() {
		names[d.Name] = struct{}{}
	}

	for _, rc := range inv.Registers {
		if rc.Name == "" {
			return nil, fmt.Errorf("inverter %q: register at address %d has no name", inv.ID, rc.Address)
		}
		if !topicSegment(rc.Name) {
			return nil, fmt.Errorf("inverter %q: register %q: name must be a single topic segment", inv.ID, rc.Name)
		}
		if _, dup := names[rc.Name]; dup {
			return nil, fmt.Errorf("inverter %q: register %q already defined", inv.ID, rc.Name)
		}
		names[rc.Name] = struct{}{}

		dt, err := register.ParseDataType(rc.Type)
		if err != nil {
			return nil, fmt.Errorf("inverter %q: register %q: %w", inv.ID, rc.Name, err)
		}
		if rc.Words == 0 {
			return nil, fmt.Errorf("inverter %q: register %q: words must be > 0", inv.ID, rc.Name)
		}
		if fixed := dt.Words(); fixed != 0 && rc.Words != fixed {
			return nil, fmt.Errorf("inverter %q: register %q: type %s spans %d words, got %d",
				inv.ID, rc.Name, dt, fixed, rc.Words)
		}
		if rc.Scale < 0 {
			return nil, fmt.Errorf("inverter %q: register %q: scale must be >= 0", inv.ID, rc.Name)
		}
		if rc.TagList && dt != register.U32 {
			return nil, fmt.Errorf("inverter %q: register %q: tag_list applies to u32 registers only", inv.ID, rc.Name)
		}
	}

	return names, nil
}

// topicSegment reports whether s is usable as a single MQTT topic level.
func topicSegment(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "/+#") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= 0x20 || s[i] == 0x7F {
			return false
		}
	}
	return true
}

// internal/config/config.go
package config

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	MQTT      MQTTConfig       `yaml:"mqtt"`
	Inverters []InverterConfig `yaml:"inverters"`
	Poll      PollConfig       `yaml:"poll"`
	Discovery DiscoveryConfig  `yaml:"discovery"`
	Log       LogConfig        `yaml:"log"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"` // tcp://host:1883; bare host:port gets tcp://
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         uint8  `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
	TopicPrefix string `yaml:"topic_prefix"`

	// Aggregate publishes one JSON object per inverter per cycle instead of
	// one message per measurement.
	Aggregate bool `yaml:"aggregate"`

	// RateMs is the pause between per-measurement publishes. 0 = no pacing.
	RateMs int `yaml:"rate_ms"`
}

// ---- INVERTER ----

type InverterConfig struct {
	ID        string `yaml:"id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	UnitID    uint8  `yaml:"unit_id"` // 0 = ask the device (identity block)
	TimeoutMs int    `yaml:"timeout_ms"`

	// UnitIDRegister is the holding register of the identity block.
	// 0 means the vendor default (42109).
	UnitIDRegister uint16 `yaml:"unit_id_register"`

	// Measurements narrows the built-in table to the named entries.
	// Empty means everything.
	Measurements []string `yaml:"measurements"`

	// Registers adds descriptors beyond the built-in table.
	Registers []RegisterConfig `yaml:"registers"`
}

// ---- REGISTER ----

type RegisterConfig struct {
	Name        string  `yaml:"name"`
	Address     uint16  `yaml:"address"`
	Words       uint16  `yaml:"words"`
	Type        string  `yaml:"type"`
	Scale       float64 `yaml:"scale"`
	Unit        string  `yaml:"unit"`
	DeviceClass string  `yaml:"device_class"`
	StateClass  string  `yaml:"state_class"`
	TagList     bool    `yaml:"tag_list"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int         `yaml:"interval_ms"`
	Retry      RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	Attempts    int `yaml:"attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// ---- DISCOVERY ----

type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Prefix      string `yaml:"prefix"`
	ClearOnExit bool   `yaml:"clear_on_exit"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

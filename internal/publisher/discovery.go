// internal/publisher/discovery.go
package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/tamzrod/sma2mqtt/internal/poller"
)

// Home Assistant discovery payload, abbreviated keys per the HA MQTT
// discovery scheme.
type sensorConfig struct {
	Name              string       `json:"name"`
	StateTopic        string       `json:"stat_t"`
	AvailabilityTopic string       `json:"avty_t"`
	UniqueID          string       `json:"uniq_id"`
	DeviceClass       string       `json:"dev_cla,omitempty"`
	StateClass        string       `json:"stat_cla,omitempty"`
	UnitOfMeasurement string       `json:"unit_of_meas,omitempty"`
	Device            deviceConfig `json:"dev"`
}

type deviceConfig struct {
	IDs          string `json:"ids"`
	Name         string `json:"name"`
	Manufacturer string `json:"mf,omitempty"`
	Model        string `json:"mdl,omitempty"`
}

// Announce publishes one retained discovery config per measurement in the
// result. Each inverter/measurement pair is announced at most once per
// process lifetime; a measurement that first shows up on a later cycle is
// announced then.
func (p *Publisher) Announce(res poller.PollResult) error {
	if !p.disc.Enabled {
		return nil
	}

	node := nodeID(res)
	dev := deviceConfig{
		IDs:          node,
		Name:         res.Inverter,
		Manufacturer: "SMA",
		Model:        "Sunny Boy",
	}

	for _, r := range res.Readings {
		name := r.Descriptor.Name
		key := res.Inverter + "/" + name
		if _, done := p.announced[key]; done {
			continue
		}

		sc := sensorConfig{
			Name:              name,
			StateTopic:        p.cfg.TopicPrefix + "/" + res.Inverter + "/" + name,
			AvailabilityTopic: p.cfg.TopicPrefix + "/" + res.Inverter + "/status",
			UniqueID:          node + "_" + name,
			DeviceClass:       r.Descriptor.DeviceClass,
			StateClass:        r.Descriptor.StateClass,
			UnitOfMeasurement: r.Descriptor.Unit,
			Device:            dev,
		}

		payload, err := json.Marshal(sc)
		if err != nil {
			return fmt.Errorf("publisher: encode discovery for %s: %w", key, err)
		}

		topic := p.disc.Prefix + "/sensor/" + node + "/" + name + "/config"
		if err := p.publish(topic, string(payload), true); err != nil {
			return err
		}

		p.announced[key] = topic
		p.log.Debug().Str("topic", topic).Msg("discovery announced")
	}

	return nil
}

// ClearDiscovery retracts every announced config by publishing an empty
// retained payload. Used on shutdown when clear_on_exit is set.
func (p *Publisher) ClearDiscovery() error {
	if !p.disc.Enabled || !p.disc.ClearOnExit {
		return nil
	}

	var last error
	for _, topic := range p.announced {
		if err := p.publish(topic, "", true); err != nil {
			last = err
		}
	}
	return last
}

// nodeID keys the HA device on the serial number when the identity block
// gave us one, else on the configured inverter id.
func nodeID(res poller.PollResult) string {
	if res.Identity.Serial != 0 {
		return fmt.Sprintf("sma_%d", res.Identity.Serial)
	}
	return "sma_" + res.Inverter
}

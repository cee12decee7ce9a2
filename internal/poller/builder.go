// internal/poller/builder.go
package poller

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/sma2mqtt/internal/config"
	pmodbus "github.com/tamzrod/sma2mqtt/internal/poller/modbus"
	"github.com/tamzrod/sma2mqtt/internal/register"
)

// Build constructs the runner and one inverter pipeline per config entry.
// Connections are dialed lazily; on transport death an inverter discards
// its client and the factory is used again on a future attempt.
func Build(b cfg.BridgeConfig, log zerolog.Logger) (*Runner, error) {
	retry := Backoff{
		Attempts: b.Poll.Retry.Attempts,
		Base:     time.Duration(b.Poll.Retry.BaseDelayMs) * time.Millisecond,
		Max:      time.Duration(b.Poll.Retry.MaxDelayMs) * time.Millisecond,
	}

	inverters := make([]*Inverter, 0, len(b.Inverters))
	for _, ic := range b.Inverters {
		table, err := buildTable(ic)
		if err != nil {
			return nil, err
		}

		endpoint := net.JoinHostPort(ic.Host, strconv.Itoa(ic.Port))
		timeout := time.Duration(ic.TimeoutMs) * time.Millisecond

		// client factory: ONE attempt per call
		factory := func() (Client, error) {
			return pmodbus.NewDeviceClient(pmodbus.Config{
				Endpoint: endpoint,
				Timeout:  timeout,
			})
		}

		inv, err := NewInverter(
			Config{
				ID:              ic.ID,
				UnitID:          ic.UnitID,
				IdentityAddress: ic.UnitIDRegister,
				Table:           table,
				Retry:           retry,
			},
			factory,
			log.With().Str("inverter", ic.ID).Logger(),
		)
		if err != nil {
			return nil, err
		}

		inverters = append(inverters, inv)
	}

	return NewRunner(inverters, time.Duration(b.Poll.IntervalMs)*time.Millisecond, log)
}

// buildTable merges the built-in Sunny Boy table with config-defined
// registers, then applies the measurement whitelist.
func buildTable(ic cfg.InverterConfig) ([]register.Descriptor, error) {
	table := register.SunnyBoy()

	for _, rc := range ic.Registers {
		dt, err := register.ParseDataType(rc.Type)
		if err != nil {
			return nil, fmt.Errorf("inverter %s: register %q: %w", ic.ID, rc.Name, err)
		}
		table = append(table, register.Descriptor{
			Name:        rc.Name,
			Address:     rc.Address,
			Words:       rc.Words,
			Type:        dt,
			Scale:       rc.Scale,
			Unit:        rc.Unit,
			DeviceClass: rc.DeviceClass,
			StateClass:  rc.StateClass,
			TagList:     rc.TagList,
		})
	}

	if len(ic.Measurements) == 0 {
		return table, nil
	}

	keep := make(map[string]struct{}, len(ic.Measurements))
	for _, m := range ic.Measurements {
		keep[m] = struct{}{}
	}

	out := make([]register.Descriptor, 0, len(ic.Measurements))
	for _, d := range table {
		if _, ok := keep[d.Name]; ok {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("inverter %s: measurement whitelist matches nothing", ic.ID)
	}
	return out, nil
}

// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	pmodbus "github.com/tamzrod/sma2mqtt/internal/poller/modbus"
	"github.com/tamzrod/sma2mqtt/internal/register"
)

// Client abstracts the Modbus operations the poller needs.
type Client interface {
	ReadHolding(unitID uint8, addr, qty uint16) ([]uint16, error) // FC 3
	ReadInput(unitID uint8, addr, qty uint16) ([]uint16, error)   // FC 4
	Close() error
}

// Factory dials one connection. ONE attempt per call.
type Factory func() (Client, error)

// Config is the per-inverter runtime config.
type Config struct {
	ID              string
	UnitID          uint8  // 0 = use the unit id the identity block reports
	IdentityAddress uint16 // holding register of the identity block
	Table           []register.Descriptor
	Retry           Backoff
}

// Inverter polls one device. Not safe for concurrent use; the runner is
// the only caller.
type Inverter struct {
	cfg     Config
	factory Factory
	log     zerolog.Logger

	client  Client // nil until the first cycle needs it
	ident   Identity
	haveID  bool
	counter uint64
}

// NewInverter creates an inverter pipeline with immutable config.
// No IO: the connection is dialed lazily on the first cycle.
func NewInverter(cfg Config, factory Factory, log zerolog.Logger) (*Inverter, error) {
	if cfg.ID == "" {
		return nil, errors.New("poller: inverter id required")
	}
	if factory == nil {
		return nil, errors.New("poller: client factory required")
	}
	if len(cfg.Table) == 0 {
		return nil, errors.New("poller: at least one measurement required")
	}
	if cfg.IdentityAddress == 0 {
		return nil, errors.New("poller: identity address required")
	}
	if cfg.Retry.Attempts <= 0 {
		return nil, errors.New("poller: retry attempts must be > 0")
	}
	return &Inverter{cfg: cfg, factory: factory, log: log}, nil
}

// PollOnce performs exactly one poll cycle.
// Transport failures abort the cycle once the retry budget is spent; a
// measurement the device declines or holds no value for is skipped
// without failing the cycle.
func (inv *Inverter) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		Inverter: inv.cfg.ID,
		At:       time.Now(),
	}

	if err := inv.ensureIdentity(ctx); err != nil {
		res.Err = err
		return res
	}
	res.Identity = inv.ident

	for _, d := range inv.cfg.Table {
		words, err := inv.readWithRetry(ctx, func(cli Client) ([]uint16, error) {
			return cli.ReadInput(inv.ident.UnitID, d.Address, d.Words)
		})
		if err != nil {
			if pmodbus.IsException(err) {
				// The device answered and said no. Routine while the DC
				// side is down; skip the measurement.
				inv.log.Debug().Str("measurement", d.Name).Err(err).Msg("read declined")
				continue
			}
			res.Readings = nil
			res.Err = fmt.Errorf("inverter %s: %s: %w", inv.cfg.ID, d.Name, err)
			return res
		}

		v, ok, derr := register.Decode(d, words)
		if derr != nil {
			inv.log.Warn().Str("measurement", d.Name).Err(derr).Msg("measurement skipped")
			continue
		}
		if !ok {
			// Not-a-number sentinel: no value right now.
			continue
		}

		res.Readings = append(res.Readings, Reading{Descriptor: d, Raw: words, Value: v})
	}

	inv.counter++
	res.Counter = inv.counter
	return res
}

// ensureIdentity reads the identity block once per process lifetime.
func (inv *Inverter) ensureIdentity(ctx context.Context) error {
	if inv.haveID {
		return nil
	}

	words, err := inv.readWithRetry(ctx, func(cli Client) ([]uint16, error) {
		return cli.ReadHolding(identityUnit, inv.cfg.IdentityAddress, identityWords)
	})
	if err != nil {
		return fmt.Errorf("inverter %s: identity block: %w", inv.cfg.ID, err)
	}

	ident, err := parseIdentity(words)
	if err != nil {
		return fmt.Errorf("inverter %s: %w", inv.cfg.ID, err)
	}
	if inv.cfg.UnitID != 0 {
		ident.UnitID = inv.cfg.UnitID
	}

	inv.ident = ident
	inv.haveID = true
	inv.log.Info().
		Uint32("serial", ident.Serial).
		Uint16("susy_id", ident.SusyID).
		Uint8("unit_id", ident.UnitID).
		Msg("inverter identified")
	return nil
}

// readWithRetry runs one read through the retry budget. The connection is
// dialed lazily and discarded on transport failure so the next attempt
// starts fresh. Exception responses come back unretried.
func (inv *Inverter) readWithRetry(ctx context.Context, op func(Client) ([]uint16, error)) ([]uint16, error) {
	var lastErr error

	for attempt := 0; attempt < inv.cfg.Retry.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(inv.cfg.Retry.Delay(attempt - 1)):
			}
		}

		cli, err := inv.ensureClient()
		if err != nil {
			lastErr = err
			inv.log.Debug().Int("attempt", attempt+1).Err(err).Msg("dial failed")
			continue
		}

		words, err := op(cli)
		if err == nil {
			return words, nil
		}
		if pmodbus.IsException(err) {
			return nil, err
		}

		lastErr = err
		inv.dropClient()
		inv.log.Debug().Int("attempt", attempt+1).Err(err).Msg("read failed")
	}

	return nil, lastErr
}

// ensureClient dials on first use and after transport death.
func (inv *Inverter) ensureClient() (Client, error) {
	if inv.client != nil {
		return inv.client, nil
	}
	cli, err := inv.factory()
	if err != nil {
		return nil, err
	}
	inv.client = cli
	return cli, nil
}

func (inv *Inverter) dropClient() {
	if inv.client == nil {
		return
	}
	_ = inv.client.Close()
	inv.client = nil
}

// Close releases the connection if one is open.
func (inv *Inverter) Close() error {
	if inv.client == nil {
		return nil
	}
	err := inv.client.Close()
	inv.client = nil
	return err
}

// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Transport failure vocabulary. Exception responses are never wrapped in
// these: the device answered, it just said no.
var (
	ErrTimeout    = errors.New("modbus: request timed out")
	ErrConnection = errors.New("modbus: connection failed")
)

// DeviceClient is a single TCP connection to one inverter.
// It serializes requests because it mutates SlaveId per read.
type DeviceClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewDeviceClient(cfg Config) (*DeviceClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("poller modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, translate(err)
	}

	return &DeviceClient{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *DeviceClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadHolding reads qty holding registers (function 3) from unitID.
func (c *DeviceClient) ReadHolding(unitID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	payload, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, translate(err)
	}
	return unpackRegisters(payload, qty)
}

// ReadInput reads qty input registers (function 4) from unitID.
func (c *DeviceClient) ReadInput(unitID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	payload, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, translate(err)
	}
	return unpackRegisters(payload, qty)
}

// IsException reports whether err is a Modbus exception response. SMA
// inverters answer with one for register blocks that hold no value while
// the DC side is down.
func IsException(err error) bool {
	var me *modbus.ModbusError
	return errors.As(err, &me)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case IsException(err):
		return err
	case isTimeout(err):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// unpackRegisters splits a big-endian response payload into words.
func unpackRegisters(payload []byte, qty uint16) ([]uint16, error) {
	if len(payload) != int(qty)*2 {
		return nil, fmt.Errorf("%w: response carries %d bytes, want %d",
			ErrConnection, len(payload), int(qty)*2)
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = uint16(payload[2*i])<<8 | uint16(payload[2*i+1])
	}
	return out, nil
}

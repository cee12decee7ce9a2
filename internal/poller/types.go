// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/sma2mqtt/internal/register"
)

// Identity is the identification block every SMA device exposes over
// holding registers: serial number, system id and the unit id that all
// data reads must address.
type Identity struct {
	Serial uint32
	SusyID uint16
	UnitID uint8
}

// Reading is one decoded measurement from one poll cycle.
type Reading struct {
	Descriptor register.Descriptor
	Raw        []uint16
	Value      register.Value
}

// PollResult is a snapshot produced by one poll cycle for one inverter.
type PollResult struct {
	Inverter string
	At       time.Time

	// Counter increments once per completed cycle, starting at 1.
	Counter uint64

	Identity Identity
	Readings []Reading

	Err error // non-nil means the cycle failed and Readings is empty
}

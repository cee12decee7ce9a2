// internal/status/status.go
package status

// Availability states and transition tracking for polled inverters.
// These payloads are part of the external topic contract and MUST NOT
// be configurable.

// State is the availability of one inverter as published on its status topic.
type State string

const (
	// StateUnknown is the boot state, before any poll outcome.
	StateUnknown State = ""

	// StateOnline means the last poll cycle reached the device.
	StateOnline State = "online"

	// StateOffline means the last poll cycle exhausted its retries.
	StateOffline State = "offline"
)

// ---- BRIDGE STATUS PAYLOADS ----

const (
	// BridgeOnline is retained on the bridge status topic at startup.
	BridgeOnline = "online"

	// BridgeOffline is retained on the bridge status topic at clean shutdown.
	BridgeOffline = "offline"

	// BridgeInterrupted is the broker-delivered last-will payload: the
	// bridge died without saying goodbye.
	BridgeInterrupted = "interrupted"
)

// Tracker folds poll outcomes into availability transitions.
// It contains no logic beyond edge detection and performs no I/O.
type Tracker struct {
	cur State
}

// Update folds one poll outcome. The boolean is true when the state changed,
// which is the caller's cue to publish the new state.
func (t *Tracker) Update(ok bool) (State, bool) {
	next := StateOffline
	if ok {
		next = StateOnline
	}
	if next == t.cur {
		return next, false
	}
	t.cur = next
	return next, true
}

// State returns the current availability.
func (t *Tracker) State() State {
	return t.cur
}

package session

import "time"

// State is the connection state of one live session. Exactly one value exists
// per live session at any instant; a session absent from the registry is
// implicitly disconnected.
type State string

const (
	StateDisconnected   State = "disconnected"
	StateConnecting     State = "connecting"
	StatePairingPending State = "pairing_pending"
	StateConnected      State = "connected"
	StateLoggedOut      State = "logged_out"
)

// Snapshot is a point-in-time copy of a live session's state. PairingCode is
// populated only while pairing is pending; Phone only once pairing completed.
type Snapshot struct {
	Identity       string
	State          State
	Phone          string
	PairingCode    string
	ConnectedAt    time.Time
	PersistWarning string
}

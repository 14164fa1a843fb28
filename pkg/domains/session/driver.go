package session

import (
	"context"
	"strings"
)

// EventKind classifies driver events.
type EventKind string

const (
	// EventCode carries a fresh pairing code to scan.
	EventCode EventKind = "code"
	// EventPaired signals an authenticated connection, either from a
	// completed pairing or from reused stored credentials.
	EventPaired EventKind = "paired"
	// EventConnectLost signals a transient connection drop.
	EventConnectLost EventKind = "connect_lost"
	// EventLoggedOut signals a remote-initiated logout; stored credentials
	// are no longer valid.
	EventLoggedOut EventKind = "logged_out"
	// EventMessage carries an inbound text message.
	EventMessage EventKind = "message"
)

// Event is one occurrence on a driver's event stream.
type Event struct {
	Kind   EventKind
	Code   string // EventCode
	Phone  string // EventPaired
	Sender string // EventMessage
	Text   string // EventMessage
}

// Driver is the narrow command/event surface of one protocol connection. The
// state machine never touches the network stack directly, which lets tests
// substitute a scripted fake.
type Driver interface {
	Connect(ctx context.Context) error
	Disconnect()
	Logout(ctx context.Context) error
	SendText(ctx context.Context, phone, text string) error
	Events() <-chan Event
}

// DriverFactory builds a driver for one session identity.
type DriverFactory func(identity string) (Driver, error)

// NormalizeIdentity trims and case-folds a raw identity. The normalized value
// keys the registry map, the credential directory and the durable row alike.
func NormalizeIdentity(raw string) (string, error) {
	identity := strings.ToLower(strings.TrimSpace(raw))
	if identity == "" {
		return "", ErrInvalidIdentity
	}
	return identity, nil
}

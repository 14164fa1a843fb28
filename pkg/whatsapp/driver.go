package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/credentials"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/session"
	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"
)

const sessionDBFile = "session.db"

// Driver adapts a whatsmeow client to the narrow command/event surface the
// session machine drives. Each driver owns one sqlite store file inside the
// identity's credential directory, so clearing credentials wipes the device
// state too.
type Driver struct {
	identity string
	creds    *credentials.Store

	client    *whatsmeow.Client
	container *sqlstore.Container
	events    chan session.Event

	mu      sync.Mutex
	stopped bool
}

// NewFactory builds whatsmeow drivers rooted at the credential store.
func NewFactory(creds *credentials.Store) session.DriverFactory {
	return func(identity string) (session.Driver, error) {
		return &Driver{
			identity: identity,
			creds:    creds,
			events:   make(chan session.Event, 64),
		}, nil
	}
}

func (d *Driver) Events() <-chan session.Event {
	return d.events
}

func (d *Driver) Connect(ctx context.Context) error {
	if d.client == nil {
		if err := d.initClient(ctx); err != nil {
			return err
		}
	}

	if d.client.Store.ID == nil {
		// Not paired yet: the QR channel must be requested before the
		// connection opens. The pairing outlives this call, so the
		// channel is not tied to the caller's context.
		qrChan, err := d.client.GetQRChannel(context.Background())
		if err != nil && !errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		if err := d.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		if qrChan != nil {
			go d.pumpQR(qrChan)
		}
		return nil
	}

	err := d.client.Connect()
	if errors.Is(err, whatsmeow.ErrAlreadyConnected) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

func (d *Driver) initClient(ctx context.Context) error {
	dir := d.creds.Dir(d.identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	clientLog := waLog.Stdout(fmt.Sprintf("wa-%s", d.identity), "WARN", true)
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", filepath.Join(dir, sessionDBFile))
	container, err := sqlstore.New(ctx, "sqlite", dsn, clientLog)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	d.container = container

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	d.client = whatsmeow.NewClient(device, clientLog)
	// The session machine owns the reconnect policy.
	d.client.EnableAutoReconnect = false
	d.client.AddEventHandler(d.handleEvent)
	return nil
}

func (d *Driver) pumpQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			d.emit(session.Event{Kind: session.EventCode, Code: evt.Code})
		case "success":
			// The Connected event carries the paired phone.
		case "timeout", "error":
			d.emit(session.Event{Kind: session.EventConnectLost})
		}
	}
}

func (d *Driver) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.PairSuccess:
		if err := d.creds.WriteIdentity(d.identity, v.ID.String(), v.BusinessName); err != nil {
			log.Warn().Err(err).Str("session", d.identity).Msg("failed to write pairing credentials")
		}
	case *events.Connected:
		phone := ""
		if id := d.client.Store.ID; id != nil {
			phone = id.User
			if err := d.creds.WriteIdentity(d.identity, id.String(), d.client.Store.PushName); err != nil {
				log.Warn().Err(err).Str("session", d.identity).Msg("failed to write pairing credentials")
			}
		}
		d.emit(session.Event{Kind: session.EventPaired, Phone: phone})
	case *events.LoggedOut:
		d.emit(session.Event{Kind: session.EventLoggedOut})
	case *events.Disconnected:
		d.emit(session.Event{Kind: session.EventConnectLost})
	case *events.Message:
		d.emit(session.Event{
			Kind:   session.EventMessage,
			Sender: v.Info.Sender.User,
			Text:   extractText(v),
		})
	}
}

func extractText(msg *events.Message) string {
	if msg.Message == nil {
		return ""
	}
	if text := msg.Message.GetConversation(); text != "" {
		return text
	}
	if ext := msg.Message.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

func (d *Driver) SendText(ctx context.Context, phone, text string) error {
	if d.client == nil {
		return errors.New("client not initialized")
	}

	recipient, err := formatPhoneNumber(phone)
	if err != nil {
		return err
	}

	_, err = d.client.SendMessage(ctx, recipient, &waProto.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (d *Driver) Logout(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	return d.client.Logout(ctx)
}

func (d *Driver) Disconnect() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	if d.client != nil {
		d.client.RemoveEventHandlers()
		d.client.Disconnect()
	}
	if d.container != nil {
		d.container.Close()
	}
}

// emit never blocks the whatsmeow event loop: a full channel drops the event
// with a warning instead of stalling the connection.
func (d *Driver) emit(ev session.Event) {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}

	select {
	case d.events <- ev:
	default:
		log.Warn().Str("session", d.identity).Str("kind", string(ev.Kind)).Msg("event channel full, dropping event")
	}
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// formatPhoneNumber converts a phone number to a WhatsApp JID.
func formatPhoneNumber(phoneNumber string) (waTypes.JID, error) {
	cleanPhone := nonPhoneChars.ReplaceAllString(phoneNumber, "")
	cleanPhone = strings.TrimPrefix(cleanPhone, "+")

	if len(cleanPhone) < 10 {
		return waTypes.JID{}, fmt.Errorf("invalid phone number: too short")
	}

	return waTypes.NewJID(cleanPhone, waTypes.DefaultUserServer), nil
}

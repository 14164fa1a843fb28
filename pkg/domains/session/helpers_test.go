package session

import (
	"context"
	"sync"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"gorm.io/gorm"
)

// fakeDriver is a scripted stand-in for the protocol connection. Tests drive
// the machine by emitting events on its channel.
type fakeDriver struct {
	mu            sync.Mutex
	events        chan Event
	connectErr    error
	connectCalls  int
	disconnects   int
	logouts       int
	sent          []sentText
	onConnect     func(d *fakeDriver, call int)
	blockTeardown chan struct{}
}

type sentText struct {
	phone string
	text  string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{events: make(chan Event, 16)}
}

func (d *fakeDriver) Connect(ctx context.Context) error {
	d.mu.Lock()
	d.connectCalls++
	call := d.connectCalls
	err := d.connectErr
	hook := d.onConnect
	d.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(d, call)
	}
	return nil
}

func (d *fakeDriver) Disconnect() {
	d.mu.Lock()
	d.disconnects++
	block := d.blockTeardown
	d.mu.Unlock()

	if block != nil {
		<-block
	}
}

func (d *fakeDriver) Logout(ctx context.Context) error {
	d.mu.Lock()
	d.logouts++
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) SendText(ctx context.Context, phone, text string) error {
	d.mu.Lock()
	d.sent = append(d.sent, sentText{phone: phone, text: text})
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Events() <-chan Event {
	return d.events
}

func (d *fakeDriver) emit(ev Event) {
	d.events <- ev
}

func (d *fakeDriver) setConnectErr(err error) {
	d.mu.Lock()
	d.connectErr = err
	d.mu.Unlock()
}

func (d *fakeDriver) connects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectCalls
}

func (d *fakeDriver) sentMessages() []sentText {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentText(nil), d.sent...)
}

// fakeFactory hands out one scripted driver per creation, tracking how many
// machines the registry built.
type fakeFactory struct {
	mu        sync.Mutex
	drivers   []*fakeDriver
	configure func(call int, d *fakeDriver)
}

func (f *fakeFactory) make(identity string) (Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := newFakeDriver()
	if f.configure != nil {
		f.configure(len(f.drivers)+1, d)
	}
	f.drivers = append(f.drivers, d)
	return d, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drivers)
}

func (f *fakeFactory) driver(i int) *fakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drivers[i]
}

// memRepo is an in-memory Repository.
type memRepo struct {
	mu      sync.Mutex
	records map[string]entities.SessionRecord
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]entities.SessionRecord)}
}

func (r *memRepo) Save(ctx context.Context, record *entities.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	if existing, ok := r.records[record.Identity]; ok {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = time.Now()
	}
	r.records[record.Identity] = *record
	return nil
}

func (r *memRepo) Find(ctx context.Context, identity string) (entities.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[identity]
	if !ok {
		return entities.SessionRecord{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *memRepo) FindAll(ctx context.Context) ([]entities.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []entities.SessionRecord
	for _, record := range r.records {
		all = append(all, record)
	}
	return all, nil
}

func (r *memRepo) Delete(ctx context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, identity)
	return nil
}

func (r *memRepo) status(identity string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[identity].Status
}

func (r *memRepo) setSaveErr(err error) {
	r.mu.Lock()
	r.saveErr = err
	r.mu.Unlock()
}

// stubIgnored marks a fixed set of phones as suppressed.
type stubIgnored struct {
	phones map[string]bool
}

func (s stubIgnored) IsIgnored(ctx context.Context, phone string) bool {
	return s.phones[phone]
}

// stubTriggerRepo feeds the trigger service a mutable definition list.
type stubTriggerRepo struct {
	mu       sync.Mutex
	triggers []entities.Trigger
}

func (s *stubTriggerRepo) FindAllEnabled(ctx context.Context) ([]entities.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Trigger(nil), s.triggers...), nil
}

func (s *stubTriggerRepo) set(triggers []entities.Trigger) {
	s.mu.Lock()
	s.triggers = triggers
	s.mu.Unlock()
}

func testOptions() Options {
	return Options{
		StartTimeout:        2 * time.Second,
		StopTimeout:         200 * time.Millisecond,
		ShutdownTimeout:     500 * time.Millisecond,
		ReconnectAttempts:   3,
		ReconnectBackoff:    5 * time.Millisecond,
		ReconnectBackoffMax: 20 * time.Millisecond,
	}
}

func emitCode(code string) func(d *fakeDriver, call int) {
	return func(d *fakeDriver, call int) {
		d.emit(Event{Kind: EventCode, Code: code})
	}
}

func emitPaired(phone string) func(d *fakeDriver, call int) {
	return func(d *fakeDriver, call int) {
		d.emit(Event{Kind: EventPaired, Phone: phone})
	}
}

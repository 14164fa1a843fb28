package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/credentials"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/trigger"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	persistTimeout = 5 * time.Second
	messageTimeout = 30 * time.Second
)

// IgnoredChecker gates automated responses. Implemented by the ignored
// contacts service.
type IgnoredChecker interface {
	IsIgnored(ctx context.Context, phone string) bool
}

// machine owns the connection state of a single session. All transitions run
// either on its event goroutine or under the registry's identity lock, and
// each transition mirrors the new status to the durable record before the
// next one can begin.
type machine struct {
	identity string
	driver   Driver
	repo     Repository
	creds    *credentials.Store
	ignored  IgnoredChecker
	opts     Options
	log      zerolog.Logger

	triggers atomic.Pointer[trigger.Set]

	// tmu serializes transition+persist pairs so a stale status can never
	// overwrite a newer one. mu only guards the snapshot, keeping reads
	// free of database latency.
	tmu  sync.Mutex
	mu   sync.Mutex
	snap Snapshot

	ready     chan struct{}
	readyOnce sync.Once
	readyErr  error

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newMachine(identity string, driver Driver, repo Repository, creds *credentials.Store, ignored IgnoredChecker, opts Options) *machine {
	return &machine{
		identity: identity,
		driver:   driver,
		repo:     repo,
		creds:    creds,
		ignored:  ignored,
		opts:     opts,
		log:      log.With().Str("session", identity).Logger(),
		snap: Snapshot{
			Identity: identity,
			State:    StateConnecting,
		},
		ready:  make(chan struct{}),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *machine) snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *machine) setTriggers(set *trigger.Set) {
	m.triggers.Store(set)
}

// transition applies a mutation and mirrors the result to the durable record.
// A persistence failure does not roll the in-memory state back; it is logged
// and kept on the snapshot as a warning for the next command response.
func (m *machine) transition(mut func(*Snapshot)) Snapshot {
	m.tmu.Lock()
	defer m.tmu.Unlock()

	m.mu.Lock()
	mut(&m.snap)
	snap := m.snap
	m.mu.Unlock()

	warning := ""
	if err := m.persist(snap); err != nil {
		warning = err.Error()
		m.log.Warn().Err(err).Str("status", string(snap.State)).Msg("failed to persist session transition")
	}

	m.mu.Lock()
	m.snap.PersistWarning = warning
	snap = m.snap
	m.mu.Unlock()
	return snap
}

func (m *machine) persist(snap Snapshot) error {
	if m.repo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	record := &entities.SessionRecord{
		Identity: snap.Identity,
		Status:   string(snap.State),
		Phone:    snap.Phone,
	}
	if !snap.ConnectedAt.IsZero() {
		connectedAt := snap.ConnectedAt
		record.ConnectedAt = &connectedAt
	}
	return m.repo.Save(ctx, record)
}

// signalReady releases callers blocked in awaitReady. Only the first signal
// counts; later transitions are observed through snapshots.
func (m *machine) signalReady(err error) {
	m.readyOnce.Do(func() {
		m.readyErr = err
		close(m.ready)
	})
}

// awaitReady blocks until the session reaches a presentable state: a pairing
// code is available or the connection is authenticated.
func (m *machine) awaitReady(ctx context.Context, timeout time.Duration) (Snapshot, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.ready:
		if m.readyErr != nil {
			return m.snapshot(), m.readyErr
		}
		return m.snapshot(), nil
	case <-ctx.Done():
		return m.snapshot(), fmt.Errorf("%w: %v", ErrConnectionTimeout, ctx.Err())
	case <-timer.C:
		return m.snapshot(), ErrConnectionTimeout
	}
}

// fail marks an initial connection attempt as failed.
func (m *machine) fail(err error) {
	m.transition(func(s *Snapshot) {
		s.State = StateDisconnected
		s.PairingCode = ""
	})
	m.signalReady(fmt.Errorf("%w: %v", ErrConnection, err))
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// shutdown stops the event loop and disconnects the driver, waiting up to
// timeout. Returns false when the teardown did not finish in time; the
// caller abandons the machine in that case.
func (m *machine) shutdown(timeout time.Duration) bool {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.signalReady(fmt.Errorf("%w: session stopped", ErrConnection))

	finished := make(chan struct{})
	go func() {
		m.driver.Disconnect()
		<-m.done
		close(finished)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-finished:
		return true
	case <-timer.C:
		return false
	}
}

// run drives the session's event stream until stopped or the driver reports
// a terminal condition.
func (m *machine) run() {
	defer close(m.done)
	for {
		select {
		case <-m.stopCh:
			return
		case ev, ok := <-m.driver.Events():
			if !ok {
				return
			}
			if m.handleEvent(ev) {
				return
			}
		}
	}
}

func (m *machine) handleEvent(ev Event) (terminal bool) {
	switch ev.Kind {
	case EventCode:
		m.transition(func(s *Snapshot) {
			s.State = StatePairingPending
			s.PairingCode = ev.Code
		})
		m.signalReady(nil)

	case EventPaired:
		m.transition(func(s *Snapshot) {
			s.State = StateConnected
			s.Phone = ev.Phone
			s.PairingCode = ""
			s.ConnectedAt = time.Now()
		})
		m.signalReady(nil)
		m.log.Info().Str("phone", ev.Phone).Msg("session connected")

	case EventConnectLost:
		return m.reconnect()

	case EventLoggedOut:
		m.transition(func(s *Snapshot) {
			s.State = StateLoggedOut
			s.PairingCode = ""
		})
		if m.creds != nil {
			if err := m.creds.Clear(m.identity); err != nil {
				m.log.Warn().Err(err).Msg("failed to clear credentials after remote logout")
			}
		}
		m.driver.Disconnect()
		m.signalReady(fmt.Errorf("%w: logged out by remote", ErrConnection))
		m.log.Warn().Msg("session logged out by remote, pairing required")
		return true

	case EventMessage:
		m.handleMessage(ev)
	}
	return false
}

// reconnect re-attempts the connection after a transient loss, with capped
// exponential backoff. Remote logouts never reach here.
func (m *machine) reconnect() (terminal bool) {
	m.transition(func(s *Snapshot) {
		s.State = StateConnecting
		s.PairingCode = ""
	})

	backoff := m.opts.ReconnectBackoff
	for attempt := 1; attempt <= m.opts.ReconnectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.StartTimeout)
		err := m.driver.Connect(ctx)
		cancel()
		if err == nil {
			m.log.Info().Int("attempt", attempt).Msg("reconnect initiated")
			return false
		}

		m.log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
		select {
		case <-m.stopCh:
			return true
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > m.opts.ReconnectBackoffMax {
			backoff = m.opts.ReconnectBackoffMax
		}
	}

	m.transition(func(s *Snapshot) {
		s.State = StateDisconnected
	})
	m.log.Error().Int("attempts", m.opts.ReconnectAttempts).Msg("reconnect attempts exhausted")
	return true
}

// handleMessage runs the auto-response pipeline for one inbound message:
// suppression check first, then trigger keyword matching.
func (m *machine) handleMessage(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if m.ignored != nil && m.ignored.IsIgnored(ctx, ev.Sender) {
		m.log.Debug().Str("sender", ev.Sender).Msg("sender is ignored, skipping auto-response")
		return
	}

	steps := m.triggers.Load().Match(ev.Text)
	for _, step := range steps {
		if step.Delay > 0 {
			select {
			case <-m.stopCh:
				return
			case <-time.After(step.Delay):
			}
		}
		if err := m.driver.SendText(ctx, ev.Sender, step.Body); err != nil {
			m.log.Warn().Err(err).Str("recipient", ev.Sender).Msg("failed to send trigger step")
			return
		}
	}
}

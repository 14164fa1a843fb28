package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/credentials"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/trigger"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Options struct {
	StartTimeout        time.Duration
	StopTimeout         time.Duration
	ShutdownTimeout     time.Duration
	ReconnectAttempts   int
	ReconnectBackoff    time.Duration
	ReconnectBackoffMax time.Duration
}

func (o Options) withDefaults() Options {
	if o.StartTimeout <= 0 {
		o.StartTimeout = 60 * time.Second
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 10 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 20 * time.Second
	}
	if o.ReconnectAttempts <= 0 {
		o.ReconnectAttempts = 8
	}
	if o.ReconnectBackoff <= 0 {
		o.ReconnectBackoff = time.Second
	}
	if o.ReconnectBackoffMax <= 0 {
		o.ReconnectBackoffMax = time.Minute
	}
	return o
}

// Registry is the process-wide directory of live sessions. Mutations on one
// identity are serialized behind an identity-scoped lock; distinct identities
// proceed fully in parallel. Reads never take identity locks.
type Registry struct {
	opts     Options
	factory  DriverFactory
	repo     Repository
	creds    *credentials.Store
	ignored  IgnoredChecker
	triggers trigger.Service

	mu       sync.RWMutex
	machines map[string]*machine
	locks    map[string]*sync.Mutex
}

func NewRegistry(opts Options, factory DriverFactory, repo Repository, creds *credentials.Store, ignored IgnoredChecker, triggers trigger.Service) *Registry {
	return &Registry{
		opts:     opts.withDefaults(),
		factory:  factory,
		repo:     repo,
		creds:    creds,
		ignored:  ignored,
		triggers: triggers,
		machines: make(map[string]*machine),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *Registry) identityLock(identity string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		r.locks[identity] = l
	}
	return l
}

func (r *Registry) getMachine(identity string) *machine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.machines[identity]
}

func (r *Registry) takeMachine(identity string) *machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.machines[identity]
	delete(r.machines, identity)
	return m
}

// GetLive returns the live snapshot for an identity, if one is running in
// this process. Never blocks on identity locks.
func (r *Registry) GetLive(rawIdentity string) (Snapshot, bool) {
	identity, err := NormalizeIdentity(rawIdentity)
	if err != nil {
		return Snapshot{}, false
	}

	m := r.getMachine(identity)
	if m == nil {
		return Snapshot{}, false
	}
	return m.snapshot(), true
}

// ListLive returns a point-in-time copy of every live session's state.
func (r *Registry) ListLive() []Snapshot {
	r.mu.RLock()
	machines := make([]*machine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(machines))
	for _, m := range machines {
		snapshots = append(snapshots, m.snapshot())
	}
	return snapshots
}

// Start brings a session up, creating the connection machine if needed. It
// returns once a pairing code is available or the connection authenticated.
// Starting an already-active session is idempotent: the existing machine is
// awaited, never duplicated.
func (r *Registry) Start(ctx context.Context, rawIdentity string) (Snapshot, error) {
	identity, err := NormalizeIdentity(rawIdentity)
	if err != nil {
		return Snapshot{}, err
	}

	lock := r.identityLock(identity)
	lock.Lock()

	if existing := r.getMachine(identity); existing != nil {
		switch existing.snapshot().State {
		case StateConnecting, StatePairingPending, StateConnected:
			lock.Unlock()
			return existing.awaitReady(ctx, r.opts.StartTimeout)
		default:
			// Leftover from a finished attempt; replace it.
			r.takeMachine(identity)
		}
	}

	driver, err := r.factory(identity)
	if err != nil {
		lock.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	m := newMachine(identity, driver, r.repo, r.creds, r.ignored, r.opts)
	if r.triggers != nil {
		m.setTriggers(r.triggers.Current())
	}
	m.transition(func(*Snapshot) {}) // creates the durable row in `connecting`

	r.mu.Lock()
	r.machines[identity] = m
	r.mu.Unlock()
	go m.run()

	lock.Unlock()

	// The slow network I/O runs outside the identity lock so one slow
	// session cannot stall commands against another. The machine is
	// detached from the caller's context: a cancelled start must not
	// orphan the connection.
	connectCtx, cancel := context.WithTimeout(context.Background(), r.opts.StartTimeout)
	defer cancel()
	if err := m.driver.Connect(connectCtx); err != nil {
		m.fail(err)
		return m.snapshot(), fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return m.awaitReady(ctx, r.opts.StartTimeout)
}

// Stop gracefully closes a live session and drops it from the registry.
// Credentials stay on disk so a later start resumes without re-pairing.
// No-op when the session is not running here.
func (r *Registry) Stop(ctx context.Context, rawIdentity string) error {
	identity, err := NormalizeIdentity(rawIdentity)
	if err != nil {
		return err
	}

	lock := r.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	m := r.takeMachine(identity)
	if m == nil {
		return nil
	}

	if !m.shutdown(r.opts.StopTimeout) {
		log.Warn().Str("session", identity).Msg("session teardown timed out")
	}
	m.transition(func(s *Snapshot) {
		s.State = StateDisconnected
		s.PairingCode = ""
	})
	log.Info().Str("session", identity).Msg("session stopped")
	return nil
}

// Logout closes the session and deletes its stored credentials, forcing a
// new pairing on the next start.
func (r *Registry) Logout(ctx context.Context, rawIdentity string) error {
	identity, err := NormalizeIdentity(rawIdentity)
	if err != nil {
		return err
	}

	lock := r.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	_, err = r.logoutLocked(ctx, identity)
	return err
}

// logoutLocked performs logout semantics under an already-held identity
// lock. Reports whether the session existed in any form.
func (r *Registry) logoutLocked(ctx context.Context, identity string) (existed bool, err error) {
	hadCreds := r.creds != nil && r.creds.HasValid(identity)

	m := r.takeMachine(identity)
	if m != nil {
		logoutCtx, cancel := context.WithTimeout(context.Background(), r.opts.StopTimeout)
		if err := m.driver.Logout(logoutCtx); err != nil {
			log.Warn().Err(err).Str("session", identity).Msg("driver logout failed, clearing credentials anyway")
		}
		cancel()

		if !m.shutdown(r.opts.StopTimeout) {
			log.Warn().Str("session", identity).Msg("session teardown timed out")
		}
	}

	if r.creds != nil {
		if err := r.creds.Clear(identity); err != nil {
			log.Warn().Err(err).Str("session", identity).Msg("failed to clear credentials")
		}
	}

	if m != nil {
		m.transition(func(s *Snapshot) {
			s.State = StateLoggedOut
			s.PairingCode = ""
		})
		log.Info().Str("session", identity).Msg("session logged out")
		return true, nil
	}

	// No live machine: update the durable record directly.
	record, err := r.repo.Find(ctx, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if hadCreds {
				return true, nil
			}
			return false, ErrNotFound
		}
		return false, err
	}

	record.Status = string(StateLoggedOut)
	if err := r.repo.Save(ctx, &record); err != nil {
		log.Warn().Err(err).Str("session", identity).Msg("failed to persist logout status")
	}
	return true, nil
}

// Delete performs logout semantics plus removal of the durable record.
func (r *Registry) Delete(ctx context.Context, rawIdentity string) error {
	identity, err := NormalizeIdentity(rawIdentity)
	if err != nil {
		return err
	}

	lock := r.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	existed, err := r.logoutLocked(ctx, identity)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if !existed && errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	if err := r.repo.Delete(ctx, identity); err != nil {
		return err
	}
	log.Info().Str("session", identity).Msg("session deleted")
	return nil
}

// ReloadTriggers refreshes the trigger definitions and pushes the new set to
// every live session without touching connection state. Returns the number
// of sessions notified.
func (r *Registry) ReloadTriggers(ctx context.Context) (int, error) {
	if r.triggers == nil {
		return 0, nil
	}

	if err := r.triggers.Reload(ctx); err != nil {
		return 0, err
	}
	set := r.triggers.Current()

	r.mu.RLock()
	machines := make([]*machine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	for _, m := range machines {
		m.setTriggers(set)
	}
	log.Info().Int("sessions", len(machines)).Int("triggers", set.Len()).Msg("trigger definitions reloaded")
	return len(machines), nil
}

// ShutdownAll tears every live session down in parallel, waiting up to the
// global timeout. Sessions that hang past their grace period are abandoned;
// the process is exiting anyway.
func (r *Registry) ShutdownAll(timeout time.Duration) {
	r.mu.Lock()
	machines := r.machines
	r.machines = make(map[string]*machine)
	r.mu.Unlock()

	if len(machines) == 0 {
		return
	}
	log.Info().Int("sessions", len(machines)).Msg("shutting down all sessions")

	var wg sync.WaitGroup
	for identity, m := range machines {
		wg.Add(1)
		go func(identity string, m *machine) {
			defer wg.Done()
			if m.shutdown(timeout) {
				m.transition(func(s *Snapshot) {
					s.State = StateDisconnected
					s.PairingCode = ""
				})
				log.Info().Str("session", identity).Msg("session shut down")
			} else {
				log.Warn().Str("session", identity).Msg("session teardown timed out, abandoning")
			}
		}(identity, m)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	timer := time.NewTimer(timeout + time.Second)
	defer timer.Stop()
	select {
	case <-finished:
	case <-timer.C:
		log.Warn().Msg("global shutdown deadline exceeded")
	}
}

package trigger

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
)

// Step is one outbound message of a matched sequence.
type Step struct {
	Body  string
	Delay time.Duration
}

// Set is an immutable snapshot of the trigger definitions. Live sessions hold
// a pointer to the current set and swap it on reload, so message handling
// never blocks on the database.
type Set struct {
	byKeyword map[string][]Step
}

// Match returns the message sequence for an inbound text, or nil when no
// keyword matches. Matching is on the trimmed, case-folded message.
func (s *Set) Match(text string) []Step {
	if s == nil {
		return nil
	}
	return s.byKeyword[normalizeKeyword(text)]
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byKeyword)
}

func normalizeKeyword(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

type Service interface {
	Reload(ctx context.Context) error
	Current() *Set
}

type service struct {
	repository Repository
	current    atomic.Pointer[Set]
}

func NewService(r Repository) Service {
	s := &service{
		repository: r,
	}
	s.current.Store(&Set{byKeyword: map[string][]Step{}})
	return s
}

// Reload rebuilds the active set from the database. The previous set stays in
// place if the load fails.
func (s *service) Reload(ctx context.Context) error {
	triggers, err := s.repository.FindAllEnabled(ctx)
	if err != nil {
		return err
	}

	s.current.Store(buildSet(triggers))
	return nil
}

func (s *service) Current() *Set {
	return s.current.Load()
}

func buildSet(triggers []entities.Trigger) *Set {
	set := &Set{byKeyword: make(map[string][]Step, len(triggers))}
	for _, t := range triggers {
		keyword := normalizeKeyword(t.Keyword)
		if keyword == "" {
			continue
		}
		steps := make([]Step, 0, len(t.Steps))
		for _, st := range t.Steps {
			steps = append(steps, Step{
				Body:  st.Body,
				Delay: time.Duration(st.DelayMs) * time.Millisecond,
			})
		}
		set.byKeyword[keyword] = steps
	}
	return set
}

package ignored

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/dtos"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultSuppressionHours is the suppression window applied when a request
// does not specify one.
const DefaultSuppressionHours = 168

const (
	ScopeExpired = "expired"
	ScopeAll     = "all"
)

var ErrContactNotFound = errors.New("ignored contact not found")

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

type Service interface {
	Add(ctx context.Context, req dtos.AddIgnoredDTO) (entities.IgnoredContact, error)
	Remove(ctx context.Context, phone string) error
	RemoveByID(ctx context.Context, id uint) error
	List(ctx context.Context) ([]entities.IgnoredContact, error)
	ListPage(ctx context.Context, page int) ([]entities.IgnoredContact, int, error)
	Purge(ctx context.Context, scope string) (int64, error)
	IsIgnored(ctx context.Context, phone string) bool
}

type service struct {
	repository Repository
	now        func() time.Time
}

func NewService(r Repository) Service {
	return &service{
		repository: r,
		now:        time.Now,
	}
}

func (s *service) Add(ctx context.Context, req dtos.AddIgnoredDTO) (entities.IgnoredContact, error) {
	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return entities.IgnoredContact{}, fmt.Errorf("invalid phone number: %q", req.Phone)
	}

	hours := DefaultSuppressionHours
	if req.Hours != nil {
		hours = *req.Hours
	}

	now := s.now()
	var expiresAt *time.Time
	if hours > 0 {
		t := now.Add(time.Duration(hours) * time.Hour)
		expiresAt = &t
	}

	// Re-ignoring an already-listed contact refreshes its window and reason.
	contact, err := s.repository.FindByPhone(ctx, phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.IgnoredContact{}, err
	}

	contact.Phone = phone
	contact.Reason = req.Reason
	if req.Excerpt != "" {
		contact.Excerpt = req.Excerpt
	}
	contact.IgnoredAt = now
	contact.ExpiresAt = expiresAt

	if err := s.repository.Save(ctx, &contact); err != nil {
		return entities.IgnoredContact{}, err
	}
	return contact, nil
}

func (s *service) Remove(ctx context.Context, phone string) error {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return fmt.Errorf("invalid phone number: %q", phone)
	}

	if _, err := s.repository.FindByPhone(ctx, normalized); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		return err
	}
	return s.repository.DeleteByPhone(ctx, normalized)
}

func (s *service) RemoveByID(ctx context.Context, id uint) error {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]entities.IgnoredContact, error) {
	return s.repository.FindAll(ctx)
}

func (s *service) ListPage(ctx context.Context, page int) ([]entities.IgnoredContact, int, error) {
	return s.repository.FindPage(ctx, page)
}

func (s *service) Purge(ctx context.Context, scope string) (int64, error) {
	switch scope {
	case ScopeAll:
		return s.repository.DeleteAll(ctx)
	case ScopeExpired:
		return s.repository.DeleteExpired(ctx, s.now())
	default:
		return 0, fmt.Errorf("unknown purge scope: %q", scope)
	}
}

// IsIgnored is the gate consulted before auto-responding to a contact. The
// check is expiry-aware: rows past their expiry count as not ignored even if
// no purge has run yet. Lookup failures do not suppress responses.
func (s *service) IsIgnored(ctx context.Context, phone string) bool {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return false
	}

	contact, err := s.repository.FindByPhone(ctx, normalized)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Err(err).Str("phone", normalized).Msg("ignored contact lookup failed")
		}
		return false
	}

	return contact.Active(s.now())
}

// NormalizePhone strips everything but digits from a phone identifier.
func NormalizePhone(raw string) string {
	cleaned := nonPhoneChars.ReplaceAllString(raw, "")
	if len(cleaned) > 0 && cleaned[0] == '+' {
		cleaned = cleaned[1:]
	}
	return cleaned
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/dtos"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"gorm.io/gorm"
)

const (
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionLogout = "logout"
	ActionDelete = "delete"
)

type Service interface {
	List(ctx context.Context) ([]dtos.SessionViewDTO, error)
	Get(ctx context.Context, identity string) (dtos.SessionViewDTO, error)
	Command(ctx context.Context, identity string, action string) (dtos.SessionCommandResultDTO, error)
	ReloadTriggers(ctx context.Context) (int, error)
}

// service reconciles the registry's live state with the durable records into
// one external view. Live state always wins when both exist; the durable row
// is the fallback for sessions not running in this process.
type service struct {
	registry *Registry
	repo     Repository
}

func NewService(registry *Registry, repo Repository) Service {
	return &service{
		registry: registry,
		repo:     repo,
	}
}

func (s *service) List(ctx context.Context) ([]dtos.SessionViewDTO, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	byIdentity := make(map[string]*entities.SessionRecord, len(records))
	for i := range records {
		byIdentity[records[i].Identity] = &records[i]
	}

	views := make([]dtos.SessionViewDTO, 0, len(records))
	seen := make(map[string]bool)
	for _, snap := range s.registry.ListLive() {
		views = append(views, mergeView(&snap, byIdentity[snap.Identity]))
		seen[snap.Identity] = true
	}
	for i := range records {
		if !seen[records[i].Identity] {
			views = append(views, mergeView(nil, &records[i]))
		}
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Identity < views[j].Identity
	})
	return views, nil
}

func (s *service) Get(ctx context.Context, rawIdentity string) (dtos.SessionViewDTO, error) {
	identity, err := NormalizeIdentity(rawIdentity)
	if err != nil {
		return dtos.SessionViewDTO{}, err
	}

	var record *entities.SessionRecord
	found, err := s.repo.Find(ctx, identity)
	if err == nil {
		record = &found
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dtos.SessionViewDTO{}, err
	}

	if snap, ok := s.registry.GetLive(identity); ok {
		return mergeView(&snap, record), nil
	}
	if record == nil {
		return dtos.SessionViewDTO{}, ErrNotFound
	}
	return mergeView(nil, record), nil
}

func (s *service) Command(ctx context.Context, rawIdentity string, action string) (dtos.SessionCommandResultDTO, error) {
	switch action {
	case ActionStart:
		snap, err := s.registry.Start(ctx, rawIdentity)
		if err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		return dtos.SessionCommandResultDTO{
			Identity:    snap.Identity,
			Status:      string(snap.State),
			Phone:       snap.Phone,
			PairingCode: snap.PairingCode,
			Warning:     snap.PersistWarning,
		}, nil

	case ActionStop:
		identity, err := NormalizeIdentity(rawIdentity)
		if err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		if err := s.registry.Stop(ctx, identity); err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		return dtos.SessionCommandResultDTO{
			Identity: identity,
			Status:   string(StateDisconnected),
		}, nil

	case ActionLogout:
		identity, err := NormalizeIdentity(rawIdentity)
		if err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		if err := s.registry.Logout(ctx, identity); err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		return dtos.SessionCommandResultDTO{
			Identity: identity,
			Status:   string(StateLoggedOut),
		}, nil

	case ActionDelete:
		identity, err := NormalizeIdentity(rawIdentity)
		if err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		if err := s.registry.Delete(ctx, identity); err != nil {
			return dtos.SessionCommandResultDTO{}, err
		}
		return dtos.SessionCommandResultDTO{
			Identity: identity,
			Status:   "deleted",
		}, nil

	default:
		return dtos.SessionCommandResultDTO{}, fmt.Errorf("unknown action: %q", action)
	}
}

func (s *service) ReloadTriggers(ctx context.Context) (int, error) {
	return s.registry.ReloadTriggers(ctx)
}

// mergeView builds the external view, field by field: the live value wins
// whenever a live entry exists, the durable value fills the rest.
func mergeView(snap *Snapshot, record *entities.SessionRecord) dtos.SessionViewDTO {
	var view dtos.SessionViewDTO

	if record != nil {
		view.Identity = record.Identity
		view.Status = record.Status
		view.Phone = record.Phone
		view.ConnectedAt = record.ConnectedAt
		createdAt := record.CreatedAt
		view.CreatedAt = &createdAt
	}

	if snap != nil {
		view.Identity = snap.Identity
		view.Status = string(snap.State)
		view.Phone = snap.Phone
		view.PairingCode = snap.PairingCode
		if !snap.ConnectedAt.IsZero() {
			connectedAt := snap.ConnectedAt
			view.ConnectedAt = &connectedAt
		}
		view.InMemory = true
	}

	return view
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/credentials"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, factory *fakeFactory) (Service, *Registry, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	creds := credentials.NewStore(t.TempDir())
	registry := NewRegistry(testOptions(), factory.make, repo, creds, nil, nil)
	return NewService(registry, repo), registry, repo
}

func TestGetLiveStateWins(t *testing.T) {
	factory := &fakeFactory{configure: func(call int, d *fakeDriver) {
		d.onConnect = emitPaired("5491112345678")
	}}
	service, registry, repo := newTestService(t, factory)

	_, err := registry.Start(context.Background(), "main")
	require.NoError(t, err)

	// Make the durable row stale on purpose.
	record, err := repo.Find(context.Background(), "main")
	require.NoError(t, err)
	record.Status = string(StateDisconnected)
	record.Phone = ""
	require.NoError(t, repo.Save(context.Background(), &record))

	view, err := service.Get(context.Background(), "main")
	require.NoError(t, err)

	assert.Equal(t, string(StateConnected), view.Status, "live state outranks the durable row")
	assert.Equal(t, "5491112345678", view.Phone)
	assert.True(t, view.InMemory)
	require.NotNil(t, view.CreatedAt)
}

func TestGetDurableFallback(t *testing.T) {
	factory := &fakeFactory{}
	service, _, repo := newTestService(t, factory)

	connectedAt := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(context.Background(), &entities.SessionRecord{
		Identity:    "archived",
		Status:      string(StateDisconnected),
		Phone:       "5491112345678",
		ConnectedAt: &connectedAt,
	}))

	view, err := service.Get(context.Background(), "archived")
	require.NoError(t, err)

	assert.Equal(t, string(StateDisconnected), view.Status)
	assert.Equal(t, "5491112345678", view.Phone)
	assert.False(t, view.InMemory)
	require.NotNil(t, view.ConnectedAt)
	assert.True(t, view.ConnectedAt.Equal(connectedAt))
}

func TestGetUnknownSession(t *testing.T) {
	factory := &fakeFactory{}
	service, _, _ := newTestService(t, factory)

	_, err := service.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetInvalidIdentity(t *testing.T) {
	factory := &fakeFactory{}
	service, _, _ := newTestService(t, factory)

	_, err := service.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestListMergesLiveAndDurable(t *testing.T) {
	factory := &fakeFactory{configure: func(call int, d *fakeDriver) {
		d.onConnect = emitPaired("5491112345678")
	}}
	service, registry, repo := newTestService(t, factory)

	require.NoError(t, repo.Save(context.Background(), &entities.SessionRecord{
		Identity: "archived",
		Status:   string(StateLoggedOut),
	}))

	_, err := registry.Start(context.Background(), "live")
	require.NoError(t, err)

	views, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2, "one live, one durable-only, no duplicates")

	assert.Equal(t, "archived", views[0].Identity)
	assert.False(t, views[0].InMemory)
	assert.Equal(t, "live", views[1].Identity)
	assert.True(t, views[1].InMemory)
	assert.Equal(t, string(StateConnected), views[1].Status)
}

func TestCommandStart(t *testing.T) {
	factory := &fakeFactory{configure: func(call int, d *fakeDriver) {
		d.onConnect = emitCode("AAAA-BBBB")
	}}
	service, _, _ := newTestService(t, factory)

	result, err := service.Command(context.Background(), "main", ActionStart)
	require.NoError(t, err)

	assert.Equal(t, "main", result.Identity)
	assert.Equal(t, string(StatePairingPending), result.Status)
	assert.Equal(t, "AAAA-BBBB", result.PairingCode)
}

func TestCommandStopAndLogout(t *testing.T) {
	factory := &fakeFactory{configure: func(call int, d *fakeDriver) {
		d.onConnect = emitPaired("5491112345678")
	}}
	service, registry, _ := newTestService(t, factory)

	_, err := registry.Start(context.Background(), "main")
	require.NoError(t, err)

	result, err := service.Command(context.Background(), "main", ActionStop)
	require.NoError(t, err)
	assert.Equal(t, string(StateDisconnected), result.Status)

	result, err = service.Command(context.Background(), "main", ActionLogout)
	require.NoError(t, err)
	assert.Equal(t, string(StateLoggedOut), result.Status)
}

func TestCommandDelete(t *testing.T) {
	factory := &fakeFactory{configure: func(call int, d *fakeDriver) {
		d.onConnect = emitPaired("5491112345678")
	}}
	service, registry, _ := newTestService(t, factory)

	_, err := registry.Start(context.Background(), "main")
	require.NoError(t, err)

	result, err := service.Command(context.Background(), "main", ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, "deleted", result.Status)

	_, err = service.Get(context.Background(), "main")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommandUnknownAction(t *testing.T) {
	factory := &fakeFactory{}
	service, _, _ := newTestService(t, factory)

	_, err := service.Command(context.Background(), "main", "restart")
	assert.Error(t, err)
}

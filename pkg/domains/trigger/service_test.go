package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	triggers []entities.Trigger
	err      error
}

func (f *fakeRepo) FindAllEnabled(ctx context.Context) ([]entities.Trigger, error) {
	return f.triggers, f.err
}

func TestReloadBuildsKeywordSet(t *testing.T) {
	repo := &fakeRepo{triggers: []entities.Trigger{
		{
			Keyword: "Precios",
			Steps: []entities.TriggerStep{
				{Position: 1, Body: "Hola!"},
				{Position: 2, Body: "Lista de precios adjunta", DelayMs: 500},
			},
		},
	}}
	svc := NewService(repo)
	require.NoError(t, svc.Reload(context.Background()))

	steps := svc.Current().Match("  precios ")
	require.Len(t, steps, 2)
	assert.Equal(t, "Hola!", steps[0].Body)
	assert.Equal(t, "Lista de precios adjunta", steps[1].Body)
	assert.NotZero(t, steps[1].Delay)
}

func TestMatchUnknownKeyword(t *testing.T) {
	svc := NewService(&fakeRepo{})
	require.NoError(t, svc.Reload(context.Background()))

	assert.Nil(t, svc.Current().Match("hola"))
}

func TestReloadKeepsPreviousSetOnError(t *testing.T) {
	repo := &fakeRepo{triggers: []entities.Trigger{
		{Keyword: "info", Steps: []entities.TriggerStep{{Position: 1, Body: "ok"}}},
	}}
	svc := NewService(repo)
	require.NoError(t, svc.Reload(context.Background()))

	repo.err = errors.New("db down")
	require.Error(t, svc.Reload(context.Background()))

	assert.NotNil(t, svc.Current().Match("info"))
}

func TestNilSetMatches(t *testing.T) {
	var set *Set
	assert.Nil(t, set.Match("anything"))
	assert.Zero(t, set.Len())
}

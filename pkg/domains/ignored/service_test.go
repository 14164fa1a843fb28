package ignored

import (
	"context"
	"testing"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/dtos"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	byPhone map[string]entities.IgnoredContact
	nextID  uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byPhone: map[string]entities.IgnoredContact{}}
}

func (f *fakeRepo) Save(ctx context.Context, contact *entities.IgnoredContact) error {
	if contact.ID == 0 {
		f.nextID++
		contact.ID = f.nextID
	}
	f.byPhone[contact.Phone] = *contact
	return nil
}

func (f *fakeRepo) FindByPhone(ctx context.Context, phone string) (entities.IgnoredContact, error) {
	contact, ok := f.byPhone[phone]
	if !ok {
		return entities.IgnoredContact{}, gorm.ErrRecordNotFound
	}
	return contact, nil
}

func (f *fakeRepo) FindAll(ctx context.Context) ([]entities.IgnoredContact, error) {
	var all []entities.IgnoredContact
	for _, c := range f.byPhone {
		all = append(all, c)
	}
	return all, nil
}

func (f *fakeRepo) FindPage(ctx context.Context, page int) ([]entities.IgnoredContact, int, error) {
	all, _ := f.FindAll(ctx)
	return all, 1, nil
}

func (f *fakeRepo) DeleteByPhone(ctx context.Context, phone string) error {
	delete(f.byPhone, phone)
	return nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, id uint) (int64, error) {
	var deleted int64
	for phone, c := range f.byPhone {
		if c.ID == id {
			delete(f.byPhone, phone)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	for phone, c := range f.byPhone {
		if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
			delete(f.byPhone, phone)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeRepo) DeleteAll(ctx context.Context) (int64, error) {
	deleted := int64(len(f.byPhone))
	f.byPhone = map[string]entities.IgnoredContact{}
	return deleted, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*service, *fakeRepo, *testClock) {
	t.Helper()
	repo := newFakeRepo()
	clock := &testClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	return &service{repository: repo, now: func() time.Time { return clock.now }}, repo, clock
}

func TestAddDefaultsToWeekWindow(t *testing.T) {
	svc, _, clock := newTestService(t)

	contact, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "+54 9 11 1234-5678"})
	require.NoError(t, err)

	assert.Equal(t, "5491112345678", contact.Phone)
	require.NotNil(t, contact.ExpiresAt)
	assert.Equal(t, clock.now.Add(DefaultSuppressionHours*time.Hour), *contact.ExpiresAt)
}

func TestAddZeroHoursIsPermanent(t *testing.T) {
	svc, _, clock := newTestService(t)

	hours := 0
	contact, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "5491112345678", Hours: &hours})
	require.NoError(t, err)
	assert.Nil(t, contact.ExpiresAt)

	clock.advance(24 * 365 * time.Hour)
	assert.True(t, svc.IsIgnored(context.Background(), "5491112345678"))
}

func TestIsIgnoredExpiresWithoutPurge(t *testing.T) {
	svc, _, clock := newTestService(t)

	hours := 2
	_, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "+5491112345678", Hours: &hours})
	require.NoError(t, err)

	assert.True(t, svc.IsIgnored(context.Background(), "+5491112345678"))

	clock.advance(3 * time.Hour)
	assert.False(t, svc.IsIgnored(context.Background(), "+5491112345678"))
}

func TestPurgeExpiredReportsCount(t *testing.T) {
	svc, repo, clock := newTestService(t)

	hours := 2
	_, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "+5491112345678", Hours: &hours})
	require.NoError(t, err)
	permanent := 0
	_, err = svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "5491199999999", Hours: &permanent})
	require.NoError(t, err)

	clock.advance(3 * time.Hour)

	deleted, err := svc.Purge(context.Background(), ScopeExpired)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, repo.byPhone, 1)
}

func TestPurgeAll(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "5491112345678"})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "5491199999999"})
	require.NoError(t, err)

	deleted, err := svc.Purge(context.Background(), ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestPurgeUnknownScope(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Purge(context.Background(), "sometimes")
	assert.Error(t, err)
}

func TestRemoveUnknownContact(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Remove(context.Background(), "5491112345678")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestRemoveByIDUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.RemoveByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestReAddRefreshesWindow(t *testing.T) {
	svc, _, clock := newTestService(t)

	hours := 1
	_, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "5491112345678", Hours: &hours})
	require.NoError(t, err)

	clock.advance(30 * time.Minute)
	longer := 48
	contact, err := svc.Add(context.Background(), dtos.AddIgnoredDTO{Phone: "5491112345678", Hours: &longer, Reason: "insistente"})
	require.NoError(t, err)

	assert.Equal(t, "insistente", contact.Reason)
	require.NotNil(t, contact.ExpiresAt)
	assert.Equal(t, clock.now.Add(48*time.Hour), *contact.ExpiresAt)
}

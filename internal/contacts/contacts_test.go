package contacts

import (
	"context"
	"testing"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, store kv.Store) (*Service, *notification.History) {
	t.Helper()
	h := notification.NewHistory(20)
	return New(context.Background(), store, h, nil), h
}

func TestDefaultsWhenAbsent(t *testing.T) {
	s, _ := newService(t, kv.NewMemoryStore())
	assert.Equal(t, models.DefaultContacts(), s.List())
}

func TestCorruptValueFallsBack(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), models.KeyContacts, []byte("not json")))
	s, _ := newService(t, store)
	assert.Len(t, s.List(), 3)
}

func TestAddUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s, h := newService(t, store)

	c, err := s.Add(ctx, "  Dad ", " 123 ")
	require.NoError(t, err)
	assert.Equal(t, "Dad", c.Name)
	assert.Equal(t, "123", c.Phone)
	assert.NotEmpty(t, c.Avatar)
	assert.Equal(t, "Contact Added", h.List()[0].Title)

	updated, err := s.Update(ctx, c.ID, "Father", "456")
	require.NoError(t, err)
	assert.Equal(t, "Father", updated.Name)

	reloaded, _ := newService(t, store)
	require.Len(t, reloaded.List(), 4)
	assert.Equal(t, "Father", reloaded.List()[3].Name)

	require.NoError(t, s.Delete(ctx, c.ID))
	assert.Len(t, s.List(), 3)
	assert.True(t, errors.Is(s.Delete(ctx, c.ID), errors.ErrNotFound))
	_, err = s.Update(ctx, "missing", "a", "b")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	s, h := newService(t, kv.NewMemoryStore())

	_, err := s.Add(ctx, " ", "123")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	_, err = s.Update(ctx, "contact1", "Mom", "")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	notices := h.List()
	require.Len(t, notices, 2)
	assert.Equal(t, notification.SeverityDestructive, notices[0].Severity)
	assert.Equal(t, "Name and phone number are required.", notices[0].Body)
	assert.Len(t, s.List(), 3)
}

func TestLimit(t *testing.T) {
	ctx := context.Background()
	s, h := newService(t, kv.NewMemoryStore())

	for i := len(s.List()); i < models.MaxContacts; i++ {
		_, err := s.Add(ctx, "Friend", "000")
		require.NoError(t, err)
	}
	h.Reset()

	_, err := s.Add(ctx, "One Too Many", "999")
	assert.True(t, errors.Is(err, errors.ErrLimitReached))
	assert.Len(t, s.List(), models.MaxContacts)
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "You can only have up to 5 trusted contacts.", h.List()[0].Body)
}

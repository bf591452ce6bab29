package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryKeepsNewest(t *testing.T) {
	h := NewHistory(2)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		Send(ctx, h, New(title, "", ""))
	}
	list := h.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Title)
	assert.Equal(t, "c", list[1].Title)
	assert.Equal(t, SeverityDefault, list[1].Severity)
	assert.NotEmpty(t, list[1].ID)
}

func TestMultiContinuesPastFailure(t *testing.T) {
	h := NewHistory(10)
	boom := errors.New("sink down")
	m := Multi{
		NotifierFunc(func(context.Context, Notice) error { return boom }),
		nil,
		h,
	}
	err := m.Notify(context.Background(), New("SOS Alert Sent", "", SeverityDestructive))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, h.Len())
}

func TestSendSwallowsErrors(t *testing.T) {
	var got Notice
	failing := NotifierFunc(func(_ context.Context, n Notice) error {
		got = n
		return errors.New("unavailable")
	})
	Send(context.Background(), failing, Notice{Title: "raw"})
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Timestamp.IsZero())

	Send(context.Background(), nil, Notice{Title: "ignored"})
}

package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GuardianLink/pkg/notification"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishToGroups(t *testing.T) {
	h := NewHub(time.Minute)
	a := h.AddClient("a")
	b := h.AddClient("b")
	h.Join("a", "chat1")

	require.NoError(t, h.Publish(EventMessage, "chat1", map[string]string{"text": "hi"}))
	require.NoError(t, h.Notify(context.Background(), notification.New("SOS Alert Sent", "", notification.SeverityDestructive)))

	frame := <-a.ch
	assert.Contains(t, frame, "event: message\n")
	assert.Contains(t, frame, `"text":"hi"`)
	assert.Contains(t, <-a.ch, "event: notice\n")
	assert.Contains(t, <-b.ch, "SOS Alert Sent")
	assert.Len(t, b.ch, 0)

	h.RemoveClient("a")
	assert.Equal(t, 1, h.Clients())
}

func TestReplayAfterID(t *testing.T) {
	h := NewHub(time.Minute, WithReplay(2))
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Publish(EventNotice, "", i))
	}
	c := h.AddClient("c")
	frames := h.replay(c, 1)
	require.Len(t, frames, 2)
	assert.True(t, strings.HasPrefix(frames[0], "id: 2\n"))
}

func TestClientGauge(t *testing.T) {
	var last int
	h := NewHub(time.Minute, WithClientGauge(func(n int) { last = n }))
	h.AddClient("x")
	h.AddClient("y")
	assert.Equal(t, 2, last)
	h.RemoveClient("x")
	assert.Equal(t, 1, last)
}

func TestServeStreamsNotices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(time.Minute)
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) { h.Serve(c, "ui") })
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Notify(ctx, notification.New("Room Deleted", "", notification.SeverityDestructive)))

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "data: ") && strings.Contains(sc.Text(), "Room Deleted") {
			return
		}
	}
	t.Fatal("notice not received")
}

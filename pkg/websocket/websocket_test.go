package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(hub, func(c *gin.Context) string { return "user1" }).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, ValidateConfig(cfg))

	t.Run("heartbeat must be shorter than timeout", func(t *testing.T) {
		bad := DefaultConfig()
		bad.HeartbeatInterval = bad.ConnectionTimeout
		assert.Error(t, ValidateConfig(bad))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Error(t, ValidateConfig(nil))
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv(EnvWebSocketMaxConnections, "12")
		t.Setenv(EnvWebSocketHeartbeatInterval, "2s")
		t.Setenv(EnvWebSocketEnableCompression, "true")
		cfg := LoadConfigFromEnv()
		assert.Equal(t, int64(12), cfg.MaxConnections)
		assert.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
		assert.True(t, cfg.EnableCompression)
	})
}

func TestHubRegisterAndGroups(t *testing.T) {
	var (
		mu     sync.Mutex
		counts []int
	)
	hub := NewHub(nil, WithConnectionGauge(func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	}))
	defer hub.Close()

	conn := NewConnection(hub, "user1", nil, "chat1")
	hub.register <- conn
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.GetGroupConnections("chat1"))

	hub.Join(conn, "chat2")
	assert.Equal(t, 1, hub.GetGroupConnections("chat2"))
	assert.True(t, conn.IsInGroup("chat2"))

	hub.Leave(conn, "chat1")
	assert.Equal(t, 0, hub.GetGroupConnections("chat1"))
	assert.ElementsMatch(t, []string{"chat2"}, conn.Groups())

	hub.unregister <- conn
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.GetGroupConnections("chat2"))
	mu.Lock()
	assert.Equal(t, []int{1, 0}, counts)
	mu.Unlock()

	assert.False(t, conn.trySend([]byte("late")), "closed connection must refuse sends")
}

func TestPublishReachesGroupMembersOnly(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	member := NewConnection(hub, "user1", nil, "chat1")
	other := NewConnection(hub, "user2", nil, "chat2")
	hub.register <- member
	hub.register <- other
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish("chat1", MessageTypeChatMessage, map[string]string{"text": "hi"}))

	select {
	case raw := <-member.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypeChatMessage, msg.Type)
		assert.Equal(t, "chat1", msg.Group)
		assert.NotZero(t, msg.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("member did not receive the message")
	}
	select {
	case <-other.Send:
		t.Fatal("non-member received the message")
	case <-time.After(50 * time.Millisecond):
	}

	t.Run("empty group reaches everyone", func(t *testing.T) {
		require.NoError(t, hub.Publish("", MessageTypeChatUpdated, nil))
		for _, c := range []*Connection{member, other} {
			select {
			case <-c.Send:
			case <-time.After(time.Second):
				t.Fatalf("%s missed the broadcast", c.UserID)
			}
		}
	})
}

func TestPublishAfterClose(t *testing.T) {
	hub := NewHub(nil)
	hub.Close()
	assert.ErrorIs(t, hub.Publish("chat1", MessageTypeChatMessage, nil), ErrHubClosed)
}

func TestWebSocketEndToEnd(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "?chat=chat1")
	require.Eventually(t, func() bool { return hub.GetGroupConnections("chat1") == 1 }, time.Second, 10*time.Millisecond)

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
		assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)
	})

	t.Run("join and receive", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeJoinGroup, Data: "chat2"}))
		ack := readMessage(t, conn)
		assert.Equal(t, MessageTypeGroupJoined, ack.Type)
		assert.Equal(t, "chat2", ack.Data)

		require.NoError(t, hub.Publish("chat2", MessageTypeReaction, map[string]interface{}{"emoji": "👍"}))
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeReaction, msg.Type)
		assert.Equal(t, "chat2", msg.Group)
	})

	t.Run("leave", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeLeaveGroup, Data: "chat2"}))
		assert.Equal(t, MessageTypeGroupLeft, readMessage(t, conn).Type)
		assert.Equal(t, 0, hub.GetGroupConnections("chat2"))
	})

	t.Run("unknown type", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(Message{Type: "shout"}))
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeError, msg.Type)
		assert.Equal(t, ErrInvalidMessageType.Error(), msg.Data)
	})

	t.Run("disconnect unregisters", func(t *testing.T) {
		conn.Close()
		require.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestStatsEndpoint(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(hub, nil).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws/stats?chat=chat1", nil))
	assert.Equal(t, 200, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body["total_connections"])
	assert.EqualValues(t, 0, body["chat_connections"])
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var history = []Turn{
	{SenderID: "user1", Text: "Anyone near the library?"},
	{SenderID: "user2", Text: "I am, what's up"},
	{SenderID: "user1", Text: "Power is out here"},
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(history)
	assert.Equal(t, "Chat History:\nuser1: Anyone near the library?\nuser2: I am, what's up\nuser1: Power is out here\nAlex:", p)
	assert.Contains(t, SystemPrompt(), "Your name is Alex")
	assert.Equal(t, "Chat History:\nAlex:", BuildPrompt(nil))
}

func TestOpenAIReplier(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Alex: On my way!"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	r, err := New(context.Background(), Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "qwen-turbo"}, quietLogger())
	require.NoError(t, err)

	reply, err := r.Reply(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "On my way!", reply)
	assert.Equal(t, "qwen-turbo", got["model"])
	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, BuildPrompt(history), msgs[1].(map[string]interface{})["content"])
}

func TestOpenAIReplierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	r := NewOpenAIReplier(Config{APIKey: "k", BaseURL: srv.URL}, quietLogger())
	_, err := r.Reply(context.Background(), history)
	assert.Error(t, err)
}

func TestOllamaReplier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, defaultOllamaModel, req.Model)
		assert.Equal(t, "system", req.Messages[0].Role)
		_ = json.NewEncoder(w).Encode(ollamaResponse{Message: ollamaMessage{Role: "assistant", Content: "  Stay put, I'll call someone. "}})
	}))
	defer srv.Close()

	r, err := New(context.Background(), Config{Provider: "ollama", BaseURL: srv.URL + "/"}, quietLogger())
	require.NoError(t, err)
	reply, err := r.Reply(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Stay put, I'll call someone.", reply)

	t.Run("error status", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ollamaResponse{Error: "model not found"})
		}))
		defer bad.Close()
		_, err := NewOllamaReplier(Config{BaseURL: bad.URL}, quietLogger()).Reply(context.Background(), history)
		assert.ErrorContains(t, err, "model not found")
	})
}

func TestStaticReplier(t *testing.T) {
	r := NewStaticReplier("a", "b")
	got, err := r.Reply(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	got, _ = r.Reply(context.Background(), []Turn{{SenderID: "user1", Text: "you ok?"}})
	assert.Equal(t, "Good question, let me think about it.", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Reply(ctx, history)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProviders(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "bard"}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "gemini"}, nil)
	assert.Error(t, err)

	r, err := New(context.Background(), Config{}, nil)
	require.NoError(t, err)
	_, err = r.Reply(context.Background(), history)
	assert.NoError(t, err)
}

func TestTimeout(t *testing.T) {
	slow := ReplierFunc(func(ctx context.Context, _ []Turn) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := withTimeout(slow, 10*time.Millisecond).Reply(context.Background(), history)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

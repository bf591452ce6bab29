package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, e Engine) {
	t.Helper()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := []Doc{
		{ChatID: "chat1", MessageID: "m1-3", SenderID: "user4", Text: "Does anyone have a spare charger?", Seq: 3, Timestamp: now},
		{ChatID: "chat1", MessageID: "m1-4", SenderID: "user7", Text: "I have one! I am near the library.", Seq: 4, Timestamp: now},
		{ChatID: "chat2", MessageID: "m2-1", SenderID: "user3", Text: "Are we still meeting at the library?", Seq: 1, Timestamp: now},
	}
	require.NoError(t, e.IndexBatch(context.Background(), docs))
}

func TestSearchMessages(t *testing.T) {
	e, err := New(Config{}, nil)
	require.NoError(t, err)
	defer e.Close()
	seed(t, e)
	ctx := context.Background()

	res, err := e.Search(ctx, SearchRequest{Keyword: "library"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = e.Search(ctx, SearchRequest{Keyword: "library", ChatID: "chat2"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "chat2", res.Hits[0].ChatID)
	assert.Equal(t, "m2-1", res.Hits[0].MessageID)

	t.Run("prefix", func(t *testing.T) {
		res, err := e.Search(ctx, SearchRequest{Keyword: "charg", Prefix: true})
		require.NoError(t, err)
		require.Len(t, res.Hits, 1)
		assert.Equal(t, "m1-3", res.Hits[0].MessageID)
	})

	t.Run("empty keyword matches nothing", func(t *testing.T) {
		res, err := e.Search(ctx, SearchRequest{})
		require.NoError(t, err)
		assert.Zero(t, res.Total)
	})

	t.Run("delete chat", func(t *testing.T) {
		require.NoError(t, e.DeleteChat(ctx, "chat1"))
		res, err := e.Search(ctx, SearchRequest{Keyword: "library"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Total)
	})
}

func TestDeleteAndClose(t *testing.T) {
	e, err := New(Config{IndexPath: filepath.Join(t.TempDir(), "messages.bleve")}, nil)
	require.NoError(t, err)
	seed(t, e)
	ctx := context.Background()

	require.NoError(t, e.Delete(ctx, DocID("chat1", "m1-3")))
	res, err := e.Search(ctx, SearchRequest{Keyword: "charger"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	_, err = e.Search(ctx, SearchRequest{Keyword: "library"})
	assert.ErrorIs(t, err, ErrClosed)
}

package search

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

var ErrClosed = errors.New("search engine closed")

type Engine interface {
	Index(ctx context.Context, doc Doc) error
	IndexBatch(ctx context.Context, docs []Doc) error
	Delete(ctx context.Context, id string) error
	// DeleteChat drops every message of a chat.
	DeleteChat(ctx context.Context, chatID string) error
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	Close() error
}

type bleveEngine struct {
	cfg    Config
	index  bleve.Index
	mu     sync.RWMutex
	closed bool
}

// New opens the index at cfg.IndexPath, creating it when missing. An empty
// path builds an in-memory index.
func New(cfg Config, m mapping.IndexMapping) (Engine, error) { // mapping 引自 bleve
	if m == nil {
		m = BuildIndexMapping(cfg.DefaultAnalyzer)
	}
	be := &bleveEngine{cfg: cfg}

	var idx bleve.Index
	switch _, err := os.Stat(cfg.IndexPath); {
	case cfg.IndexPath == "":
		i, e := bleve.NewMemOnly(m)
		if e != nil {
			return nil, e
		}
		idx = i
	case err == nil:
		i, e := bleve.Open(cfg.IndexPath)
		if e != nil {
			return nil, e
		}
		idx = i
	case os.IsNotExist(err):
		i, e := bleve.New(cfg.IndexPath, m)
		if e != nil {
			return nil, e
		}
		idx = i
	default:
		return nil, err
	}
	be.index = idx
	return be, nil
}

func (e *bleveEngine) guard() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

func (e *bleveEngine) withDeadline(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	ch := make(chan error, 1)
	go func() { ch <- fn(c) }()
	select {
	case <-c.Done():
		return c.Err()
	case err := <-ch:
		return err
	}
}

func fields(doc Doc) map[string]any {
	return map[string]any{
		"type":      docType,
		"chatId":    doc.ChatID,
		"messageId": doc.MessageID,
		"senderId":  doc.SenderID,
		"text":      doc.Text,
		"seq":       float64(doc.Seq),
		"timestamp": doc.Timestamp,
	}
}

func docID(doc Doc) string {
	if doc.ID != "" {
		return doc.ID
	}
	return DocID(doc.ChatID, doc.MessageID)
}

func (e *bleveEngine) Index(ctx context.Context, doc Doc) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		return e.index.Index(docID(doc), fields(doc))
	})
}

func (e *bleveEngine) IndexBatch(ctx context.Context, docs []Doc) error {
	if err := e.guard(); err != nil {
		return err
	}
	bs := e.cfg.BatchSize
	if bs <= 0 {
		bs = 200
	}
	for i := 0; i < len(docs); i += bs {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := i + bs
		if end > len(docs) {
			end = len(docs)
		}
		b := e.index.NewBatch()
		for _, d := range docs[i:end] {
			if err := b.Index(docID(d), fields(d)); err != nil {
				return err
			}
		}
		if err := e.index.Batch(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *bleveEngine) Delete(ctx context.Context, id string) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		return e.index.Delete(id)
	})
}

func (e *bleveEngine) DeleteChat(ctx context.Context, chatID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	tq := bleve.NewTermQuery(chatID)
	tq.SetField("chatId")
	for {
		sr := bleve.NewSearchRequestOptions(tq, 500, 0, false)
		res, err := e.index.SearchInContext(ctx, sr)
		if err != nil {
			return err
		}
		if len(res.Hits) == 0 {
			return nil
		}
		b := e.index.NewBatch()
		for _, h := range res.Hits {
			b.Delete(h.ID)
		}
		if err := e.index.Batch(b); err != nil {
			return err
		}
	}
}

func (e *bleveEngine) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if err := e.guard(); err != nil {
		return SearchResult{}, err
	}

	sr := bleve.NewSearchRequest(buildQuery(req))

	// 分页
	if req.Size <= 0 {
		req.Size = 20
	}
	if req.From < 0 {
		req.From = 0
	}
	sr.Size = req.Size
	sr.From = req.From
	// 相关度优先，同分按消息顺序
	sr.SortBy([]string{"-_score", "seq"})
	sr.Highlight = bleve.NewHighlightWithStyle("html")
	sr.Highlight.AddField("text")

	var res *bleve.SearchResult
	err := e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		r, e2 := e.index.SearchInContext(ctx, sr)
		if e2 != nil {
			return e2
		}
		res = r
		return nil
	})
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{
		Total: res.Total,
		Took:  res.Took,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		chatID, msgID := splitDocID(h.ID)
		out.Hits = append(out.Hits, Hit{
			ID:        h.ID,
			ChatID:    chatID,
			MessageID: msgID,
			Score:     h.Score,
			Fragments: h.Fragments,
		})
	}
	return out, nil
}

func (e *bleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}

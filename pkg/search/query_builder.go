package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	q "github.com/blevesearch/bleve/v2/search/query"
)

func buildQuery(req SearchRequest) q.Query {
	var must []q.Query

	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		match := bleve.NewMatchQuery(kw)
		match.SetField("text")
		match.SetOperator(q.MatchQueryOperatorAnd)
		if req.Prefix && !strings.ContainsAny(kw, " \t") {
			prefix := bleve.NewPrefixQuery(strings.ToLower(kw))
			prefix.SetField("text")
			must = append(must, bleve.NewDisjunctionQuery(match, prefix))
		} else {
			must = append(must, match)
		}
	}

	// Term 等值过滤
	for field, v := range map[string]string{"chatId": req.ChatID, "senderId": req.SenderID} {
		if v == "" {
			continue
		}
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		must = append(must, tq)
	}

	if len(must) == 0 {
		return bleve.NewMatchNoneQuery()
	}
	if len(must) == 1 {
		return must[0]
	}
	return bleve.NewConjunctionQuery(must...)
}

// DocID joins the chat and message ids.
func DocID(chatID, messageID string) string {
	return chatID + "/" + messageID
}

func splitDocID(id string) (chatID, messageID string) {
	if i := strings.Index(id, "/"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const docType = "message"

func BuildIndexMapping(defaultAnalyzer string) *mapping.IndexMappingImpl {
	if defaultAnalyzer == "" {
		defaultAnalyzer = standard.Name
	}
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = defaultAnalyzer
	idx.TypeField = "type"

	// 文本
	text := mapping.NewTextFieldMapping()
	text.Store = true
	text.Index = true
	text.Analyzer = defaultAnalyzer
	text.IncludeTermVectors = true

	// 关键词
	kw := mapping.NewTextFieldMapping()
	kw.Store = true
	kw.Index = true
	kw.Analyzer = keyword.Name

	num := mapping.NewNumericFieldMapping()
	num.Store = true
	dt := mapping.NewDateTimeFieldMapping()
	dt.Store = true

	msg := mapping.NewDocumentMapping()
	msg.Dynamic = false
	msg.AddFieldMappingsAt("text", text)
	msg.AddFieldMappingsAt("chatId", kw)
	msg.AddFieldMappingsAt("messageId", kw)
	msg.AddFieldMappingsAt("senderId", kw)
	msg.AddFieldMappingsAt("seq", num)
	msg.AddFieldMappingsAt("timestamp", dt)
	idx.AddDocumentMapping(docType, msg)

	def := mapping.NewDocumentMapping()
	def.Dynamic = false
	idx.DefaultMapping = def
	return idx
}

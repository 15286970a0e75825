package docgen

import (
	"time"

	"github.com/yockii/ai_report/pkg/mdblock"
)

// Meta 报告元信息
type Meta struct {
	Title       string
	PeriodID    string
	Language    string
	GeneratedAt time.Time
}

// Document 解析一次后供所有输出格式共用的块序列
type Document struct {
	Markdown string
	Blocks   []mdblock.Block
}

// Parse 解析markdown
func Parse(markdown string) *Document {
	return &Document{
		Markdown: markdown,
		Blocks:   mdblock.Parse(markdown),
	}
}

// DocGenerator 报告多格式生成器
type DocGenerator struct {
	html   *HtmlConverter
	text   *TextConverter
	record *RecordConverter
	word   *WordElementHandler
	docx   *DocxBuilder
}

// NewDocGenerator 创建报告生成器
func NewDocGenerator() *DocGenerator {
	word := NewWordElementHandler()
	return &DocGenerator{
		html:   NewHtmlConverter(),
		text:   NewTextConverter(),
		record: NewRecordConverter(),
		word:   word,
		docx:   NewDocxBuilder(word),
	}
}

// RenderHTML 生成独立的HTML文档
func (g *DocGenerator) RenderHTML(doc *Document, meta Meta) []byte {
	return []byte(g.html.Convert(doc, meta))
}

// RenderText 生成纯文本
func (g *DocGenerator) RenderText(doc *Document) []byte {
	return []byte(g.text.Convert(doc))
}

// RenderRecord 生成结构化JSON
func (g *DocGenerator) RenderRecord(doc *Document, meta Meta) ([]byte, error) {
	return g.record.Convert(doc, meta)
}

// RenderDocx 生成Word文档
func (g *DocGenerator) RenderDocx(doc *Document, meta Meta) ([]byte, error) {
	return g.docx.BuildDocx(g.word.BuildBody(doc), meta)
}

package docgen

import (
	"bytes"
	"encoding/json"

	"github.com/yockii/ai_report/pkg/mdblock"
)

// RecordTimeLayout generatedAt 的时间格式
const RecordTimeLayout = "2006-01-02T15:04:05.000Z"

// Record 结构化报告，字段顺序即输出顺序
type Record struct {
	Report RecordReport `json:"report"`
}

type RecordReport struct {
	PeriodID    string          `json:"periodId"`
	Language    string          `json:"language"`
	GeneratedAt string          `json:"generatedAt"`
	Sections    []RecordSection `json:"sections"`
}

type RecordSection struct {
	Title      string   `json:"title"`
	Level      int      `json:"level"`
	Paragraphs []string `json:"paragraphs"`
}

// RecordConverter 按标题分节生成结构化记录
type RecordConverter struct{}

// NewRecordConverter 创建结构化记录转换器
func NewRecordConverter() *RecordConverter {
	return &RecordConverter{}
}

// Build 构建记录
//
// 第一个标题之前的内容丢弃；段落只去掉粗体标记，斜体标记保留。
func (c *RecordConverter) Build(doc *Document, meta Meta) *Record {
	sections := make([]RecordSection, 0)
	var current *RecordSection

	for _, b := range doc.Blocks {
		if b.Kind.IsHeading() {
			sections = append(sections, RecordSection{
				Title:      b.Text,
				Level:      b.Kind.HeadingLevel(),
				Paragraphs: make([]string, 0),
			})
			current = &sections[len(sections)-1]
			continue
		}
		if current == nil || b.Kind == mdblock.KindBlankLine {
			continue
		}
		current.Paragraphs = append(current.Paragraphs, mdblock.StripBold(paragraphText(b)))
	}

	return &Record{
		Report: RecordReport{
			PeriodID:    meta.PeriodID,
			Language:    meta.Language,
			GeneratedAt: meta.GeneratedAt.UTC().Format(RecordTimeLayout),
			Sections:    sections,
		},
	}
}

// Convert 序列化为带缩进的JSON
func (c *RecordConverter) Convert(doc *Document, meta Meta) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.Build(doc, meta)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func paragraphText(b mdblock.Block) string {
	switch b.Kind {
	case mdblock.KindListItem, mdblock.KindParagraph:
		return b.Text
	}
	return b.RawLine()
}

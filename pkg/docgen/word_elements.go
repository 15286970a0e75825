package docgen

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/yockii/ai_report/pkg/mdblock"
)

// 段落间距，单位为缇，标题级别越高前置间距越大
var headingSpacing = map[mdblock.Kind]struct {
	style         string
	before, after int
}{
	mdblock.KindHeading1: {"Heading1", 400, 200},
	mdblock.KindHeading2: {"Heading2", 300, 150},
	mdblock.KindHeading3: {"Heading3", 200, 100},
}

// WordRun 段落内的文本片段
type WordRun struct {
	Text string
	Bold bool
}

// WordParagraph Word段落
type WordParagraph struct {
	Style  string
	Bullet bool
	Rule   bool
	Before int
	After  int
	Runs   []WordRun
}

// WordTable Word表格
type WordTable struct {
	Rows []WordTableRow
}

type WordTableRow struct {
	Header bool
	Cells  []string
}

// WordElement 文档正文中的元素
type WordElement interface {
	writeXML(sb *strings.Builder)
}

// WordBody 单节文档的线性元素序列
type WordBody struct {
	Elements []WordElement
}

// WordElementHandler 处理Word文档元素
type WordElementHandler struct{}

// NewWordElementHandler 创建Word元素处理器
func NewWordElementHandler() *WordElementHandler {
	return &WordElementHandler{}
}

// BuildBody 将块序列映射为段落/片段树
//
// 与逐行成段的规则不同，连续的表格行合并为一个 Word 表格，--- 输出为带下边框的空段落，
// 其余非空行按粗体片段拆分为段落。
func (h *WordElementHandler) BuildBody(doc *Document) *WordBody {
	body := &WordBody{}
	var table *WordTable

	for _, b := range doc.Blocks {
		if table != nil && (b.Kind != mdblock.KindTableRow || b.Header) {
			body.Elements = append(body.Elements, table)
			table = nil
		}

		switch b.Kind {
		case mdblock.KindHeading1, mdblock.KindHeading2, mdblock.KindHeading3:
			spacing := headingSpacing[b.Kind]
			body.Elements = append(body.Elements, &WordParagraph{
				Style:  spacing.style,
				Before: spacing.before,
				After:  spacing.after,
				Runs:   []WordRun{{Text: mdblock.FormatInline(b.Text, mdblock.PlainInline)}},
			})
		case mdblock.KindListItem:
			body.Elements = append(body.Elements, &WordParagraph{
				Style:  "ListParagraph",
				Bullet: true,
				Runs:   splitRuns(b.Text),
			})
		case mdblock.KindTableRow:
			if table == nil {
				table = &WordTable{}
			}
			table.Rows = append(table.Rows, WordTableRow{Header: b.Header, Cells: b.Cells})
		case mdblock.KindRule:
			body.Elements = append(body.Elements, &WordParagraph{Rule: true, After: 100})
		case mdblock.KindBlankLine:
			// 空行只是段落分隔
		default:
			body.Elements = append(body.Elements, h.paragraph(b.Text))
		}
	}
	if table != nil {
		body.Elements = append(body.Elements, table)
	}
	return body
}

// paragraph 整行被 ** 包裹时作为独立粗体段落，否则按粗体片段拆分
func (h *WordElementHandler) paragraph(text string) *WordParagraph {
	if len(text) >= 4 && strings.HasPrefix(text, "**") && strings.HasSuffix(text, "**") {
		return &WordParagraph{
			Before: 100,
			After:  50,
			Runs:   []WordRun{{Text: strings.ReplaceAll(text, "**", ""), Bold: true}},
		}
	}
	return &WordParagraph{After: 100, Runs: splitRuns(text)}
}

func splitRuns(text string) []WordRun {
	parts := mdblock.SplitBold(text)
	runs := make([]WordRun, 0, len(parts))
	for _, p := range parts {
		runs = append(runs, WordRun{Text: p.Text, Bold: p.Bold})
	}
	return runs
}

// ConvertToWordXml 生成 word/document.xml
func (h *WordElementHandler) ConvertToWordXml(body *WordBody) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
            xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
`)
	for _, el := range body.Elements {
		el.writeXML(&sb)
	}
	sb.WriteString(`    <w:sectPr>
      <w:pgSz w:w="11906" w:h="16838"/>
      <w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>
    </w:sectPr>
  </w:body>
</w:document>`)
	return sb.String()
}

func (p *WordParagraph) writeXML(sb *strings.Builder) {
	sb.WriteString("    <w:p>")
	sb.WriteString("<w:pPr>")
	if p.Style != "" {
		fmt.Fprintf(sb, `<w:pStyle w:val="%s"/>`, p.Style)
	}
	if p.Bullet {
		sb.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr>`)
	}
	if p.Rule {
		sb.WriteString(`<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="auto"/></w:pBdr>`)
	}
	if p.Before > 0 || p.After > 0 {
		fmt.Fprintf(sb, `<w:spacing w:before="%d" w:after="%d"/>`, p.Before, p.After)
	}
	sb.WriteString("</w:pPr>")
	for _, r := range p.Runs {
		writeRun(sb, r.Text, r.Bold)
	}
	sb.WriteString("</w:p>\n")
}

func (t *WordTable) writeXML(sb *strings.Builder) {
	sb.WriteString(`    <w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr>`)
	for _, row := range t.Rows {
		sb.WriteString("<w:tr>")
		if len(row.Cells) == 0 {
			sb.WriteString("<w:tc><w:p/></w:tc>")
		}
		for _, cell := range row.Cells {
			sb.WriteString("<w:tc><w:p>")
			for _, r := range splitRuns(cell) {
				writeRun(sb, r.Text, r.Bold || row.Header)
			}
			sb.WriteString("</w:p></w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>\n")
}

func writeRun(sb *strings.Builder, text string, bold bool) {
	sb.WriteString("<w:r>")
	if bold {
		sb.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	sb.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(sb, []byte(text))
	sb.WriteString("</w:t></w:r>")
}

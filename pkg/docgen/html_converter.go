package docgen

import (
	"html"
	"strings"

	"github.com/yockii/ai_report/pkg/mdblock"
)

const htmlStyle = `body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; max-width: 820px; margin: 40px auto; padding: 0 20px; line-height: 1.6; color: #1f2328; }
h1 { font-size: 2em; border-bottom: 2px solid #e5e7eb; padding-bottom: 0.3em; margin-top: 1.2em; }
h2 { font-size: 1.5em; border-bottom: 1px solid #e5e7eb; padding-bottom: 0.2em; margin-top: 1.4em; }
h3 { font-size: 1.25em; margin-top: 1.2em; }
p { margin: 0.6em 0; }
ul { padding-left: 1.6em; }
li { margin: 0.25em 0; }
hr { border: none; border-top: 1px solid #d0d7de; margin: 2em 0; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #d0d7de; padding: 6px 12px; text-align: left; }
th.header { background: #f6f8fa; font-weight: 600; }
tr:hover td { background: #f3f4f6; }`

// HtmlConverter 将块序列转换为独立的HTML文档，样式内联，不引用外部资源
type HtmlConverter struct{}

// NewHtmlConverter 创建一个新的HTML转换器
func NewHtmlConverter() *HtmlConverter {
	return &HtmlConverter{}
}

// Convert 生成完整HTML文档
func (c *HtmlConverter) Convert(doc *Document, meta Meta) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html lang="` + html.EscapeString(meta.Language) + `">` + "\n")
	sb.WriteString("<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	sb.WriteString("<title>" + html.EscapeString(meta.Title) + "</title>\n")
	sb.WriteString("<style>\n" + htmlStyle + "\n</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(c.ConvertBody(doc.Blocks))
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// ConvertBody 只转换正文部分
func (c *HtmlConverter) ConvertBody(blocks []mdblock.Block) string {
	var sb strings.Builder
	inList, inTable := false, false

	for _, b := range blocks {
		// 列表、表格的边界与解析器的状态转移一致：连续的同类块属于同一组
		if inList && b.Kind != mdblock.KindListItem {
			sb.WriteString("</ul>\n")
			inList = false
		}
		if inTable && (b.Kind != mdblock.KindTableRow || b.Header) {
			sb.WriteString("</table>\n")
			inTable = false
		}

		switch b.Kind {
		case mdblock.KindHeading1, mdblock.KindHeading2, mdblock.KindHeading3:
			tag := headingTag(b.Kind)
			sb.WriteString("<" + tag + ">" + inlineHTML(b.Text) + "</" + tag + ">\n")
		case mdblock.KindRule:
			sb.WriteString("<hr>\n")
		case mdblock.KindBlankLine:
			sb.WriteString("\n")
		case mdblock.KindListItem:
			if !inList {
				sb.WriteString("<ul>\n")
				inList = true
			}
			sb.WriteString("<li>" + inlineHTML(b.Text) + "</li>\n")
		case mdblock.KindTableRow:
			if !inTable {
				sb.WriteString("<table>\n")
				inTable = true
			}
			sb.WriteString(tableRowHTML(b))
		default:
			sb.WriteString("<p>" + inlineHTML(b.Text) + "</p>\n")
		}
	}

	if inList {
		sb.WriteString("</ul>\n")
	}
	if inTable {
		sb.WriteString("</table>\n")
	}
	return sb.String()
}

func headingTag(kind mdblock.Kind) string {
	switch kind {
	case mdblock.KindHeading1:
		return "h1"
	case mdblock.KindHeading2:
		return "h2"
	}
	return "h3"
}

func tableRowHTML(b mdblock.Block) string {
	var sb strings.Builder
	sb.WriteString("<tr>")
	for _, cell := range b.Cells {
		if b.Header {
			sb.WriteString(`<th class="header">` + inlineHTML(cell) + "</th>")
		} else {
			sb.WriteString("<td>" + inlineHTML(cell) + "</td>")
		}
	}
	sb.WriteString("</tr>\n")
	return sb.String()
}

// inlineHTML 先转义再套用粗体/斜体标签，* 不受转义影响
func inlineHTML(text string) string {
	return mdblock.FormatInline(html.EscapeString(text), mdblock.HTMLInline)
}

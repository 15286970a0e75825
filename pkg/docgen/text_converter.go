package docgen

import (
	"regexp"
	"strings"

	"github.com/yockii/ai_report/pkg/mdblock"
)

const (
	textBullet = "  • "
	// TextRule 纯文本中的分隔线
	TextRule = "────────────────────────────────────────"
)

var (
	extraNewlineRegex  = regexp.MustCompile(`\n{3,}`)
	deepHeadingRegex   = regexp.MustCompile(`^#{1,6}\s+`)
	danglingBoldMarker = regexp.MustCompile(`\*\*+`)
)

// TextConverter 将块序列转换为纯文本，去掉所有markdown结构标记
type TextConverter struct{}

// NewTextConverter 创建纯文本转换器
func NewTextConverter() *TextConverter {
	return &TextConverter{}
}

// Convert 生成纯文本
func (c *TextConverter) Convert(doc *Document) string {
	lines := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		switch b.Kind {
		case mdblock.KindHeading1, mdblock.KindHeading2, mdblock.KindHeading3:
			lines = append(lines, plainInline(b.Text))
		case mdblock.KindListItem:
			lines = append(lines, textBullet+plainInline(b.Text))
		case mdblock.KindRule:
			lines = append(lines, TextRule)
		case mdblock.KindBlankLine:
			lines = append(lines, "")
		case mdblock.KindTableRow:
			cells := make([]string, 0, len(b.Cells))
			for _, cell := range b.Cells {
				cells = append(cells, plainInline(cell))
			}
			lines = append(lines, mdblock.TableLine(cells))
		default:
			// 四级及以下标题在块解析中视为段落，纯文本中同样去掉前缀
			lines = append(lines, plainInline(deepHeadingRegex.ReplaceAllString(b.Text, "")))
		}
	}

	text := strings.Join(lines, "\n")
	text = extraNewlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func plainInline(text string) string {
	text = mdblock.FormatInline(text, mdblock.PlainInline)
	return danglingBoldMarker.ReplaceAllString(text, "")
}

package mdblock

// Kind 块类型
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading1
	KindHeading2
	KindHeading3
	KindListItem
	KindTableRow
	KindRule
	KindBlankLine
)

var kindNames = map[Kind]string{
	KindParagraph: "paragraph",
	KindHeading1:  "heading1",
	KindHeading2:  "heading2",
	KindHeading3:  "heading3",
	KindListItem:  "listItem",
	KindTableRow:  "tableRow",
	KindRule:      "rule",
	KindBlankLine: "blankLine",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsHeading 是否为标题块
func (k Kind) IsHeading() bool {
	return k == KindHeading1 || k == KindHeading2 || k == KindHeading3
}

// HeadingLevel 标题级别，非标题返回0
func (k Kind) HeadingLevel() int {
	switch k {
	case KindHeading1:
		return 1
	case KindHeading2:
		return 2
	case KindHeading3:
		return 3
	}
	return 0
}

// Block 解析得到的块级元素
type Block struct {
	Kind Kind
	// Text 未经行内格式化的原始文本，标题/列表项已去掉前缀
	Text string
	// Cells 表格行的单元格，仅 KindTableRow 有效
	Cells []string
	// Header 是否为表头行，仅 KindTableRow 有效
	Header bool
}

// RawLine 还原块对应的 markdown 行，表格行保留原始写法（分隔行已在解析时丢弃）
func (b Block) RawLine() string {
	switch b.Kind {
	case KindHeading1:
		return "# " + b.Text
	case KindHeading2:
		return "## " + b.Text
	case KindHeading3:
		return "### " + b.Text
	case KindListItem:
		return "- " + b.Text
	case KindRule:
		return "---"
	case KindBlankLine:
		return ""
	case KindTableRow:
		return b.Text
	}
	return b.Text
}

// TableLine 以 markdown 表格行格式拼接单元格
func TableLine(cells []string) string {
	if len(cells) == 0 {
		return "||"
	}
	line := "|"
	for _, cell := range cells {
		line += " " + cell + " |"
	}
	return line
}

package mdblock

import (
	"regexp"
	"strings"
)

// State 解析器状态
type State int

const (
	StateNone State = iota
	StateInList
	StateInTable
)

func (s State) String() string {
	switch s {
	case StateInList:
		return "inList"
	case StateInTable:
		return "inTable"
	}
	return "none"
}

// lineKind 行分类，决定状态转移
type lineKind int

const (
	lineParagraph lineKind = iota
	lineBlank
	lineHeading1
	lineHeading2
	lineHeading3
	lineRule
	lineListItem
	lineTableRow
	lineTableSeparator
)

var tableSeparatorRegex = regexp.MustCompile(`^\|[-:|\s]*\|$`)

// Parser 逐行扫描的块解析器
//
// 只跟踪三个状态：无、列表中、表格中。表格打开后遇到的第一行为表头，
// 与分隔行出现的位置无关。
type Parser struct {
	state         State
	headerPending bool
	blocks        []Block
	transitions   map[lineKind]func(line string)
}

// NewParser 创建块解析器
func NewParser() *Parser {
	p := &Parser{}
	p.transitions = map[lineKind]func(line string){
		lineTableSeparator: p.onTableSeparator,
		lineTableRow:       p.onTableRow,
		lineBlank:          p.onBlank,
		lineHeading3:       p.headingHandler(KindHeading3, "### "),
		lineHeading2:       p.headingHandler(KindHeading2, "## "),
		lineHeading1:       p.headingHandler(KindHeading1, "# "),
		lineRule:           p.onRule,
		lineListItem:       p.onListItem,
		lineParagraph:      p.onParagraph,
	}
	return p
}

// Parse 将markdown解析为块序列
func Parse(markdown string) []Block {
	p := NewParser()
	for _, line := range strings.Split(markdown, "\n") {
		p.Feed(line)
	}
	return p.Close()
}

// State 当前状态
func (p *Parser) State() State {
	return p.state
}

// Blocks 已解析的块
func (p *Parser) Blocks() []Block {
	return p.blocks
}

// Feed 处理一行输入
func (p *Parser) Feed(line string) {
	line = strings.TrimSuffix(line, "\r")
	kind := classify(line)

	// 表格中遇到非表格行时关闭表格，分隔行不算
	if p.state == StateInTable && kind != lineTableRow && kind != lineTableSeparator {
		p.state = StateNone
	}
	p.transitions[kind](line)
}

// Close 输入结束，关闭仍打开的列表或表格
func (p *Parser) Close() []Block {
	p.state = StateNone
	p.headerPending = false
	return p.blocks
}

func classify(line string) lineKind {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
		if tableSeparatorRegex.MatchString(trimmed) {
			return lineTableSeparator
		}
		return lineTableRow
	}
	switch {
	case trimmed == "":
		return lineBlank
	case strings.HasPrefix(line, "### "):
		return lineHeading3
	case strings.HasPrefix(line, "## "):
		return lineHeading2
	case strings.HasPrefix(line, "# "):
		return lineHeading1
	case line == "---":
		return lineRule
	case strings.HasPrefix(line, "- "):
		return lineListItem
	}
	return lineParagraph
}

func (p *Parser) closeList() {
	if p.state == StateInList {
		p.state = StateNone
	}
}

func (p *Parser) emit(b Block) {
	p.blocks = append(p.blocks, b)
}

func (p *Parser) onTableSeparator(string) {}

func (p *Parser) onTableRow(line string) {
	p.closeList()
	if p.state != StateInTable {
		p.state = StateInTable
		p.headerPending = true
	}
	p.emit(Block{
		Kind:   KindTableRow,
		Text:   strings.TrimSpace(line),
		Cells:  splitCells(line),
		Header: p.headerPending,
	})
	p.headerPending = false
}

func (p *Parser) onBlank(string) {
	p.closeList()
	p.emit(Block{Kind: KindBlankLine})
}

func (p *Parser) headingHandler(kind Kind, prefix string) func(line string) {
	return func(line string) {
		p.closeList()
		p.emit(Block{Kind: kind, Text: strings.TrimPrefix(line, prefix)})
	}
}

func (p *Parser) onRule(string) {
	p.closeList()
	p.emit(Block{Kind: KindRule})
}

func (p *Parser) onListItem(line string) {
	p.state = StateInList
	p.emit(Block{Kind: KindListItem, Text: strings.TrimPrefix(line, "- ")})
}

func (p *Parser) onParagraph(line string) {
	p.closeList()
	p.emit(Block{Kind: KindParagraph, Text: line})
}

// splitCells 按 | 切分单元格，去掉首尾两侧的空段
func splitCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	parts := strings.Split(trimmed, "|")
	if len(parts) <= 2 {
		return []string{}
	}
	parts = parts[1 : len(parts)-1]
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

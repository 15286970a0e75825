package mdblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(blocks []Block) []Kind {
	out := make([]Kind, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Kind)
	}
	return out
}

func TestParseHeadingsAndParagraphs(t *testing.T) {
	blocks := Parse("# Title\n## Sub\n### Small\n#### Deep\nplain text")

	require.Len(t, blocks, 5)
	assert.Equal(t, []Kind{KindHeading1, KindHeading2, KindHeading3, KindParagraph, KindParagraph}, kinds(blocks))
	assert.Equal(t, "Title", blocks[0].Text)
	assert.Equal(t, "Sub", blocks[1].Text)
	assert.Equal(t, "Small", blocks[2].Text)
	assert.Equal(t, "#### Deep", blocks[3].Text)
	assert.Equal(t, "plain text", blocks[4].Text)
}

func TestParseTable(t *testing.T) {
	blocks := Parse("| A | B |\n|---|---|\n| 1 | 2 |")

	require.Len(t, blocks, 2)
	assert.Equal(t, KindTableRow, blocks[0].Kind)
	assert.True(t, blocks[0].Header)
	assert.Equal(t, []string{"A", "B"}, blocks[0].Cells)
	assert.Equal(t, KindTableRow, blocks[1].Kind)
	assert.False(t, blocks[1].Header)
	assert.Equal(t, []string{"1", "2"}, blocks[1].Cells)
}

func TestParseTableHeaderOnlyFirstRow(t *testing.T) {
	blocks := Parse("| A | B |\n| 1 | 2 |\n|:-:|---|\n| 3 | 4 |")

	require.Len(t, blocks, 3)
	headers := 0
	for _, b := range blocks {
		if b.Header {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
	assert.True(t, blocks[0].Header)
}

func TestParseTwoTablesEachHaveHeader(t *testing.T) {
	blocks := Parse("| A |\n| 1 |\n\n| B |\n| 2 |")

	require.Len(t, blocks, 5)
	assert.True(t, blocks[0].Header)
	assert.False(t, blocks[1].Header)
	assert.Equal(t, KindBlankLine, blocks[2].Kind)
	assert.True(t, blocks[3].Header)
	assert.False(t, blocks[4].Header)
}

func TestParseListBoundary(t *testing.T) {
	blocks := Parse("- a\n- b\n\ntext")

	assert.Equal(t, []Kind{KindListItem, KindListItem, KindBlankLine, KindParagraph}, kinds(blocks))
	assert.Equal(t, "a", blocks[0].Text)
	assert.Equal(t, "b", blocks[1].Text)
}

func TestParseRuleAndCRLF(t *testing.T) {
	blocks := Parse("intro\r\n---\r\n- item\r\n")

	assert.Equal(t, []Kind{KindParagraph, KindRule, KindListItem, KindBlankLine}, kinds(blocks))
	assert.Equal(t, "item", blocks[2].Text)
}

func TestParseMalformedInputDoesNotPanic(t *testing.T) {
	inputs := []string{"", "|", "||", "| unclosed", "**bold", "- ", "#", "|a|b", "---|---"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Parse(in) }, in)
	}
	blocks := Parse("|")
	require.Len(t, blocks, 1)
	assert.Equal(t, KindTableRow, blocks[0].Kind)
	assert.Empty(t, blocks[0].Cells)
}

func TestParserStateTransitions(t *testing.T) {
	p := NewParser()
	assert.Equal(t, StateNone, p.State())

	p.Feed("- one")
	assert.Equal(t, StateInList, p.State())

	// 表格行会先关闭列表
	p.Feed("| h |")
	assert.Equal(t, StateInTable, p.State())

	p.Feed("|---|")
	assert.Equal(t, StateInTable, p.State())

	p.Feed("- two")
	assert.Equal(t, StateInList, p.State())

	p.Feed("## heading")
	assert.Equal(t, StateNone, p.State())

	p.Feed("| x |")
	p.Feed("")
	assert.Equal(t, StateNone, p.State())

	p.Feed("- three")
	blocks := p.Close()
	assert.Equal(t, StateNone, p.State())
	assert.Len(t, blocks, 7)
	assert.True(t, blocks[4].Header)
	assert.Equal(t, KindBlankLine, blocks[5].Kind)
}

func TestRawLine(t *testing.T) {
	blocks := Parse("# T\n- x\n| a | b |\n|c|d|\n---\nhello")
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		lines = append(lines, b.RawLine())
	}
	assert.Equal(t, []string{"# T", "- x", "| a | b |", "|c|d|", "---", "hello"}, lines)
}

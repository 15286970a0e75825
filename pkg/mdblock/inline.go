package mdblock

import (
	"regexp"
	"strings"
)

var (
	boldRegex   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRegex = regexp.MustCompile(`\*(.+?)\*`)
)

// InlineStyle 行内粗体/斜体的替换方式，$1 为被包裹的文本
type InlineStyle struct {
	Bold   string
	Italic string
}

var (
	// HTMLInline 输出HTML标签
	HTMLInline = InlineStyle{Bold: "<strong>$1</strong>", Italic: "<em>$1</em>"}
	// PlainInline 去掉粗体和斜体标记
	PlainInline = InlineStyle{Bold: "$1", Italic: "$1"}
)

// FormatInline 先替换粗体再替换斜体，两遍都作用于整个字符串
func FormatInline(text string, style InlineStyle) string {
	text = boldRegex.ReplaceAllString(text, style.Bold)
	return italicRegex.ReplaceAllString(text, style.Italic)
}

// StripBold 去掉全部 ** 标记，包括未闭合的，斜体标记保留
func StripBold(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

// Run 行内文本片段
type Run struct {
	Text string
	Bold bool
}

// SplitBold 按粗体片段切分文本，保留粗体与普通文本的先后顺序
func SplitBold(text string) []Run {
	var runs []Run
	last := 0
	for _, loc := range boldRegex.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			runs = append(runs, Run{Text: text[last:loc[0]]})
		}
		runs = append(runs, Run{Text: text[loc[2]:loc[3]], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		runs = append(runs, Run{Text: text[last:]})
	}
	return runs
}

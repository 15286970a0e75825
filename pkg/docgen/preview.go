package docgen

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Previewer 生成过程中的实时预览渲染，可以处理不完整的markdown
type Previewer struct {
	markdown goldmark.Markdown
}

// NewPreviewer 创建预览渲染器
func NewPreviewer() *Previewer {
	return &Previewer{
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM, // GitHub Flavored Markdown支持表格
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
	}
}

// RenderString 将markdown渲染为HTML片段，原始HTML会被忽略
func (p *Previewer) RenderString(source string) (string, error) {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

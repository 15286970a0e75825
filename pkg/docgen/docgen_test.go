package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = Meta{
	Title:       "AI Weekly Report — 2025-kw04",
	PeriodID:    "2025-kw04",
	Language:    "en",
	GeneratedAt: time.Date(2025, 1, 27, 8, 30, 0, 0, time.UTC),
}

const sampleReport = `# AI Weekly Report

Intro with *emphasis* and **weight**.

## Executive Summary
- **OpenAI** released a model
- Funding rose

| Company | Amount |
|---|---|
| Acme | $10M |
| Beta | $5M |

---

### Outlook
**Key takeaway**
Markets stay *volatile*.`

func TestMinimalDocument(t *testing.T) {
	g := NewDocGenerator()
	doc := Parse("# Title\n\nHello **world**.")

	out := string(g.RenderHTML(doc, testMeta))
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<p>Hello <strong>world</strong>.</p>")

	assert.Equal(t, "Title\n\nHello world.", string(g.RenderText(doc)))

	data, err := g.RenderRecord(doc, testMeta)
	require.NoError(t, err)
	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	require.Len(t, rec.Report.Sections, 1)
	assert.Equal(t, RecordSection{Title: "Title", Level: 1, Paragraphs: []string{"Hello world."}}, rec.Report.Sections[0])
}

func TestHTMLListBoundary(t *testing.T) {
	body := NewHtmlConverter().ConvertBody(Parse("- a\n- b\n\ntext").Blocks)

	assert.Equal(t, "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n\n<p>text</p>\n", body)
	assert.Equal(t, 1, strings.Count(body, "<ul>"))
}

func TestHTMLListItemCount(t *testing.T) {
	md := "# H\n\n- one\n- two\n- three\n\npara\n\n- four\n- five"
	body := NewHtmlConverter().ConvertBody(Parse(md).Blocks)

	assert.Equal(t, 5, strings.Count(body, "<li>"))
	assert.Equal(t, 2, strings.Count(body, "<ul>"))
	assert.Equal(t, 2, strings.Count(body, "</ul>"))
}

func TestHTMLTable(t *testing.T) {
	body := NewHtmlConverter().ConvertBody(Parse("| A | B |\n|---|---|\n| 1 | **2** |").Blocks)

	assert.Equal(t, "<table>\n<tr><th class=\"header\">A</th><th class=\"header\">B</th></tr>\n<tr><td>1</td><td><strong>2</strong></td></tr>\n</table>\n", body)
}

func TestHTMLDocumentIsSelfContained(t *testing.T) {
	out := string(NewDocGenerator().RenderHTML(Parse(sampleReport), testMeta))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<style>")
	assert.Contains(t, out, "<title>AI Weekly Report — 2025-kw04</title>")
	assert.Contains(t, out, "<hr>")
	assert.Contains(t, out, "<h3>Outlook</h3>")
	assert.NotContains(t, out, "<link")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "http://")
	assert.NotContains(t, out, "https://")
}

func TestHTMLEscapesText(t *testing.T) {
	body := NewHtmlConverter().ConvertBody(Parse("a <b> & **c**").Blocks)
	assert.Equal(t, "<p>a &lt;b&gt; &amp; <strong>c</strong></p>\n", body)
}

func TestPlainTextHasNoMarkup(t *testing.T) {
	inputs := []string{
		sampleReport,
		"#### deep heading\n**unclosed bold\n- *x*",
		"# **Bold title**\n\n\n\n\ntext",
	}
	for _, in := range inputs {
		out := NewTextConverter().Convert(Parse(in))
		assert.NotContains(t, out, "#", in)
		assert.NotContains(t, out, "*", in)
	}
}

func TestPlainTextStructure(t *testing.T) {
	out := NewTextConverter().Convert(Parse("# T\n- a\n---\n\n\n\nend"))
	assert.Equal(t, "T\n  • a\n"+TextRule+"\n\nend", out)
}

func TestRecordSections(t *testing.T) {
	rec := NewRecordConverter().Build(Parse("preamble\n# A\n- **x** one\n\n## B\n*kept* **gone**\n| c | d |"), testMeta)

	assert.Equal(t, "2025-kw04", rec.Report.PeriodID)
	assert.Equal(t, "en", rec.Report.Language)
	assert.Equal(t, "2025-01-27T08:30:00.000Z", rec.Report.GeneratedAt)
	require.Len(t, rec.Report.Sections, 2)
	assert.Equal(t, []string{"x one"}, rec.Report.Sections[0].Paragraphs)
	assert.Equal(t, 2, rec.Report.Sections[1].Level)
	assert.Equal(t, []string{"*kept* gone", "| c | d |"}, rec.Report.Sections[1].Paragraphs)
}

func TestRecordKeepsSourceLines(t *testing.T) {
	rec := NewRecordConverter().Build(Parse("# T\na **b\n|A|B|\n|---|---|\n| 1 | 2 |\n---\n*only italic*"), testMeta)

	require.Len(t, rec.Report.Sections, 1)
	assert.Equal(t, []string{"a b", "|A|B|", "| 1 | 2 |", "---", "*only italic*"}, rec.Report.Sections[0].Paragraphs)
}

func TestRecordKeyOrder(t *testing.T) {
	data, err := NewRecordConverter().Convert(Parse("# A\n"), testMeta)
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "{\n  \"report\": {\n    \"periodId\""))
	assert.Less(t, strings.Index(out, "periodId"), strings.Index(out, "language"))
	assert.Less(t, strings.Index(out, "language"), strings.Index(out, "generatedAt"))
	assert.Less(t, strings.Index(out, "generatedAt"), strings.Index(out, "sections"))
	assert.Contains(t, out, `"paragraphs": []`)
}

func TestRecordEmptyDocument(t *testing.T) {
	data, err := NewRecordConverter().Convert(Parse("no heading here"), testMeta)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sections": []`)
}

func readDocumentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	var content string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			content = string(b)
		}
	}
	assert.Contains(t, names, "[Content_Types].xml")
	assert.Contains(t, names, "word/styles.xml")
	assert.Contains(t, names, "word/numbering.xml")
	return content
}

func TestDocxPackage(t *testing.T) {
	data, err := NewDocGenerator().RenderDocx(Parse(sampleReport), testMeta)
	require.NoError(t, err)

	xml := readDocumentXML(t, data)
	assert.Contains(t, xml, `<w:pStyle w:val="Heading1"/><w:spacing w:before="400" w:after="200"/>`)
	assert.Contains(t, xml, `<w:pStyle w:val="Heading3"/><w:spacing w:before="200" w:after="100"/>`)
	assert.Contains(t, xml, `<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr>`)
	assert.Contains(t, xml, "<w:tbl>")
	assert.Equal(t, 1, strings.Count(xml, "<w:tbl>"))
	assert.Contains(t, xml, `<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="auto"/></w:pBdr>`)
	assert.Contains(t, xml, `<w:t xml:space="preserve">$10M</w:t>`)
	assert.NotContains(t, xml, "**")
}

func TestWordParagraphRuns(t *testing.T) {
	h := NewWordElementHandler()
	body := h.BuildBody(Parse("**Whole line**\nPlain **bold** tail\n\n- item"))

	require.Len(t, body.Elements, 3)

	whole := body.Elements[0].(*WordParagraph)
	assert.Equal(t, []WordRun{{Text: "Whole line", Bold: true}}, whole.Runs)
	assert.Equal(t, 100, whole.Before)
	assert.Equal(t, 50, whole.After)

	mixed := body.Elements[1].(*WordParagraph)
	assert.Equal(t, []WordRun{{Text: "Plain "}, {Text: "bold", Bold: true}, {Text: " tail"}}, mixed.Runs)

	item := body.Elements[2].(*WordParagraph)
	assert.True(t, item.Bullet)
	assert.Equal(t, []WordRun{{Text: "item"}}, item.Runs)
}

func TestEmittersAreIdempotent(t *testing.T) {
	g := NewDocGenerator()

	assert.Equal(t, g.RenderHTML(Parse(sampleReport), testMeta), g.RenderHTML(Parse(sampleReport), testMeta))
	assert.Equal(t, g.RenderText(Parse(sampleReport)), g.RenderText(Parse(sampleReport)))

	r1, err := g.RenderRecord(Parse(sampleReport), testMeta)
	require.NoError(t, err)
	r2, err := g.RenderRecord(Parse(sampleReport), testMeta)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	d1, err := g.RenderDocx(Parse(sampleReport), testMeta)
	require.NoError(t, err)
	d2, err := g.RenderDocx(Parse(sampleReport), testMeta)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(d1, d2))
}

func TestEmittersTolerateMalformedInput(t *testing.T) {
	g := NewDocGenerator()
	for _, in := range []string{"", "|", "**", "| a |\n|", "# \n- \n**x", "***", "|-|-|\n|x"} {
		doc := Parse(in)
		assert.NotPanics(t, func() {
			g.RenderHTML(doc, testMeta)
			g.RenderText(doc)
			_, err := g.RenderRecord(doc, testMeta)
			assert.NoError(t, err)
			_, err = g.RenderDocx(doc, testMeta)
			assert.NoError(t, err)
		}, in)
	}
}

func TestPreview(t *testing.T) {
	out, err := NewPreviewer().RenderString("## Partial\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n- item **bo")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<li>item **bo</li>")
}

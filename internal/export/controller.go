package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/docgen"
	"github.com/yockii/ai_report/pkg/logger"
)

// Format 导出格式
type Format string

const (
	FormatDocx     Format = "docx"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// Formats 全部导出格式，按界面展示顺序
var Formats = []Format{FormatDocx, FormatHTML, FormatMarkdown, FormatText, FormatJSON}

var contentTypes = map[Format]string{
	FormatDocx:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatHTML:     "text/html; charset=utf-8",
	FormatMarkdown: "text/markdown; charset=utf-8",
	FormatText:     "text/plain; charset=utf-8",
	FormatJSON:     "application/json",
}

// ContentType 格式对应的MIME类型
func (f Format) ContentType() string {
	return contentTypes[f]
}

// ParseFormat 解析导出格式，大小写不敏感，允许带前导点
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", constant.ErrUnsupportedFormat, s)
	}
	return f, nil
}

// ParseFormats 解析逗号分隔的格式列表，空字符串表示全部格式
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return Formats, nil
	}
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Artifact 一次导出的结果
type Artifact struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// Source 可导出的报告
type Source struct {
	PeriodID string
	Language string
	Markdown string
}

// Controller 导出控制器
type Controller struct {
	generator  *docgen.DocGenerator
	filePrefix string
	now        func() time.Time
}

// NewController 创建导出控制器
func NewController(filePrefix string) *Controller {
	if filePrefix == "" {
		filePrefix = "ai-report"
	}
	return &Controller{
		generator:  docgen.NewDocGenerator(),
		filePrefix: filePrefix,
		now:        time.Now,
	}
}

// Filename 导出文件名 {prefix}-{periodId}-{language}.{ext}
func (c *Controller) Filename(periodID, language string, format Format) string {
	return fmt.Sprintf("%s-%s-%s.%s", c.filePrefix, periodID, language, format)
}

// Export 将报告转换为指定格式
//
// markdown原样输出，其余格式共用一次块解析的结果。打包失败时直接返回错误。
func (c *Controller) Export(src Source, format Format) (*Artifact, error) {
	if _, ok := contentTypes[format]; !ok {
		return nil, fmt.Errorf("%w: %q", constant.ErrUnsupportedFormat, format)
	}

	doc := docgen.Parse(src.Markdown)
	meta := docgen.Meta{
		Title:       model.DocumentTitle(src.Language, src.PeriodID),
		PeriodID:    src.PeriodID,
		Language:    src.Language,
		GeneratedAt: c.now(),
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDocx:
		data, err = c.generator.RenderDocx(doc, meta)
	case FormatHTML:
		data = c.generator.RenderHTML(doc, meta)
	case FormatMarkdown:
		data = []byte(src.Markdown)
	case FormatText:
		data = c.generator.RenderText(doc)
	case FormatJSON:
		data, err = c.generator.RenderRecord(doc, meta)
	}
	if err != nil {
		logger.Error("导出报告失败",
			logger.F("format", format),
			logger.F("periodId", src.PeriodID),
			logger.F("err", err),
		)
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	return &Artifact{
		Format:      format,
		Filename:    c.Filename(src.PeriodID, src.Language, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Finished 已完成生成的会话
type Finished interface {
	PeriodID() string
	Language() string
	Finished() (string, error)
}

// ExportSession 导出会话内容，只有 done 状态可导出
func (c *Controller) ExportSession(s Finished, format Format) (*Artifact, error) {
	markdown, err := s.Finished()
	if err != nil {
		return nil, err
	}
	return c.Export(Source{PeriodID: s.PeriodID(), Language: s.Language(), Markdown: markdown}, format)
}

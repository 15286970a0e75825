package model

import (
	"regexp"
	"slices"
	"strings"

	"github.com/yockii/ai_report/pkg/config"
)

// 周期ID是不透明的标识，例如 2025-kw04 或 2025-01-20，只约束为可安全用于文件名和URL路径的字符
var periodIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ReportRequest 报告生成请求
type ReportRequest struct {
	PeriodID string `json:"periodId"`
	// WeekID 兼容旧版客户端的字段名
	WeekID   string `json:"weekId,omitempty"`
	Language string `json:"language"`
}

// Period 返回请求的周期ID，periodId 优先
func (r *ReportRequest) Period() string {
	if r.PeriodID != "" {
		return strings.TrimSpace(r.PeriodID)
	}
	return strings.TrimSpace(r.WeekID)
}

// ValidPeriodID 检查周期ID是否合法
func ValidPeriodID(periodID string) bool {
	return periodIDRegex.MatchString(periodID)
}

// NormalizeLanguage 不支持的语言回退为默认语言
func NormalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if slices.Contains(config.GetStringSlice("report.languages"), language) {
		return language
	}
	return config.GetString("report.default_language")
}

// ReportTitle 返回语言对应的报告标题
func ReportTitle(language string) string {
	titles := config.GetStringMapString("report.titles")
	if title, ok := titles[language]; ok && title != "" {
		return title
	}
	if title, ok := titles[config.GetString("report.default_language")]; ok && title != "" {
		return title
	}
	return "AI Report"
}

// DocumentTitle 导出文档的标题
func DocumentTitle(language, periodID string) string {
	return ReportTitle(language) + " — " + periodID
}

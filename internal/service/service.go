package service

import (
	"context"
	"net/http"
	"time"

	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/export"
	"github.com/yockii/ai_report/internal/generation"
	"github.com/yockii/ai_report/internal/llm"
	"github.com/yockii/ai_report/internal/model"
)

// ReportService 管理报告视图对应的生成会话
type ReportService interface {
	// Create 创建会话并立即开始生成
	Create(ctx context.Context, req *model.ReportRequest) (*generation.Session, error)
	// Get 获取会话
	Get(id string) (*generation.Session, error)
	// Regenerate 中止当前生成并重新开始
	Regenerate(id string) (*generation.Session, error)
	// Close 中止生成、丢弃内容并移除会话
	Close(id string) error
	// List 所有会话的快照
	List() []model.SessionSnapshot
	// Export 导出已完成的报告
	Export(id string, format export.Format) (*export.Artifact, error)
	// Preview 当前内容的实时预览HTML
	Preview(id string) (string, error)
	// StartReaper 定期关闭长时间无人访问的会话
	StartReaper(ctx context.Context, interval, idle time.Duration)
	// Shutdown 关闭全部会话
	Shutdown()
}

// GeneratorService 报告生成后端
type GeneratorService interface {
	// Prepare 获取周期数据并构建提示词，没有数据时返回 ErrNoPeriodData
	Prepare(ctx context.Context, req *model.ReportRequest) (*PreparedReport, error)
	// Stream 流式生成报告文本
	Stream(ctx context.Context, prepared *PreparedReport, onDelta func(string) error) error
}

// PreparedReport 已准备好提示词的生成请求
type PreparedReport struct {
	PeriodID string
	Language string
	Prompt   llm.Prompt
}

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func OK(data interface{}) *Response {
	return NewResponse(data, nil)
}

func Error(err error) *Response {
	return NewResponse(nil, err)
}

// NewResponse 创建响应
func NewResponse(data interface{}, err error) *Response {
	if err == nil {
		return &Response{
			Code:    http.StatusOK,
			Message: "success",
			Data:    data,
		}
	}

	code := constant.GetErrorCode(err)
	return &Response{
		Code:    code,
		Message: err.Error(),
		Data:    data,
	}
}

// ListResponse 列表响应结构
type ListResponse struct {
	Total int64       `json:"total"`
	Items interface{} `json:"items"`
}

// NewListResponse 创建列表响应
func NewListResponse(items interface{}, total int64) *ListResponse {
	return &ListResponse{
		Total: total,
		Items: items,
	}
}

package appapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/export"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/internal/service"
	"github.com/yockii/ai_report/pkg/logger"
)

type SessionHandler struct {
	reportService service.ReportService
}

func RegisterSessionHandler(reportService service.ReportService) {
	handler := &SessionHandler{
		reportService: reportService,
	}
	Handlers = append(Handlers, handler)
}

func (h *SessionHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/reports")
	{
		r.Post("", h.Create)
		r.Get("", h.List)
		r.Get("/:id", h.Get)
		r.Get("/:id/events", h.Events)
		r.Get("/:id/preview", h.Preview)
		r.Post("/:id/regenerate", h.Regenerate)
		r.Delete("/:id", h.Close)
		r.Get("/:id/export/:format", h.Export)
	}
}

// Create 创建报告会话并开始生成
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req model.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Warn("解析请求参数失败", logger.F("err", err))
		return errorResponse(c, constant.ErrInvalidParams)
	}
	session, err := h.reportService.Create(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(service.OK(session.Snapshot(false)))
}

// List 所有会话
func (h *SessionHandler) List(c *fiber.Ctx) error {
	list := h.reportService.List()
	return c.JSON(service.OK(service.NewListResponse(list, int64(len(list)))))
}

// Get 会话快照，包含当前内容
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.reportService.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(service.OK(session.Snapshot(true)))
}

// Preview 当前内容的实时预览
func (h *SessionHandler) Preview(c *fiber.Ctx) error {
	html, err := h.reportService.Preview(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// Regenerate 中止当前生成并重新开始
func (h *SessionHandler) Regenerate(c *fiber.Ctx) error {
	session, err := h.reportService.Regenerate(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(service.OK(session.Snapshot(false)))
}

// Close 关闭会话
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	if err := h.reportService.Close(c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(service.OK(nil))
}

// Export 下载导出文件，只有生成完成后可用
func (h *SessionHandler) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return errorResponse(c, err)
	}
	artifact, err := h.reportService.Export(c.Params("id"), format)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Attachment(artifact.Filename)
	c.Set(fiber.HeaderContentType, artifact.ContentType)
	return c.Send(artifact.Data)
}

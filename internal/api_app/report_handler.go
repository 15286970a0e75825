package appapi

import (
	"bufio"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/internal/service"
	"github.com/yockii/ai_report/pkg/logger"
)

// 生成协程与响应写入之间的缓冲
const deltaBuffer = 64

type ReportHandler struct {
	generatorService service.GeneratorService
}

func RegisterReportHandler(generatorService service.GeneratorService) {
	handler := &ReportHandler{
		generatorService: generatorService,
	}
	Handlers = append(Handlers, handler)
}

func (h *ReportHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/report", h.Generate)
}

// Generate 流式返回生成的markdown
//
// 在写出第一段内容之前发生的错误以对应状态码返回，之后的错误只能截断响应。
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var req model.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Warn("解析请求参数失败", logger.F("err", err))
		return c.Status(fiber.StatusBadRequest).SendString("Missing or invalid periodId")
	}

	prepared, err := h.generatorService.Prepare(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, constant.ErrInvalidParams):
			return c.Status(fiber.StatusBadRequest).SendString("Missing or invalid periodId")
		case errors.Is(err, constant.ErrNoPeriodData):
			return c.Status(fiber.StatusNotFound).SendString(constant.ErrNoPeriodData.Error())
		}
		logger.Error("准备报告生成失败", logger.F("err", err))
		return c.Status(fiber.StatusInternalServerError).SendString("Error generating report")
	}

	// 生成过程独立于请求的 fasthttp 上下文，写出失败时取消
	ctx, cancel := context.WithCancel(context.Background())
	deltas := make(chan string, deltaBuffer)
	errc := make(chan error, 1)
	go func() {
		defer close(deltas)
		errc <- h.generatorService.Stream(ctx, prepared, func(delta string) error {
			select {
			case deltas <- delta:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	first, ok := <-deltas
	if !ok {
		cancel()
		if err = <-errc; err != nil {
			return c.Status(constant.GetErrorCode(err)).SendString("Error generating report")
		}
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return c.SendStatus(fiber.StatusOK)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		write := func(delta string) error {
			if _, err := w.WriteString(delta); err != nil {
				return err
			}
			return w.Flush()
		}

		if err := write(first); err != nil {
			logger.Warn("客户端已断开", logger.F("periodId", prepared.PeriodID), logger.F("err", err))
			cancel()
		}
		for delta := range deltas {
			if ctx.Err() != nil {
				continue
			}
			if err := write(delta); err != nil {
				logger.Warn("客户端已断开", logger.F("periodId", prepared.PeriodID), logger.F("err", err))
				cancel()
			}
		}
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("报告流中断", logger.F("periodId", prepared.PeriodID), logger.F("err", err))
		}
	}))
	return nil
}

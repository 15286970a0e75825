package appapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/service"
)

var Handlers []Handler

type Handler interface {
	RegisterRoutes(router fiber.Router)
}

/*
报告相关接口：
1、生成后端：按周期数据流式生成markdown报告
2、报告会话：创建、查询、实时事件流、预览、重新生成、关闭
3、导出：docx/html/md/txt/json 下载
*/

// errorResponse 按错误类型返回对应状态码的JSON
func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(constant.GetErrorCode(err)).JSON(service.Error(err))
}

package constant

import (
	"errors"
	"net/http"
)

// 自定义错误
var (
	// 通用错误
	ErrInternalError  = errors.New("内部错误")
	ErrInvalidParams  = errors.New("参数错误")
	ErrRecordNotFound = errors.New("记录不存在")
	ErrCacheError     = errors.New("缓存错误")

	// 生成相关错误
	ErrBackendStatus     = errors.New("生成服务返回错误状态")
	ErrGenerationTimeout = errors.New("生成超时")
	ErrNoPeriodData      = errors.New("No data available for this period")
	ErrLLMNotConfigured  = errors.New("模型服务未配置")

	// 导出相关错误
	ErrExportUnavailable = errors.New("报告尚未生成完成，无法导出")
	ErrUnsupportedFormat = errors.New("不支持的导出格式")
)

// 获取错误对应的HTTP状态码
func GetErrorCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidParams), errors.Is(err, ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrNoPeriodData):
		return http.StatusNotFound
	case errors.Is(err, ErrExportUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrBackendStatus):
		return http.StatusBadGateway
	case errors.Is(err, ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrLLMNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

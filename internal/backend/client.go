package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/logger"
)

// 错误信息中保留的响应体长度
const errorBodyExcerpt = 512

// Opener 打开一次报告生成的流式响应
type Opener interface {
	OpenReport(ctx context.Context, periodID, language string) (io.ReadCloser, error)
}

// Client 生成后端的HTTP客户端
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient 创建生成后端客户端
//
// 不设置 http.Client 的超时，整个生成过程的时限由调用方的 context 控制。
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{},
	}
}

// OpenReport 发起生成请求，返回未读取的响应体
//
// 非2xx状态在读取任何内容之前即视为失败。
func (c *Client) OpenReport(ctx context.Context, periodID, language string) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(&model.ReportRequest{PeriodID: periodID, Language: language})
	if err != nil {
		logger.Error("序列化请求体失败", logger.F("err", err))
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		logger.Error("创建请求失败", logger.F("err", err))
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("发送请求失败", logger.F("err", err), logger.F("url", c.url))
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyExcerpt))
		logger.Error("生成服务返回错误",
			logger.F("statusCode", resp.StatusCode),
			logger.F("response", string(body)),
			logger.F("periodId", periodID),
		)
		return nil, fmt.Errorf("%w: %d, %s", constant.ErrBackendStatus, resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

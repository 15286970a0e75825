package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/pkg/config"
)

// Streamer 流式生成文本，每收到一段增量即回调一次，回调返回错误时停止生成
type Streamer interface {
	Stream(ctx context.Context, prompt Prompt, onDelta func(delta string) error) error
}

// Settings 模型服务配置
type Settings struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// SettingsFromConfig 读取模型服务配置
func SettingsFromConfig() Settings {
	return Settings{
		Provider:    config.GetString("llm.provider"),
		APIKey:      config.GetString("llm.api_key"),
		BaseURL:     config.GetString("llm.base_url"),
		Model:       config.GetString("llm.model"),
		Temperature: config.GetFloat64("llm.temperature"),
		MaxTokens:   config.GetInt64("llm.max_tokens"),
	}
}

// New 根据配置创建生成客户端
func New(s Settings) (Streamer, error) {
	switch s.Provider {
	case "mock":
		return NewMockStreamer(0), nil
	case "", "openai":
		streamer, err := NewOpenAIStreamer(s)
		if err != nil {
			return nil, err
		}
		return streamer, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", constant.ErrLLMNotConfigured, s.Provider)
	}
}

// OpenAIStreamer 兼容OpenAI接口的流式客户端，默认指向OpenRouter
type OpenAIStreamer struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewOpenAIStreamer 创建OpenAI兼容客户端
func NewOpenAIStreamer(s Settings) (*OpenAIStreamer, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: llm.api_key is empty", constant.ErrLLMNotConfigured)
	}
	if s.Model == "" {
		return nil, fmt.Errorf("%w: llm.model is empty", constant.ErrLLMNotConfigured)
	}
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &OpenAIStreamer{
		client:      openai.NewClient(opts...),
		model:       s.Model,
		temperature: s.Temperature,
		maxTokens:   s.MaxTokens,
	}, nil
}

func (o *OpenAIStreamer) Stream(ctx context.Context, prompt Prompt, onDelta func(string) error) error {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(o.maxTokens)
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	return nil
}

// MockStreamer 不调用模型，按行输出一份固定结构的报告，用于本地开发和测试
type MockStreamer struct {
	delay time.Duration
}

// NewMockStreamer 创建模拟客户端，delay 为每段之间的间隔
func NewMockStreamer(delay time.Duration) *MockStreamer {
	return &MockStreamer{delay: delay}
}

func (m *MockStreamer) Stream(ctx context.Context, prompt Prompt, onDelta func(string) error) error {
	report := MockReport(prompt)
	for _, line := range strings.SplitAfter(report, "\n") {
		if m.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(line); err != nil {
			return err
		}
	}
	return nil
}

// MockReport 根据提示词中的数据生成的固定报告
func MockReport(prompt Prompt) string {
	var data []string
	if i := strings.Index(prompt.System, "DATA:\n"); i >= 0 {
		for _, line := range strings.Split(prompt.System[i+len("DATA:\n"):], "\n") {
			if strings.HasPrefix(line, "- ") {
				data = append(data, line)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("# AI Briefing\n\n")
	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString(prompt.User + "\n\n")
	sb.WriteString("## Key Data Points\n\n")
	if len(data) == 0 {
		sb.WriteString("No data available for this section.\n")
	}
	for _, line := range data {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "| Items | Count |\n|---|---|\n| **Data points** | %d |\n", len(data))
	return sb.String()
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/feed"
	"github.com/yockii/ai_report/internal/llm"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/logger"
)

type generatorService struct {
	fetcher  *feed.Fetcher
	streamer llm.Streamer
}

// NewGeneratorService 创建生成后端服务，streamer 为 nil 时生成请求返回 ErrLLMNotConfigured
func NewGeneratorService(fetcher *feed.Fetcher, streamer llm.Streamer) GeneratorService {
	return &generatorService{
		fetcher:  fetcher,
		streamer: streamer,
	}
}

func (s *generatorService) Prepare(ctx context.Context, req *model.ReportRequest) (*PreparedReport, error) {
	periodID := req.Period()
	if !model.ValidPeriodID(periodID) {
		return nil, fmt.Errorf("%w: periodId", constant.ErrInvalidParams)
	}
	language := model.NormalizeLanguage(req.Language)

	data, err := s.fetcher.FetchPeriod(ctx, periodID)
	if err != nil {
		logger.Error("获取周期数据失败", logger.F("periodId", periodID), logger.F("err", err))
		return nil, fmt.Errorf("fetch period data: %w", err)
	}

	dataContext := llm.Condense(data, language)
	if strings.TrimSpace(dataContext) == "" {
		return nil, constant.ErrNoPeriodData
	}

	return &PreparedReport{
		PeriodID: periodID,
		Language: language,
		Prompt:   llm.BuildPrompt(periodID, language, dataContext),
	}, nil
}

func (s *generatorService) Stream(ctx context.Context, prepared *PreparedReport, onDelta func(string) error) error {
	if s.streamer == nil {
		return constant.ErrLLMNotConfigured
	}
	if err := s.streamer.Stream(ctx, prepared.Prompt, onDelta); err != nil {
		logger.Error("生成报告失败", logger.F("periodId", prepared.PeriodID), logger.F("err", err))
		return err
	}
	return nil
}

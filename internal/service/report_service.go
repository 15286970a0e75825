package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yockii/ai_report/internal/backend"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/export"
	"github.com/yockii/ai_report/internal/generation"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/docgen"
	"github.com/yockii/ai_report/pkg/logger"
)

type reportService struct {
	opener    backend.Opener
	exporter  *export.Controller
	previewer *docgen.Previewer
	timeout   time.Duration

	mu       sync.RWMutex
	sessions map[string]*generation.Session
}

// NewReportService 创建会话服务，timeout 为单次生成的硬性时限
func NewReportService(opener backend.Opener, exporter *export.Controller, timeout time.Duration) ReportService {
	return &reportService{
		opener:    opener,
		exporter:  exporter,
		previewer: docgen.NewPreviewer(),
		timeout:   timeout,
		sessions:  make(map[string]*generation.Session),
	}
}

func (s *reportService) Create(_ context.Context, req *model.ReportRequest) (*generation.Session, error) {
	periodID := req.Period()
	if !model.ValidPeriodID(periodID) {
		return nil, fmt.Errorf("%w: periodId", constant.ErrInvalidParams)
	}
	language := model.NormalizeLanguage(req.Language)

	// 会话的生命周期独立于创建它的请求
	session := generation.NewSession(context.Background(), uuid.New().String(), periodID, language, s.opener, generation.Options{
		Timeout: s.timeout,
	})

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	if _, err := session.Generate(); err != nil {
		s.remove(session.ID())
		return nil, err
	}
	return session, nil
}

func (s *reportService) Get(id string) (*generation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, constant.ErrRecordNotFound
	}
	return session, nil
}

func (s *reportService) Regenerate(id string) (*generation.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err = session.Regenerate(); err != nil {
		return nil, fmt.Errorf("%w: %w", constant.ErrRecordNotFound, err)
	}
	return session, nil
}

func (s *reportService) Close(id string) error {
	session := s.remove(id)
	if session == nil {
		return constant.ErrRecordNotFound
	}
	session.Close()
	return nil
}

func (s *reportService) remove(id string) *generation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil
	}
	delete(s.sessions, id)
	return session
}

func (s *reportService) List() []model.SessionSnapshot {
	s.mu.RLock()
	list := make([]model.SessionSnapshot, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session.Snapshot(false))
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *reportService) Export(id string, format export.Format) (*export.Artifact, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportSession(session, format)
}

func (s *reportService) Preview(id string) (string, error) {
	session, err := s.Get(id)
	if err != nil {
		return "", err
	}
	html, err := s.previewer.RenderString(session.Content())
	if err != nil {
		logger.Error("渲染预览失败", logger.F("session", id), logger.F("err", err))
		return "", fmt.Errorf("%w: %w", constant.ErrInternalError, err)
	}
	return html, nil
}

// reap 关闭空闲会话
func (s *reportService) reap(idle time.Duration) int {
	s.mu.Lock()
	var expired []*generation.Session
	for id, session := range s.sessions {
		if session.Idle(idle) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		logger.Info("关闭空闲会话", logger.F("session", session.ID()), logger.F("periodId", session.PeriodID()))
		session.Close()
	}
	return len(expired)
}

func (s *reportService) StartReaper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reap(idle)
			}
		}
	}()
}

func (s *reportService) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*generation.Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

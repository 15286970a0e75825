package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yockii/ai_report/internal/backend"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/logger"
	"github.com/yockii/ai_report/pkg/util"
)

// DefaultTimeout 单次生成的硬性时限
const DefaultTimeout = 120 * time.Second

var (
	// ErrGenerationFailed 对用户展示的通用错误，传输失败和超时都归为此类
	ErrGenerationFailed = errors.New("report generation failed, please regenerate")
	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("generation session closed")

	// errAborted 主动中止的取消原因，不视为错误
	errAborted = errors.New("generation aborted")
)

// EventType 会话事件类型
type EventType string

const (
	EventChunk  EventType = "chunk"
	EventStatus EventType = "status"
)

// Event 推送给监听者的会话事件，Offset 为数据块在内容中的起始字节位置
type Event struct {
	Type   EventType    `json:"type"`
	RunID  uint64       `json:"runId,string"`
	Offset int          `json:"offset"`
	Chunk  string       `json:"chunk,omitempty"`
	Status model.Status `json:"status,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Listener 在生成协程中同步调用，不能在回调里调用 Generate/Regenerate/Close
type Listener func(Event)

type subscription struct {
	key      int
	listener Listener
}

// Options 会话选项
type Options struct {
	Timeout time.Duration
}

// Session 一次报告视图对应的生成会话
//
// 同一时刻最多只有一个进行中的请求。开始新的生成或关闭会话前，
// 先中止并等待上一次生成结束，取消句柄只归当前这一次生成所有。
type Session struct {
	id       string
	periodID string
	language string
	opener   backend.Opener
	timeout  time.Duration
	parent   context.Context

	// lifecycle 串行化 Generate/Close
	lifecycle sync.Mutex

	mu           sync.Mutex
	status       model.Status
	content      strings.Builder
	runID        uint64
	cancel       context.CancelCauseFunc
	done         chan struct{}
	err          error
	listeners    []subscription
	nextListener int
	closed       bool
	lastActive   time.Time
}

// NewSession 创建生成会话，初始状态为 idle
func NewSession(parent context.Context, id, periodID, language string, opener backend.Opener, opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Session{
		id:         id,
		periodID:   periodID,
		language:   language,
		opener:     opener,
		timeout:    opts.Timeout,
		parent:     parent,
		status:     model.StatusIdle,
		lastActive: time.Now(),
	}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) PeriodID() string { return s.periodID }
func (s *Session) Language() string { return s.language }

// Generate 开始一次新的生成，清空已有内容，返回本次生成的运行ID
//
// 若已有生成在进行，先静默中止它。
func (s *Session) Generate() (uint64, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.abort()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	ctx, cancel := context.WithCancelCause(s.parent)
	runID := util.NewID()
	done := make(chan struct{})

	s.content.Reset()
	s.err = nil
	s.status = model.StatusStreaming
	s.runID = runID
	s.cancel = cancel
	s.done = done
	s.lastActive = time.Now()
	listeners := s.listenerList()
	s.mu.Unlock()

	logger.Info("开始生成报告",
		logger.F("session", s.id),
		logger.F("runId", runID),
		logger.F("periodId", s.periodID),
		logger.F("language", s.language),
	)
	notify(listeners, Event{Type: EventStatus, RunID: runID, Status: model.StatusStreaming})

	go s.run(ctx, cancel, runID, done)
	return runID, nil
}

// Regenerate 中止当前生成并重新开始
func (s *Session) Regenerate() (uint64, error) {
	return s.Generate()
}

// Close 中止进行中的生成并丢弃内容
//
// 返回后不会再有任何监听者被调用。
func (s *Session) Close() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.abort()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.status = model.StatusIdle
	s.content.Reset()
	s.err = nil
	s.listeners = nil
	logger.Info("关闭生成会话", logger.F("session", s.id), logger.F("runId", s.runID))
}

// abort 取消当前生成并等待其协程退出，调用方需持有 lifecycle
func (s *Session) abort() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	if cancel != nil {
		cancel(errAborted)
	}
	<-done
}

func (s *Session) run(ctx context.Context, cancelRun context.CancelCauseFunc, runID uint64, done chan struct{}) {
	defer close(done)
	defer cancelRun(nil)

	runCtx, cancel := context.WithTimeoutCause(ctx, s.timeout, constant.ErrGenerationTimeout)
	defer cancel()

	err := s.stream(runCtx, runID)
	s.finish(runCtx, runID, err)
}

func (s *Session) stream(ctx context.Context, runID uint64) error {
	body, err := s.opener.OpenReport(ctx, s.periodID, s.language)
	if err != nil {
		return err
	}
	defer body.Close()

	return Consume(ctx, body, func(chunk string) {
		s.append(ctx, runID, chunk)
	})
}

// append 追加一块内容并通知监听者，已被取代或已取消的生成直接丢弃
func (s *Session) append(ctx context.Context, runID uint64, chunk string) {
	s.mu.Lock()
	if runID != s.runID || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	offset := s.content.Len()
	s.content.WriteString(chunk)
	listeners := s.listenerList()
	s.mu.Unlock()

	notify(listeners, Event{Type: EventChunk, RunID: runID, Offset: offset, Chunk: chunk})
}

func (s *Session) finish(ctx context.Context, runID uint64, err error) {
	cause := context.Cause(ctx)

	s.mu.Lock()
	if runID != s.runID || errors.Is(cause, errAborted) {
		s.mu.Unlock()
		return
	}

	switch {
	case errors.Is(cause, constant.ErrGenerationTimeout):
		s.status = model.StatusError
		s.err = fmt.Errorf("%w: %w", ErrGenerationFailed, constant.ErrGenerationTimeout)
		logger.Warn("生成超时，已中止请求", logger.F("session", s.id), logger.F("runId", runID), logger.F("timeout", s.timeout.String()))
	case err != nil:
		s.status = model.StatusError
		s.err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		logger.Error("生成报告失败", logger.F("session", s.id), logger.F("runId", runID), logger.F("err", err))
	default:
		s.status = model.StatusDone
		logger.Info("报告生成完成", logger.F("session", s.id), logger.F("runId", runID), logger.F("length", s.content.Len()))
	}
	event := Event{Type: EventStatus, RunID: runID, Status: s.status}
	if s.err != nil {
		event.Error = ErrGenerationFailed.Error()
	}
	listeners := s.listenerList()
	s.mu.Unlock()

	notify(listeners, event)
}

// Wait 阻塞到当前生成离开 streaming 状态
func (s *Session) Wait(ctx context.Context) (model.Status, error) {
	for {
		s.mu.Lock()
		status, done := s.status, s.done
		s.mu.Unlock()

		if status != model.StatusStreaming || done == nil {
			return status, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return s.Status(), ctx.Err()
		}
	}
}

// Subscribe 注册监听者，返回取消注册函数
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.closed {
		return func() {}
	}
	key := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, subscription{key: key, listener: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.key == key {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				break
			}
		}
		s.lastActive = time.Now()
	}
}

// listenerList 按注册顺序复制当前的监听者，调用方需持有 mu
func (s *Session) listenerList() []Listener {
	list := make([]Listener, 0, len(s.listeners))
	for _, sub := range s.listeners {
		list = append(list, sub.listener)
	}
	return list
}

func notify(listeners []Listener, event Event) {
	for _, l := range listeners {
		l(event)
	}
}

// Status 当前状态
func (s *Session) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Content 当前累积的markdown
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.String()
}

// Err 最近一次生成的错误，包装了 ErrGenerationFailed
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// RunID 当前生成的运行ID
func (s *Session) RunID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Closed 会话是否已关闭
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Idle 距最后一次访问超过 d 且没有监听者
func (s *Session) Idle(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners) == 0 && time.Since(s.lastActive) > d
}

// Finished 返回已完成生成的内容，只有 done 状态可用
func (s *Session) Finished() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != model.StatusDone {
		return "", fmt.Errorf("%w: status %s", constant.ErrExportUnavailable, s.status)
	}
	return s.content.String(), nil
}

// Snapshot 会话快照，withContent 为 true 时包含当前内容
func (s *Session) Snapshot(withContent bool) model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	snap := model.SessionSnapshot{
		ID:            s.id,
		PeriodID:      s.periodID,
		Language:      s.language,
		Status:        s.status,
		RunID:         s.runID,
		ContentLength: s.content.Len(),
	}
	if withContent {
		snap.Content = s.content.String()
	}
	if s.err != nil {
		snap.Error = ErrGenerationFailed.Error()
	}
	return snap
}

package generation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/ai_report/internal/backend"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/internal/model"
)

// pipeOpener 每次打开返回一个管道，测试通过写端推送内容
type pipeOpener struct {
	opened chan *io.PipeWriter
}

func newPipeOpener() *pipeOpener {
	return &pipeOpener{opened: make(chan *io.PipeWriter, 8)}
}

func (o *pipeOpener) OpenReport(ctx context.Context, periodID, language string) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	go func() {
		<-ctx.Done()
		pw.CloseWithError(context.Cause(ctx))
	}()
	o.opened <- pw
	return pr, nil
}

func (o *pipeOpener) next(t *testing.T) *io.PipeWriter {
	t.Helper()
	select {
	case pw := <-o.opened:
		return pw
	case <-time.After(2 * time.Second):
		t.Fatal("backend was not opened")
		return nil
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSessionStreamsToDone(t *testing.T) {
	opener := newPipeOpener()
	s := NewSession(context.Background(), "s1", "2025-kw04", "en", opener, Options{})
	rec := &recorder{}
	s.Subscribe(rec.listen)

	assert.Equal(t, model.StatusIdle, s.Status())
	runID, err := s.Generate()
	require.NoError(t, err)
	assert.Equal(t, model.StatusStreaming, s.Status())

	pw := opener.next(t)
	_, _ = pw.Write([]byte("# Title\n"))
	require.Eventually(t, func() bool { return s.Content() == "# Title\n" }, time.Second, 5*time.Millisecond)
	_, _ = pw.Write([]byte("\nHello **world**."))
	require.NoError(t, pw.Close())

	status, err := s.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, status)
	assert.Equal(t, "# Title\n\nHello **world**.", s.Content())
	assert.NoError(t, s.Err())

	content, err := s.Finished()
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nHello **world**.", content)

	events := rec.list()
	require.Len(t, events, 4)
	assert.Equal(t, Event{Type: EventStatus, RunID: runID, Status: model.StatusStreaming}, events[0])
	assert.Equal(t, "# Title\n", events[1].Chunk)
	assert.Equal(t, "\nHello **world**.", events[2].Chunk)
	assert.Equal(t, len("# Title\n"), events[2].Offset)
	assert.Equal(t, model.StatusDone, events[3].Status)

	snap := s.Snapshot(true)
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, runID, snap.RunID)
	assert.Equal(t, len(content), snap.ContentLength)
	assert.Empty(t, snap.Error)
}

func TestSessionBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSession(context.Background(), "s2", "2025-kw04", "en", backend.NewClient(srv.URL), Options{})
	_, err := s.Generate()
	require.NoError(t, err)

	status, err := s.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, status)
	assert.ErrorIs(t, s.Err(), ErrGenerationFailed)
	assert.ErrorIs(t, s.Err(), constant.ErrBackendStatus)
	assert.Equal(t, ErrGenerationFailed.Error(), s.Snapshot(false).Error)
	assert.Empty(t, s.Content())

	_, err = s.Finished()
	assert.ErrorIs(t, err, constant.ErrExportUnavailable)
}

func TestSessionTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := NewSession(context.Background(), "s3", "2025-kw04", "en", backend.NewClient(srv.URL), Options{Timeout: 200 * time.Millisecond})
	_, err := s.Generate()
	require.NoError(t, err)

	status, err := s.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, status)
	assert.ErrorIs(t, s.Err(), ErrGenerationFailed)
	assert.ErrorIs(t, s.Err(), constant.ErrGenerationTimeout)
	assert.Equal(t, "partial", s.Content())
}

func TestSessionCloseIsSilent(t *testing.T) {
	opener := newPipeOpener()
	s := NewSession(context.Background(), "s4", "2025-kw04", "en", opener, Options{})
	var calls atomic.Int32
	s.Subscribe(func(Event) { calls.Add(1) })

	_, err := s.Generate()
	require.NoError(t, err)
	pw := opener.next(t)
	_, _ = pw.Write([]byte("chunk"))
	require.Eventually(t, func() bool { return s.Content() == "chunk" }, time.Second, 5*time.Millisecond)

	s.Close()
	after := calls.Load()

	assert.Equal(t, model.StatusIdle, s.Status())
	assert.Empty(t, s.Content())
	assert.NoError(t, s.Err())
	assert.True(t, s.Closed())

	_, _ = pw.Write([]byte("late"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
	assert.Empty(t, s.Content())

	_, err = s.Generate()
	assert.ErrorIs(t, err, ErrSessionClosed)

	// 重复关闭无副作用
	s.Close()
}

func TestSessionRegenerateDiscardsPreviousRun(t *testing.T) {
	opener := newPipeOpener()
	s := NewSession(context.Background(), "s5", "2025-kw04", "en", opener, Options{})
	rec := &recorder{}
	s.Subscribe(rec.listen)

	firstRun, err := s.Generate()
	require.NoError(t, err)
	first := opener.next(t)
	_, _ = first.Write([]byte("old"))
	require.Eventually(t, func() bool { return s.Content() == "old" }, time.Second, 5*time.Millisecond)

	secondRun, err := s.Regenerate()
	require.NoError(t, err)
	assert.NotEqual(t, firstRun, secondRun)
	assert.Equal(t, model.StatusStreaming, s.Status())
	assert.Empty(t, s.Content())

	_, err = first.Write([]byte("stale"))
	assert.Error(t, err)

	second := opener.next(t)
	_, _ = second.Write([]byte("new"))
	require.NoError(t, second.Close())

	status, err := s.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, status)
	assert.Equal(t, "new", s.Content())

	for _, e := range rec.list() {
		if e.RunID == firstRun {
			assert.NotEqual(t, model.StatusError, e.Status, "aborted run must not surface an error")
			assert.NotEqual(t, model.StatusDone, e.Status)
		}
	}
}

func TestSessionWaitIdle(t *testing.T) {
	s := NewSession(context.Background(), "s6", "2025-kw04", "en", newPipeOpener(), Options{})
	status, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, status)

	_, err = s.Finished()
	assert.ErrorIs(t, err, constant.ErrExportUnavailable)
}

func TestSessionUnsubscribe(t *testing.T) {
	opener := newPipeOpener()
	s := NewSession(context.Background(), "s7", "2025-kw04", "en", opener, Options{})
	var calls atomic.Int32
	unsubscribe := s.Subscribe(func(Event) { calls.Add(1) })
	assert.False(t, s.Idle(0))
	unsubscribe()

	_, err := s.Generate()
	require.NoError(t, err)
	pw := opener.next(t)
	require.NoError(t, pw.Close())
	_, err = s.Wait(waitCtx(t))
	require.NoError(t, err)

	assert.Equal(t, int32(0), calls.Load())
	s.Close()
}

func TestSessionListenersKeepOrderAfterUnsubscribe(t *testing.T) {
	opener := newPipeOpener()
	s := NewSession(context.Background(), "s8", "2025-kw04", "en", opener, Options{})

	var mu sync.Mutex
	var order []string
	listen := func(name string) Listener {
		return func(e Event) {
			if e.Type != EventStatus || e.Status != model.StatusStreaming {
				return
			}
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	s.Subscribe(listen("a"))
	unsubscribeB := s.Subscribe(listen("b"))
	for i := 0; i < 1000; i++ {
		s.Subscribe(func(Event) {})()
	}
	s.Subscribe(listen("c"))
	unsubscribeB()
	assert.Len(t, s.listeners, 2)

	_, err := s.Generate()
	require.NoError(t, err)
	require.NoError(t, opener.next(t).Close())
	_, err = s.Wait(waitCtx(t))
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"a", "c"}, order)
	mu.Unlock()
	s.Close()
}

func TestConsumeDecodesAcrossChunkBoundaries(t *testing.T) {
	text := "Grüße 世界 **fett**"
	var chunks []string
	err := Consume(context.Background(), iotest.OneByteReader(strings.NewReader(text)), func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q", c)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestConsumeReplacesInvalidBytes(t *testing.T) {
	var sb strings.Builder
	err := Consume(context.Background(), strings.NewReader("a\xffb"), func(chunk string) {
		sb.WriteString(chunk)
	})
	require.NoError(t, err)
	assert.Equal(t, "a�b", sb.String())
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errAborted)

	called := false
	err := Consume(ctx, strings.NewReader("ignored"), func(string) { called = true })
	assert.ErrorIs(t, err, errAborted)
	assert.False(t, called)
}

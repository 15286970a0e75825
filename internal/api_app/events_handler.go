package appapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"github.com/yockii/ai_report/internal/generation"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/logger"
)

const (
	eventBuffer       = 256
	heartbeatInterval = 15 * time.Second
)

// sseWriter 以 Server-Sent Events 格式写出
type sseWriter struct {
	w *bufio.Writer
}

func (s sseWriter) send(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s sseWriter) ping() error {
	if _, err := s.w.WriteString(": ping\n\n"); err != nil {
		return err
	}
	return s.w.Flush()
}

// Events 推送会话事件
//
// 先发送一次 snapshot 事件携带当前全部内容，之后每收到一块推送一个 chunk 事件，
// 状态变化推送 status 事件，生成结束后关闭连接。监听队列溢出时重新发送 snapshot。
func (h *SessionHandler) Events(c *fiber.Ctx) error {
	session, err := h.reportService.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	events := make(chan generation.Event, eventBuffer)
	var overflow atomic.Bool
	unsubscribe := session.Subscribe(func(e generation.Event) {
		select {
		case events <- e:
		default:
			overflow.Store(true)
		}
	})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		sse := sseWriter{w: w}

		// resync 发送完整快照，返回是否应结束推送
		var snap model.SessionSnapshot
		resync := func() (bool, error) {
			for len(events) > 0 {
				<-events
			}
			overflow.Store(false)
			snap = session.Snapshot(true)
			if err := sse.send("snapshot", snap); err != nil {
				return true, err
			}
			return snap.Status != model.StatusStreaming, nil
		}

		end, err := resync()
		if err != nil || end {
			return
		}

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case e := <-events:
				if overflow.Load() {
					if end, err = resync(); err != nil || end {
						return
					}
					continue
				}
				// 快照已包含的内容不再重复推送
				if e.Type == generation.EventChunk && e.RunID == snap.RunID && e.Offset < snap.ContentLength {
					continue
				}
				if err = sse.send(string(e.Type), e); err != nil {
					logger.Debug("事件流客户端已断开", logger.F("session", session.ID()))
					return
				}
				if e.Type == generation.EventStatus && e.Status.Terminal() {
					return
				}
			case <-ticker.C:
				if session.Closed() {
					return
				}
				if overflow.Load() {
					if end, err = resync(); err != nil || end {
						return
					}
					continue
				}
				if err = sse.ping(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

package model

// Status 生成会话状态
type Status string

const (
	StatusIdle      Status = "idle"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// Terminal 是否为一次生成的结束状态
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// SessionSnapshot 生成会话在某一时刻的只读视图
type SessionSnapshot struct {
	ID            string `json:"id"`
	PeriodID      string `json:"periodId"`
	Language      string `json:"language"`
	Status        Status `json:"status"`
	RunID         uint64 `json:"runId,string"`
	ContentLength int    `json:"contentLength"`
	Content       string `json:"content,omitempty"`
	Error         string `json:"error,omitempty"`
}

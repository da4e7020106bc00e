package node

import (
	"context"
	"time"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
)

// ResponseFormatter 终结阶段：把本轮对话追加进历史并裁剪窗口
type ResponseFormatter struct {
	window int
}

func NewResponseFormatter(window int) *ResponseFormatter {
	if window <= 0 {
		window = 10
	}
	return &ResponseFormatter{window: window}
}

func (f *ResponseFormatter) Run(_ context.Context, st *model.TurnState) error {
	now := time.Now().UTC()
	st.History = append(st.History,
		model.HistoryEntry{Role: entity.RoleUser, Content: st.UserMessage, Timestamp: now},
		model.HistoryEntry{Role: entity.RoleAssistant, Content: st.Reply, Timestamp: now},
	)
	if len(st.History) > f.window {
		st.History = st.History[len(st.History)-f.window:]
	}
	return nil
}

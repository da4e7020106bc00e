package node

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
)

func TestResponseFormatter_AppendsTurn(t *testing.T) {
	f := NewResponseFormatter(10)

	st := model.NewTurnState("u1", "give me a question", nil, entity.PhaseWaitingForPreference, nil)
	st.Reply = "Here's your question"

	require.NoError(t, f.Run(context.Background(), st))
	require.Len(t, st.History, 2)
	require.Equal(t, entity.RoleUser, st.History[0].Role)
	require.Equal(t, "give me a question", st.History[0].Content)
	require.Equal(t, entity.RoleAssistant, st.History[1].Role)
	require.Equal(t, "Here's your question", st.History[1].Content)
}

func TestResponseFormatter_WindowCap(t *testing.T) {
	f := NewResponseFormatter(10)

	history := make([]model.HistoryEntry, 0, 12)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		role := entity.RoleUser
		if i%2 == 1 {
			role = entity.RoleAssistant
		}
		history = append(history, model.HistoryEntry{
			Role:      role,
			Content:   "old message",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	st := model.NewTurnState("u1", "newest user message", nil, entity.PhaseDiscussingFeedback, history)
	st.Reply = "newest reply"

	require.NoError(t, f.Run(context.Background(), st))
	require.Len(t, st.History, 10, "history must be capped at the window size")

	last := st.History[len(st.History)-1]
	require.Equal(t, entity.RoleAssistant, last.Role)
	require.Equal(t, "newest reply", last.Content)
	require.Equal(t, "newest user message", st.History[len(st.History)-2].Content)

	for i := 1; i < len(st.History); i++ {
		require.False(t, st.History[i].Timestamp.Before(st.History[i-1].Timestamp), "history must stay in ascending order")
	}
}

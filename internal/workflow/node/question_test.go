package node

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/prompt"
)

func TestQuestionGenerator_Task1Request(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, p string) (string, error) {
			if strings.Contains(p, "extract") || strings.Contains(p, "task_type") {
				return `{"task_type": "task1", "topic": "education", "specific_requirements": ""}`, nil
			}
			return "The chart below shows university enrolment from 2000 to 2020.", nil
		},
	}
	g := NewQuestionGenerator(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "give me a task 1 question about education", nil, entity.PhaseWaitingForPreference, nil)
	require.NoError(t, g.Run(context.Background(), st))

	require.Equal(t, entity.TaskType1, st.TaskType)
	require.Contains(t, st.QuestionText, "university enrolment")
	require.Contains(t, st.Reply, "Task 1")
	require.Contains(t, st.Reply, "150 words")
	require.False(t, st.ChargeCredit)
	require.Equal(t, entity.PhaseWaitingForEssay, st.NextPhase)
	require.Equal(t, 2, gw.completeCalls)
}

func TestQuestionGenerator_ParseFailureDefaultsToTask2(t *testing.T) {
	calls := 0
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			calls++
			if calls == 1 {
				return "I think they want a question", nil
			}
			return "Some people believe technology improves education. Discuss.", nil
		},
	}
	g := NewQuestionGenerator(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "question please", nil, entity.PhaseWaitingForPreference, nil)
	require.NoError(t, g.Run(context.Background(), st))

	require.Equal(t, entity.TaskType2, st.TaskType)
	require.Contains(t, st.Reply, "250 words")
	require.Equal(t, entity.PhaseWaitingForEssay, st.NextPhase)
}

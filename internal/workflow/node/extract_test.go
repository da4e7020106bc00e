package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/prompt"
)

func TestImageExtractor_NoImageIsNoop(t *testing.T) {
	gw := &mockGateway{}
	e := NewImageExtractor(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "hello", nil, entity.PhaseGreeting, nil)
	require.NoError(t, e.Run(context.Background(), st))
	require.Zero(t, gw.withImageCalls)
}

func TestImageExtractor_StructuredResult(t *testing.T) {
	gw := &mockGateway{
		withImageFn: func(_ context.Context, _ string, _ []byte) (string, error) {
			return `{
				"extracted_text": "full page",
				"question_found": true,
				"question_text": "Describe the chart below.",
				"essay_found": true,
				"essay_text": "The chart shows...",
				"task_type": "task1"
			}`, nil
		},
	}
	e := NewImageExtractor(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "", []byte{0xFF, 0xD8}, entity.PhaseWaitingForEssay, nil)
	st.HasImage = true
	require.NoError(t, e.Run(context.Background(), st))

	require.Equal(t, "full page", st.ExtractedText)
	require.Equal(t, "Describe the chart below.", st.QuestionText)
	require.Equal(t, "The chart shows...", st.EssayText)
	require.Equal(t, entity.TaskType1, st.TaskType)
}

func TestImageExtractor_UnknownTaskTypeIgnored(t *testing.T) {
	gw := &mockGateway{
		withImageFn: func(_ context.Context, _ string, _ []byte) (string, error) {
			return `{"extracted_text": "text", "task_type": "unknown"}`, nil
		},
	}
	e := NewImageExtractor(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "", []byte{1}, entity.PhaseWaitingForEssay, nil)
	st.HasImage = true
	require.NoError(t, e.Run(context.Background(), st))
	require.Equal(t, entity.TaskType2, st.TaskType, "default task type must survive an unknown label")
}

func TestImageExtractor_NonJSONFallsBackToRawText(t *testing.T) {
	gw := &mockGateway{
		withImageFn: func(_ context.Context, _ string, _ []byte) (string, error) {
			return "  plain transcription of the page  ", nil
		},
	}
	e := NewImageExtractor(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "", []byte{1}, entity.PhaseWaitingForEssay, nil)
	st.HasImage = true
	require.NoError(t, e.Run(context.Background(), st))
	require.Equal(t, "plain transcription of the page", st.ExtractedText)
}

func TestImageExtractor_CallErrorIsRecoverable(t *testing.T) {
	gw := &mockGateway{
		withImageFn: func(_ context.Context, _ string, _ []byte) (string, error) {
			return "", errors.New("vision provider down")
		},
	}
	e := NewImageExtractor(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "typed text still here", []byte{1}, entity.PhaseWaitingForEssay, nil)
	st.HasImage = true

	require.NoError(t, e.Run(context.Background(), st), "extraction failure must not abort the turn")
	require.Empty(t, st.ExtractedText)
	require.NotEmpty(t, st.ValidationErrors)
	require.Contains(t, st.ValidationErrors[0], "Image processing failed")
}

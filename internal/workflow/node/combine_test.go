package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/prompt"
)

func TestContentCombiner_TypedOnly(t *testing.T) {
	gw := &mockGateway{}
	c := NewContentCombiner(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "my typed essay text", nil, entity.PhaseWaitingForEssay, nil)
	require.NoError(t, c.Run(context.Background(), st))

	require.Equal(t, "my typed essay text", st.CombinedText)
	require.Equal(t, "my typed essay text", st.EssayText)
	require.Zero(t, gw.completeCalls, "single source must not call the model")
}

func TestContentCombiner_ExtractedOnly(t *testing.T) {
	gw := &mockGateway{}
	c := NewContentCombiner(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "  ", nil, entity.PhaseWaitingForEssay, nil)
	st.ExtractedText = "essay from the photo"
	require.NoError(t, c.Run(context.Background(), st))

	require.Equal(t, "essay from the photo", st.CombinedText)
	require.Zero(t, gw.completeCalls)
}

func TestContentCombiner_BothSourcesStructured(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return `{"combined_essay": "merged essay body", "question": "Some people think...", "task_type": "task1", "combination_strategy": "image question + typed essay"}`, nil
		},
	}
	c := NewContentCombiner(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "typed part", nil, entity.PhaseWaitingForEssay, nil)
	st.ExtractedText = "extracted part"
	require.NoError(t, c.Run(context.Background(), st))

	require.Equal(t, "merged essay body", st.CombinedText)
	require.Equal(t, "Some people think...", st.QuestionText)
	require.Equal(t, entity.TaskType1, st.TaskType)
	require.Equal(t, 1, gw.completeCalls)
}

func TestContentCombiner_ParseFailureConcatenates(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "sorry, I could not merge these", nil
		},
	}
	c := NewContentCombiner(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "typed part", nil, entity.PhaseWaitingForEssay, nil)
	st.ExtractedText = "extracted part"
	require.NoError(t, c.Run(context.Background(), st))

	require.Equal(t, "extracted part\n\ntyped part", st.CombinedText)
}

func TestContentCombiner_BothSourcesOverrideExtractedEssay(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return `{"combined_essay": "merged essay from both sources", "question": "", "task_type": "task2", "combination_strategy": "image essay + typed addition"}`, nil
		},
	}
	c := NewContentCombiner(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "typed continuation of the essay", nil, entity.PhaseWaitingForEssay, nil)
	st.ExtractedText = "essay body from the photo"
	st.EssayText = "essay body from the photo"
	require.NoError(t, c.Run(context.Background(), st))

	require.Equal(t, "merged essay from both sources", st.EssayText,
		"the reconciled essay must replace the image-only fragment")
	require.Equal(t, CountWords("merged essay from both sources"), st.WordCount)
}

func TestContentCombiner_PreservesUpstreamEssayText(t *testing.T) {
	gw := &mockGateway{}
	c := NewContentCombiner(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "", nil, entity.PhaseWaitingForEssay, nil)
	st.ExtractedText = "full page text"
	st.EssayText = "essay isolated by the vision model"
	require.NoError(t, c.Run(context.Background(), st))

	require.Equal(t, "essay isolated by the vision model", st.EssayText)
	require.Equal(t, CountWords(st.EssayText), st.WordCount)
}

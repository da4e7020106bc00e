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

func TestIntentClassifier_ImageShortCircuit(t *testing.T) {
	gw := &mockGateway{}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "here is my essay", []byte{0xFF, 0xD8}, entity.PhaseWaitingForEssay, nil)
	st.HasImage = true

	require.NoError(t, c.Run(context.Background(), st))
	require.Equal(t, model.IntentHasImage, st.Intent)
	require.Zero(t, gw.completeCalls, "image short-circuit must not call the model")
}

func TestIntentClassifier_GreetingShortCircuit(t *testing.T) {
	gw := &mockGateway{}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "hi there", nil, entity.PhaseGreeting, nil)
	st.WordCount = 2

	require.NoError(t, c.Run(context.Background(), st))
	require.Equal(t, model.IntentGreeting, st.Intent)
	require.Zero(t, gw.completeCalls)
}

func TestIntentClassifier_GreetingPhaseLongMessageNotShortCircuited(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "unclear", nil
		},
	}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	msg := strings.Repeat("word ", 30)
	st := model.NewTurnState("u1", msg, nil, entity.PhaseGreeting, nil)
	st.WordCount = 30

	require.NoError(t, c.Run(context.Background(), st))
	require.Equal(t, model.IntentUnclear, st.Intent)
	require.Equal(t, 1, gw.completeCalls)
}

func TestIntentClassifier_LongMessageIsEssay(t *testing.T) {
	gw := &mockGateway{}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", strings.Repeat("word ", 151), nil, entity.PhaseWaitingForEssay, nil)
	st.WordCount = 151

	require.NoError(t, c.Run(context.Background(), st))
	require.Equal(t, model.IntentSubmittedEssay, st.Intent)
	require.Zero(t, gw.completeCalls)
}

func TestIntentClassifier_ModelLabelNormalized(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "  Wants_Question \n", nil
		},
	}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "give me a question please", nil, entity.PhaseWaitingForPreference, nil)
	st.WordCount = 5

	require.NoError(t, c.Run(context.Background(), st))
	require.Equal(t, model.IntentWantsQuestion, st.Intent)
}

func TestIntentClassifier_UnknownLabelCoercedToUnclear(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "i think the user wants feedback", nil
		},
	}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "so about that thing", nil, entity.PhaseDiscussingFeedback, nil)
	st.WordCount = 4

	require.NoError(t, c.Run(context.Background(), st))
	require.Equal(t, model.IntentUnclear, st.Intent)
}

func TestIntentClassifier_PromptCarriesMessageAndPhase(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "followup", nil
		},
	}
	c := NewIntentClassifier(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "why is my grammar score low", nil, entity.PhaseDiscussingFeedback, nil)
	st.WordCount = 6

	require.NoError(t, c.Run(context.Background(), st))
	require.Contains(t, gw.lastPrompt, "why is my grammar score low")
	require.Contains(t, gw.lastPrompt, string(entity.PhaseDiscussingFeedback))
}

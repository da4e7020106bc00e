package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/prompt"
)

func TestFollowupHandler_UsesStoredFeedback(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "Your grammar score reflects errors in complex sentences.", nil
		},
	}
	h := NewFollowupHandler(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "why is my grammar score low?", nil, entity.PhaseDiscussingFeedback, nil)
	st.Feedback = &model.EvaluationFeedback{
		GrammaticalAccuracy: &model.CriterionFeedback{Score: 6.0, Feedback: "Errors in complex sentences."},
	}

	require.NoError(t, h.Run(context.Background(), st))
	require.Contains(t, gw.lastPrompt, "complex sentences", "prompt must carry the stored feedback")
	require.Contains(t, gw.lastPrompt, "why is my grammar score low?")
	require.Equal(t, "Your grammar score reflects errors in complex sentences.", st.Reply)
	require.False(t, st.ChargeCredit)
	require.Equal(t, entity.PhaseDiscussingFeedback, st.NextPhase)
}

func TestFollowupHandler_NoPriorEvaluation(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "I don't have an evaluation on record yet.", nil
		},
	}
	h := NewFollowupHandler(gw, prompt.NewRegistry())

	st := model.NewTurnState("u1", "what did I score?", nil, entity.PhaseDiscussingFeedback, nil)
	require.NoError(t, h.Run(context.Background(), st))
	require.Contains(t, gw.lastPrompt, "no previous evaluation")
}

package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/application/assessment"
	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
)

func TestNewChatResponse_EvaluationGatedOnCharge(t *testing.T) {
	scores := model.NewRubricScores(7, 6.5, 7, 6)

	charged := NewChatResponse(&assessment.ChatResult{
		Reply:        "well done",
		Intent:       model.IntentSubmittedEssay,
		Phase:        entity.PhaseDiscussingFeedback,
		ChargeCredit: true,
		Scores:       scores,
	})
	require.NotNil(t, charged.Evaluation)
	require.InDelta(t, 6.5, charged.Evaluation.Scores.Overall, 1e-9)

	uncharged := NewChatResponse(&assessment.ChatResult{
		Reply:        "best effort",
		Intent:       model.IntentSubmittedEssay,
		Phase:        entity.PhaseDiscussingFeedback,
		ChargeCredit: false,
		Scores:       scores,
	})
	require.Nil(t, uncharged.Evaluation, "uncharged turns must not expose an evaluation payload")
}

func TestNewChatResponse_NoScores(t *testing.T) {
	res := NewChatResponse(&assessment.ChatResult{
		Reply:        "hello",
		Intent:       model.IntentGreeting,
		Phase:        entity.PhaseWaitingForPreference,
		ChargeCredit: false,
	})
	require.Nil(t, res.Evaluation)
	require.Equal(t, "greeting", res.Intent)
}

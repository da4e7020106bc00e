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

func essayOfWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newEvalState(essay string, taskType entity.TaskType) *model.TurnState {
	st := model.NewTurnState("u1", essay, nil, entity.PhaseWaitingForEssay, nil)
	st.EssayText = essay
	st.TaskType = taskType
	return st
}

func TestValidationRules_Bounds(t *testing.T) {
	rules := DefaultValidationRules()

	tests := []struct {
		name     string
		words    int
		taskType entity.TaskType
		wantPass bool
	}{
		{"task2 at minimum", 250, entity.TaskType2, true},
		{"task2 below minimum", 249, entity.TaskType2, false},
		{"task1 at minimum", 150, entity.TaskType1, true},
		{"task1 below minimum", 149, entity.TaskType1, false},
		{"task1 between thresholds", 200, entity.TaskType1, true},
		{"at maximum", 400, entity.TaskType2, true},
		{"above maximum", 401, entity.TaskType2, false},
		{"empty essay", 0, entity.TaskType2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc, violations := rules.Validate(essayOfWords(tt.words), tt.taskType)
			require.Equal(t, tt.words, wc)
			if tt.wantPass {
				require.Empty(t, violations)
			} else {
				require.NotEmpty(t, violations)
			}
		})
	}
}

func TestEssayEvaluator_RejectsShortEssayWithoutModelCall(t *testing.T) {
	gw := &mockGateway{}
	ev := NewEssayEvaluator(gw, prompt.NewRegistry(), DefaultValidationRules(), true)

	st := newEvalState(essayOfWords(100), entity.TaskType2)
	require.NoError(t, ev.Run(context.Background(), st))

	require.False(t, st.IsValidEssay)
	require.False(t, st.ChargeCredit)
	require.Nil(t, st.Scores)
	require.Zero(t, gw.completeCalls, "rejected essays must not reach the model")
	require.Contains(t, st.Reply, "100 words")
	require.Contains(t, st.Reply, "minimum: 250")
	require.Equal(t, entity.PhaseWaitingForEssay, st.NextPhase)
}

func TestEssayEvaluator_StructuredScores(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return `{
				"task_achievement": {"score": 7.0, "feedback": "Addresses the task well."},
				"coherence_cohesion": {"score": 6.5, "feedback": "Mostly clear progression."},
				"lexical_resource": {"score": 7.0, "feedback": "Good range of vocabulary."},
				"grammatical_accuracy": {"score": 6.0, "feedback": "Some errors in complex sentences."},
				"strengths": ["clear position"],
				"areas_for_improvement": ["complex grammar"]
			}`, nil
		},
	}
	ev := NewEssayEvaluator(gw, prompt.NewRegistry(), DefaultValidationRules(), true)

	st := newEvalState(essayOfWords(260), entity.TaskType2)
	require.NoError(t, ev.Run(context.Background(), st))

	require.True(t, st.IsValidEssay)
	require.True(t, st.ChargeCredit)
	require.NotNil(t, st.Scores)
	// (7.0 + 6.5 + 7.0 + 6.0) / 4 = 6.625 -> 6.5
	require.InDelta(t, 6.5, st.Scores.Overall, 1e-9)
	require.NotNil(t, st.Feedback)
	require.Empty(t, st.Feedback.RawResponse)
	require.Equal(t, entity.PhaseDiscussingFeedback, st.NextPhase)
	require.Contains(t, st.Reply, "6.5")
}

func TestEssayEvaluator_FallbackRegexExtraction(t *testing.T) {
	raw := "Overall a decent attempt.\n" +
		"Task Achievement: 7.5 because the question is fully addressed.\n" +
		"Coherence and Cohesion: 6\n" +
		"Lexical resource score 6.5\n" +
		"The grammar needs work."
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return raw, nil
		},
	}
	ev := NewEssayEvaluator(gw, prompt.NewRegistry(), DefaultValidationRules(), true)

	st := newEvalState(essayOfWords(300), entity.TaskType2)
	require.NoError(t, ev.Run(context.Background(), st))

	require.NotNil(t, st.Scores)
	require.InDelta(t, 7.5, st.Scores.TaskAchievement, 1e-9)
	require.InDelta(t, 6.0, st.Scores.CoherenceCohesion, 1e-9)
	require.InDelta(t, 6.5, st.Scores.LexicalResource, 1e-9)
	// 文本中没有语法分，使用默认中间分
	require.InDelta(t, 6.0, st.Scores.GrammaticalAccuracy, 1e-9)
	// (7.5 + 6.0 + 6.5 + 6.0) / 4 = 6.5
	require.InDelta(t, 6.5, st.Scores.Overall, 1e-9)

	require.True(t, st.ChargeCredit)
	require.NotNil(t, st.Feedback)
	require.Equal(t, raw, st.Feedback.RawResponse)
	require.Contains(t, st.Reply, "decent attempt")
	require.Equal(t, entity.PhaseDiscussingFeedback, st.NextPhase)
}

func TestEssayEvaluator_FallbackChargeDisabled(t *testing.T) {
	gw := &mockGateway{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "no structure here at all", nil
		},
	}
	ev := NewEssayEvaluator(gw, prompt.NewRegistry(), DefaultValidationRules(), false)

	st := newEvalState(essayOfWords(300), entity.TaskType2)
	require.NoError(t, ev.Run(context.Background(), st))

	require.NotNil(t, st.Scores)
	require.False(t, st.ChargeCredit)
	// 四项全部默认 6.0
	require.InDelta(t, 6.0, st.Scores.Overall, 1e-9)
}

func TestRoundHalf(t *testing.T) {
	require.InDelta(t, 6.5, model.RoundHalf(6.625), 1e-9)
	require.InDelta(t, 6.5, model.RoundHalf(6.375), 1e-9)
	require.InDelta(t, 7.0, model.RoundHalf(6.875), 1e-9)
	require.InDelta(t, 6.0, model.RoundHalf(6.0), 1e-9)
}

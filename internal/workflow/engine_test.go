package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
)

type stubStage struct {
	name Stage
	fn   func(st *model.TurnState) error
}

func (s *stubStage) Run(_ context.Context, st *model.TurnState) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(st)
}

func recordingStages(order *[]Stage, overrides map[Stage]func(st *model.TurnState) error) map[Stage]StageFunc {
	stages := make(map[Stage]StageFunc)
	for _, name := range []Stage{
		StageAnalyzeInput, StageClassifyIntent, StageExtractImageContent,
		StageCombineContent, StageEvaluateEssay, StageHandleGreeting,
		StageGenerateQuestion, StageHandleFollowup, StageFormatResponse,
	} {
		name := name
		fn := overrides[name]
		stages[name] = &stubStage{name: name, fn: func(st *model.TurnState) error {
			*order = append(*order, name)
			if fn == nil {
				return nil
			}
			return fn(st)
		}}
	}
	return stages
}

func TestRouteByIntent(t *testing.T) {
	tests := []struct {
		name     string
		intent   model.Intent
		hasImage bool
		want     Stage
	}{
		{"image overrides intent", model.IntentSubmittedEssay, true, StageExtractImageContent},
		{"has_image signal", model.IntentHasImage, false, StageExtractImageContent},
		{"greeting", model.IntentGreeting, false, StageHandleGreeting},
		{"unclear falls back to greeting", model.IntentUnclear, false, StageHandleGreeting},
		{"wants question", model.IntentWantsQuestion, false, StageGenerateQuestion},
		{"submitted essay", model.IntentSubmittedEssay, false, StageCombineContent},
		{"followup", model.IntentFollowup, false, StageHandleFollowup},
		{"unknown label defaults to greeting", model.Intent("banana"), false, StageHandleGreeting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, RouteByIntent(tt.intent, tt.hasImage))
		})
	}
}

func TestEngine_EssayPathOrder(t *testing.T) {
	var order []Stage
	stages := recordingStages(&order, map[Stage]func(st *model.TurnState) error{
		StageClassifyIntent: func(st *model.TurnState) error {
			st.Intent = model.IntentSubmittedEssay
			return nil
		},
	})
	e := NewEngine(stages)

	st := model.NewTurnState("u1", "long essay text", nil, entity.PhaseWaitingForEssay, nil)
	require.NoError(t, e.Run(context.Background(), st))

	require.Equal(t, []Stage{
		StageAnalyzeInput,
		StageClassifyIntent,
		StageCombineContent,
		StageEvaluateEssay,
		StageFormatResponse,
	}, order)
}

func TestEngine_ImagePathOrder(t *testing.T) {
	var order []Stage
	stages := recordingStages(&order, map[Stage]func(st *model.TurnState) error{
		StageAnalyzeInput: func(st *model.TurnState) error {
			st.HasImage = true
			return nil
		},
		StageClassifyIntent: func(st *model.TurnState) error {
			st.Intent = model.IntentHasImage
			return nil
		},
	})
	e := NewEngine(stages)

	st := model.NewTurnState("u1", "", []byte{1}, entity.PhaseWaitingForEssay, nil)
	require.NoError(t, e.Run(context.Background(), st))

	require.Equal(t, []Stage{
		StageAnalyzeInput,
		StageClassifyIntent,
		StageExtractImageContent,
		StageCombineContent,
		StageEvaluateEssay,
		StageFormatResponse,
	}, order)
}

func TestEngine_GreetingPathOrder(t *testing.T) {
	var order []Stage
	stages := recordingStages(&order, map[Stage]func(st *model.TurnState) error{
		StageClassifyIntent: func(st *model.TurnState) error {
			st.Intent = model.IntentGreeting
			return nil
		},
	})
	e := NewEngine(stages)

	st := model.NewTurnState("u1", "hi", nil, entity.PhaseGreeting, nil)
	require.NoError(t, e.Run(context.Background(), st))

	require.Equal(t, []Stage{
		StageAnalyzeInput,
		StageClassifyIntent,
		StageHandleGreeting,
		StageFormatResponse,
	}, order)
}

func TestEngine_StageErrorAborts(t *testing.T) {
	var order []Stage
	stages := recordingStages(&order, map[Stage]func(st *model.TurnState) error{
		StageClassifyIntent: func(st *model.TurnState) error {
			return errors.New("model unavailable")
		},
	})
	e := NewEngine(stages)

	st := model.NewTurnState("u1", "hello", nil, entity.PhaseGreeting, nil)
	err := e.Run(context.Background(), st)
	require.Error(t, err)
	require.Equal(t, []Stage{StageAnalyzeInput, StageClassifyIntent}, order, "no stage may run after a failure")
}

func TestEngine_MissingStageIsError(t *testing.T) {
	e := NewEngine(map[Stage]StageFunc{})
	st := model.NewTurnState("u1", "hello", nil, entity.PhaseGreeting, nil)
	require.Error(t, e.Run(context.Background(), st))
}

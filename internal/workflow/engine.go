// Package workflow 实现单轮评估工作流的阶段编排。
// 每个阶段是一个纯函数式的状态变换，编排器按转移表驱动直至终态。
package workflow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/pkg/errors"
	"ielts-tutor-api/pkg/logger"
	"ielts-tutor-api/pkg/metrics"
)

var tracer = otel.Tracer("workflow")

// Stage 工作流阶段标识
type Stage string

const (
	StageAnalyzeInput        Stage = "analyze_input"
	StageClassifyIntent      Stage = "classify_intent"
	StageExtractImageContent Stage = "extract_image_content"
	StageCombineContent      Stage = "combine_content"
	StageEvaluateEssay       Stage = "evaluate_essay"
	StageHandleGreeting      Stage = "handle_greeting"
	StageGenerateQuestion    Stage = "generate_question"
	StageHandleFollowup      Stage = "handle_followup"
	StageFormatResponse      Stage = "format_response"

	// StageEnd 终态哨兵，不对应任何阶段实现
	StageEnd Stage = "end"
)

// transitions 无条件转移表。分类阶段的出边由 RouteByIntent 决定。
var transitions = map[Stage]Stage{
	StageAnalyzeInput:        StageClassifyIntent,
	StageExtractImageContent: StageCombineContent,
	StageCombineContent:      StageEvaluateEssay,
	StageEvaluateEssay:       StageFormatResponse,
	StageHandleGreeting:      StageFormatResponse,
	StageGenerateQuestion:    StageFormatResponse,
	StageHandleFollowup:      StageFormatResponse,
	StageFormatResponse:      StageEnd,
}

// RouteByIntent 分类结果到下一阶段的路由。
// 未知意图与 unclear 一样退回寒暄处理。
func RouteByIntent(intent model.Intent, hasImage bool) Stage {
	if hasImage || intent == model.IntentHasImage {
		return StageExtractImageContent
	}
	switch intent {
	case model.IntentGreeting, model.IntentUnclear:
		return StageHandleGreeting
	case model.IntentWantsQuestion:
		return StageGenerateQuestion
	case model.IntentSubmittedEssay:
		return StageCombineContent
	case model.IntentFollowup:
		return StageHandleFollowup
	default:
		return StageHandleGreeting
	}
}

// StageFunc 阶段实现：就地修改状态，返回错误即中止整轮
type StageFunc interface {
	Run(ctx context.Context, st *model.TurnState) error
}

// Engine 按转移表驱动各阶段
type Engine struct {
	stages map[Stage]StageFunc
}

// NewEngine 组装工作流引擎，所有阶段必须注册齐全
func NewEngine(stages map[Stage]StageFunc) *Engine {
	return &Engine{stages: stages}
}

// Run 从入口阶段驱动到终态。任一阶段报错即中止，
// 调用方保证中止的轮次不落库不计费。
func (e *Engine) Run(ctx context.Context, st *model.TurnState) error {
	ctx, span := tracer.Start(ctx, "workflow.Run")
	defer span.End()

	current := StageAnalyzeInput
	for current != StageEnd {
		fn, ok := e.stages[current]
		if !ok {
			return errors.New(errors.CodeTurnAborted, "workflow stage not registered: "+string(current))
		}

		if err := e.runStage(ctx, current, fn, st); err != nil {
			span.SetAttributes(attribute.String("workflow.failed_stage", string(current)))
			return err
		}

		if current == StageClassifyIntent {
			current = RouteByIntent(st.Intent, st.HasImage)
			continue
		}
		next, ok := transitions[current]
		if !ok {
			return errors.New(errors.CodeTurnAborted, "workflow stage has no transition: "+string(current))
		}
		current = next
	}
	return nil
}

func (e *Engine) runStage(ctx context.Context, stage Stage, fn StageFunc, st *model.TurnState) error {
	ctx = logger.WithContext(ctx, logger.TurnStageKey, string(stage))
	ctx, span := tracer.Start(ctx, "workflow.stage."+string(stage))
	defer span.End()

	start := time.Now()
	err := fn.Run(ctx, st)
	metrics.TurnStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error(ctx, "workflow stage failed", err, "stage", string(stage))
		return errors.Wrap(err, errors.CodeTurnAborted, "turn aborted at stage "+string(stage))
	}
	logger.Debug(ctx, "workflow stage completed", "stage", string(stage), "intent", string(st.Intent))
	return nil
}

package node

import (
	"context"
	"strings"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/port"
	"ielts-tutor-api/internal/workflow/prompt"
	"ielts-tutor-api/pkg/logger"
	"ielts-tutor-api/pkg/metrics"
)

// 结构性信号阈值：短消息视为寒暄，长消息视为作文提交
const (
	greetingWordLimit  = 20
	essayWordThreshold = 150
)

// IntentClassifier 意图分类阶段。
// 先用零成本的结构性信号短路，剩余情况才发起一次推理调用。
type IntentClassifier struct {
	gw      port.InferenceGateway
	prompts *prompt.Registry
}

func NewIntentClassifier(gw port.InferenceGateway, prompts *prompt.Registry) *IntentClassifier {
	return &IntentClassifier{gw: gw, prompts: prompts}
}

func (c *IntentClassifier) Run(ctx context.Context, st *model.TurnState) error {
	// 图像存在时短路，由路由函数送去图像提取
	if st.HasImage {
		st.Intent = model.IntentHasImage
		return nil
	}

	if st.Phase == entity.PhaseGreeting && st.WordCount < greetingWordLimit {
		st.Intent = model.IntentGreeting
		return nil
	}

	if st.WordCount > essayWordThreshold {
		st.Intent = model.IntentSubmittedEssay
		return nil
	}

	p, err := c.prompts.Render(ctx, prompt.PromptIntentClassifyV1, map[string]any{
		"message":    st.UserMessage,
		"phase":      string(st.Phase),
		"word_count": st.WordCount,
	})
	if err != nil {
		return err
	}

	resp, err := c.gw.Complete(ctx, p)
	if err != nil {
		return err
	}

	intent := model.Intent(strings.ToLower(strings.TrimSpace(resp)))
	if !intent.Valid() {
		logger.Debug(ctx, "intent label out of set, coercing to unclear", "label", string(intent))
		metrics.ParseFallbacksTotal.WithLabelValues("classify_intent").Inc()
		intent = model.IntentUnclear
	}

	st.Intent = intent
	return nil
}

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

// ContentCombiner 合并阶段：图像提取文本与键入文本合成一篇待评作文。
// 只有一个来源时直接采用，两个来源才需要推理合并。
type ContentCombiner struct {
	gw      port.InferenceGateway
	prompts *prompt.Registry
}

func NewContentCombiner(gw port.InferenceGateway, prompts *prompt.Registry) *ContentCombiner {
	return &ContentCombiner{gw: gw, prompts: prompts}
}

func (c *ContentCombiner) Run(ctx context.Context, st *model.TurnState) error {
	extracted := strings.TrimSpace(st.ExtractedText)
	typed := strings.TrimSpace(st.UserMessage)

	switch {
	case extracted == "" && typed == "":
		st.CombinedText = ""
	case extracted == "":
		st.CombinedText = typed
	case typed == "":
		st.CombinedText = extracted
	default:
		combined, err := c.combineViaModel(ctx, st, extracted, typed)
		if err != nil {
			return err
		}
		st.CombinedText = combined
		// 双来源时合并结果就是待评作文，覆盖提取阶段的片段
		st.EssayText = combined
	}

	if st.EssayText == "" {
		st.EssayText = st.CombinedText
	}
	st.WordCount = CountWords(st.EssayText)
	return nil
}

func (c *ContentCombiner) combineViaModel(ctx context.Context, st *model.TurnState, extracted, typed string) (string, error) {
	p, err := c.prompts.Render(ctx, prompt.PromptContentCombineV1, map[string]any{
		"extracted_text": extracted,
		"typed_text":     typed,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.gw.Complete(ctx, p)
	if err != nil {
		return "", err
	}

	var out model.ContentCombination
	if uerr := UnmarshalLenient(resp, &out); uerr != nil || strings.TrimSpace(out.CombinedEssay) == "" {
		// 合并解析失败时退回简单拼接，保证评估仍可进行
		logger.Debug(ctx, "content combination parse failed, falling back to concatenation", "error", uerr)
		metrics.ParseFallbacksTotal.WithLabelValues("combine_content").Inc()
		return extracted + "\n\n" + typed, nil
	}

	if out.Question != "" && st.QuestionText == "" {
		st.QuestionText = strings.TrimSpace(out.Question)
	}
	if t := entity.TaskType(strings.ToLower(out.TaskType)); t.Valid() {
		st.TaskType = t
	}
	return strings.TrimSpace(out.CombinedEssay), nil
}

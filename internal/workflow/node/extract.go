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

// ImageExtractor 图像提取阶段。
// 提取失败不终止本轮：记录校验错误后继续走后续阶段。
type ImageExtractor struct {
	gw      port.InferenceGateway
	prompts *prompt.Registry
}

func NewImageExtractor(gw port.InferenceGateway, prompts *prompt.Registry) *ImageExtractor {
	return &ImageExtractor{gw: gw, prompts: prompts}
}

func (e *ImageExtractor) Run(ctx context.Context, st *model.TurnState) error {
	if !st.HasImage || len(st.ImageData) == 0 {
		return nil
	}

	p, err := e.prompts.Render(ctx, prompt.PromptImageExtractV1, map[string]any{
		"message": st.UserMessage,
	})
	if err != nil {
		return err
	}

	resp, err := e.gw.CompleteWithImage(ctx, p, st.ImageData)
	if err != nil {
		logger.Warn(ctx, "image extraction call failed, continuing without image content", "error", err)
		st.AppendValidationError("Image processing failed: " + err.Error())
		return nil
	}

	var out model.ImageExtraction
	if uerr := UnmarshalLenient(resp, &out); uerr != nil {
		// 非 JSON 响应就按纯文本对待
		logger.Debug(ctx, "image extraction returned non-json, using raw text", "error", uerr)
		metrics.ParseFallbacksTotal.WithLabelValues("extract_image_content").Inc()
		st.ExtractedText = strings.TrimSpace(resp)
		return nil
	}

	st.ExtractedText = strings.TrimSpace(out.ExtractedText)
	if out.QuestionFound && out.QuestionText != "" {
		st.QuestionText = strings.TrimSpace(out.QuestionText)
	}
	if out.EssayFound && out.EssayText != "" {
		st.EssayText = strings.TrimSpace(out.EssayText)
	}
	if t := entity.TaskType(strings.ToLower(out.TaskType)); t.Valid() {
		st.TaskType = t
	}
	return nil
}

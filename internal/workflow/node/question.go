package node

import (
	"context"
	"fmt"
	"strings"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/port"
	"ielts-tutor-api/internal/workflow/prompt"
	"ielts-tutor-api/pkg/logger"
	"ielts-tutor-api/pkg/metrics"
)

// QuestionGenerator 出题阶段：先解析用户想要的任务类型与话题，再生成题目。
// 解析失败时退回 Task 2 通用话题。
type QuestionGenerator struct {
	gw      port.InferenceGateway
	prompts *prompt.Registry
}

func NewQuestionGenerator(gw port.InferenceGateway, prompts *prompt.Registry) *QuestionGenerator {
	return &QuestionGenerator{gw: gw, prompts: prompts}
}

func (g *QuestionGenerator) Run(ctx context.Context, st *model.TurnState) error {
	req, err := g.parseRequest(ctx, st.UserMessage)
	if err != nil {
		return err
	}

	taskType := entity.TaskType2
	if entity.TaskType(req.TaskType).Valid() {
		taskType = entity.TaskType(req.TaskType)
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = "general"
	}

	id := prompt.PromptQuestionGenTask2V1
	if taskType == entity.TaskType1 {
		id = prompt.PromptQuestionGenTask1V1
	}
	p, err := g.prompts.Render(ctx, id, map[string]any{"topic": topic})
	if err != nil {
		return err
	}
	question, err := g.gw.Complete(ctx, p)
	if err != nil {
		return err
	}

	st.TaskType = taskType
	st.QuestionText = strings.TrimSpace(question)
	st.ChargeCredit = false
	st.NextPhase = entity.PhaseWaitingForEssay
	st.Reply = questionReply(taskType, st.QuestionText)
	return nil
}

func (g *QuestionGenerator) parseRequest(ctx context.Context, message string) (model.QuestionRequest, error) {
	p, err := g.prompts.Render(ctx, prompt.PromptQuestionTopicV1, map[string]any{
		"message": message,
	})
	if err != nil {
		return model.QuestionRequest{}, err
	}
	resp, err := g.gw.Complete(ctx, p)
	if err != nil {
		return model.QuestionRequest{}, err
	}

	var req model.QuestionRequest
	if uerr := UnmarshalLenient(resp, &req); uerr != nil {
		logger.Debug(ctx, "question request parse failed, using defaults", "error", uerr)
		metrics.ParseFallbacksTotal.WithLabelValues("generate_question").Inc()
		return model.QuestionRequest{TaskType: string(entity.TaskType2), Topic: "general"}, nil
	}
	req.TaskType = strings.ToLower(strings.TrimSpace(req.TaskType))
	return req, nil
}

func questionReply(taskType entity.TaskType, question string) string {
	minWords := 250
	timing := 40
	if taskType == entity.TaskType1 {
		minWords = 150
		timing = 20
	}
	return fmt.Sprintf("Here's your IELTS Writing %s question:\n\n---\n\n%s\n\n---\n\n"+
		"Write at least %d words. In the real exam you'd have about %d minutes. "+
		"Send me your essay (text or photo) when you're ready.",
		taskTypeLabel(taskType), question, minWords, timing)
}

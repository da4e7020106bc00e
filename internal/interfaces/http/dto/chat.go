// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"ielts-tutor-api/internal/application/assessment"
	"ielts-tutor-api/internal/workflow/model"
)

// ChatRequest 对话轮次请求。
// ImageBase64 携带手写作文照片，标准 base64 编码。
type ChatRequest struct {
	Message     string `json:"message"`
	ImageBase64 string `json:"image_base64,omitempty"`
	// Phase 可选的阶段覆盖，用于客户端显式重置流程
	Phase string `json:"phase,omitempty"`
}

// ScoresDTO 四项评分与总分
type ScoresDTO struct {
	TaskAchievement     float64 `json:"task_achievement"`
	CoherenceCohesion   float64 `json:"coherence_cohesion"`
	LexicalResource     float64 `json:"lexical_resource"`
	GrammaticalAccuracy float64 `json:"grammatical_accuracy"`
	Overall             float64 `json:"overall"`
}

// EvaluationDTO 本轮产出的评估结果
type EvaluationDTO struct {
	Scores   ScoresDTO                 `json:"scores"`
	Feedback *model.EvaluationFeedback `json:"feedback,omitempty"`
}

// HistoryEntryDTO 对话历史条目
type HistoryEntryDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResponse 对话轮次响应
type ChatResponse struct {
	Reply        string            `json:"reply"`
	Intent       string            `json:"intent"`
	Phase        string            `json:"phase"`
	ChargeCredit bool              `json:"charge_credit"`
	Evaluation   *EvaluationDTO    `json:"evaluation,omitempty"`
	History      []HistoryEntryDTO `json:"history"`
}

// NewChatResponse 由应用层结果构造响应
func NewChatResponse(res *assessment.ChatResult) ChatResponse {
	out := ChatResponse{
		Reply:        res.Reply,
		Intent:       string(res.Intent),
		Phase:        string(res.Phase),
		ChargeCredit: res.ChargeCredit,
		History:      make([]HistoryEntryDTO, 0, len(res.History)),
	}
	// 评估结果只在本轮打分且计费时返回，与落库口径一致
	if res.ChargeCredit && res.Scores != nil {
		out.Evaluation = &EvaluationDTO{
			Scores: ScoresDTO{
				TaskAchievement:     res.Scores.TaskAchievement,
				CoherenceCohesion:   res.Scores.CoherenceCohesion,
				LexicalResource:     res.Scores.LexicalResource,
				GrammaticalAccuracy: res.Scores.GrammaticalAccuracy,
				Overall:             res.Scores.Overall,
			},
			Feedback: res.Feedback,
		}
	}
	for _, h := range res.History {
		out.History = append(out.History, HistoryEntryDTO{
			Role:      string(h.Role),
			Content:   h.Content,
			Timestamp: h.Timestamp,
		})
	}
	return out
}

// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"ielts-tutor-api/internal/application/assessment"
)

// EvaluationSummaryDTO 历史评估列表项
type EvaluationSummaryDTO struct {
	ID           string    `json:"id"`
	TaskType     string    `json:"task_type"`
	EssayPreview string    `json:"essay_preview"`
	WordCount    int       `json:"word_count"`
	Overall      float64   `json:"overall_band_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// EvaluationListResponse 历史评估列表响应
type EvaluationListResponse struct {
	Evaluations []EvaluationSummaryDTO `json:"evaluations"`
}

// NewEvaluationListResponse 由应用层摘要构造响应
func NewEvaluationListResponse(items []assessment.EvaluationSummary) EvaluationListResponse {
	out := EvaluationListResponse{Evaluations: make([]EvaluationSummaryDTO, 0, len(items))}
	for _, e := range items {
		out.Evaluations = append(out.Evaluations, EvaluationSummaryDTO{
			ID:           e.ID,
			TaskType:     string(e.TaskType),
			EssayPreview: e.EssayPreview,
			WordCount:    e.WordCount,
			Overall:      e.Overall,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}

// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ielts-tutor-api/internal/domain/entity"
)

// EvaluationRepository 评估记录访问接口，只追加
type EvaluationRepository interface {
	Create(ctx context.Context, eval *entity.Evaluation) error
	// ListByUser 返回最近 limit 条评估记录，按创建时间降序
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Evaluation, error)
}

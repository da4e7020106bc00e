// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"ielts-tutor-api/internal/domain/entity"
)

type EvaluationRepository struct {
	client *Client
}

func NewEvaluationRepository(client *Client) *EvaluationRepository {
	return &EvaluationRepository{client: client}
}

func (r *EvaluationRepository) Create(ctx context.Context, eval *entity.Evaluation) error {
	ctx, span := tracer.Start(ctx, "postgres.EvaluationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(eval).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Evaluation, error) {
	ctx, span := tracer.Start(ctx, "postgres.EvaluationRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var evals []*entity.Evaluation
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&evals).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}

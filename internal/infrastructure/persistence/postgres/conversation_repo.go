// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ielts-tutor-api/internal/domain/entity"
)

type ConversationRepository struct {
	client *Client
}

func NewConversationRepository(client *Client) *ConversationRepository {
	return &ConversationRepository{client: client}
}

func (r *ConversationRepository) GetByUserID(ctx context.Context, userID string) (*entity.Conversation, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.GetByUserID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var conv entity.Conversation
	if err := db.First(&conv, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// Upsert 按 user_id 冲突覆盖阶段，latest-wins
func (r *ConversationRepository) Upsert(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"phase", "updated_at"}),
		},
		clause.Returning{},
	).Create(conv).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return conv, nil
}

// ListMessages 返回最近 limit 条，按时间升序
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.ListMessages")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var msgs []*entity.Message
	if err := db.Where("conversation_id = ?", conversationID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// 查询按时间降序取窗口，返回前反转为升序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ReplaceMessages 删除旧消息并整组写入新消息
func (r *ConversationRepository) ReplaceMessages(ctx context.Context, conversationID string, msgs []*entity.Message) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.ReplaceMessages")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Where("conversation_id = ?", conversationID).
		Delete(&entity.Message{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete old messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := db.Create(&msgs).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert messages: %w", err)
	}
	return nil
}

// DeleteByUserID 删除会话与消息，评估记录保留
func (r *ConversationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.DeleteByUserID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var conv entity.Conversation
	if err := db.First(&conv, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		span.RecordError(err)
		return fmt.Errorf("failed to find conversation: %w", err)
	}

	if err := db.Where("conversation_id = ?", conv.ID).
		Delete(&entity.Message{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := db.Delete(&entity.Conversation{}, "id = ?", conv.ID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

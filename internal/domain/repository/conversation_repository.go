// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ielts-tutor-api/internal/domain/entity"
)

// ConversationRepository 会话及消息访问接口。
// 消息集合采用 last-write-wins 语义：每轮整组替换，不做追加日志。
type ConversationRepository interface {
	// GetByUserID 按用户查询会话，不存在时返回 nil
	GetByUserID(ctx context.Context, userID string) (*entity.Conversation, error)
	// Upsert 创建或覆盖用户会话（阶段 + 更新时间）
	Upsert(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error)
	// ListMessages 返回最近 limit 条消息，按时间升序
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error)
	// ReplaceMessages 删除旧消息并写入新消息集合
	ReplaceMessages(ctx context.Context, conversationID string, msgs []*entity.Message) error
	// DeleteByUserID 删除用户会话及其全部消息
	DeleteByUserID(ctx context.Context, userID string) error
}

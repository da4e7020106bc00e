// Package entity 定义领域实体
package entity

import (
	"time"
)

// ConversationPhase 会话阶段，跨轮次持久化
type ConversationPhase string

const (
	PhaseGreeting             ConversationPhase = "greeting"
	PhaseWaitingForPreference ConversationPhase = "waiting_for_preference"
	PhaseWaitingForEssay      ConversationPhase = "waiting_for_essay"
	PhaseEvaluating           ConversationPhase = "evaluating"
	PhaseDiscussingFeedback   ConversationPhase = "discussing_feedback"
)

// Valid 判断是否为已知阶段
func (p ConversationPhase) Valid() bool {
	switch p {
	case PhaseGreeting, PhaseWaitingForPreference, PhaseWaitingForEssay,
		PhaseEvaluating, PhaseDiscussingFeedback:
		return true
	}
	return false
}

// Conversation 每用户一条，latest-wins 覆盖写
type Conversation struct {
	ID        string            `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string            `json:"user_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Phase     ConversationPhase `json:"phase" gorm:"type:varchar(32);not null;default:'greeting'"`
	CreatedAt time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func NewConversation(userID string, phase ConversationPhase) *Conversation {
	now := time.Now()
	if phase == "" {
		phase = PhaseGreeting
	}
	return &Conversation{
		UserID:    userID,
		Phase:     phase,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Message 会话消息，每轮结束时整组替换为滚动窗口
type Message struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID string    `json:"conversation_id" gorm:"type:uuid;index;not null"`
	Role           Role      `json:"role" gorm:"type:varchar(16);not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"index;not null"`
}

func (Message) TableName() string {
	return "messages"
}

func NewMessage(conversationID string, role Role, content string, ts time.Time) *Message {
	if ts.IsZero() {
		ts = time.Now()
	}
	return &Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      ts,
	}
}

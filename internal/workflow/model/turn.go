// Package model 定义工作流输入输出模型
package model

import (
	"math"
	"time"

	"ielts-tutor-api/internal/domain/entity"
)

// Intent 单轮用户意图
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentWantsQuestion  Intent = "wants_question"
	IntentSubmittedEssay Intent = "submitted_essay"
	IntentFollowup       Intent = "followup"
	IntentUnclear        Intent = "unclear"
	// IntentHasImage 图像存在时的短路信号，不属于封闭标签集
	IntentHasImage Intent = "has_image"
)

// Valid 判断是否为封闭标签集内的意图
func (i Intent) Valid() bool {
	switch i {
	case IntentGreeting, IntentWantsQuestion, IntentSubmittedEssay, IntentFollowup, IntentUnclear:
		return true
	}
	return false
}

// HistoryEntry 滚动对话历史中的一条消息
type HistoryEntry struct {
	Role      entity.Role `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// RubricScores 四项评分标准与总分
type RubricScores struct {
	TaskAchievement     float64 `json:"task_achievement"`
	CoherenceCohesion   float64 `json:"coherence_cohesion"`
	LexicalResource     float64 `json:"lexical_resource"`
	GrammaticalAccuracy float64 `json:"grammatical_accuracy"`
	Overall             float64 `json:"overall"`
}

// NewRubricScores 由四项分数构造评分，总分为均值取最近 0.5
func NewRubricScores(ta, cc, lr, ga float64) *RubricScores {
	return &RubricScores{
		TaskAchievement:     ta,
		CoherenceCohesion:   cc,
		LexicalResource:     lr,
		GrammaticalAccuracy: ga,
		Overall:             RoundHalf((ta + cc + lr + ga) / 4),
	}
}

// RoundHalf 取最近的 0.5
func RoundHalf(x float64) float64 {
	return math.Round(x*2) / 2
}

// TurnState 单轮请求的全量状态，贯穿所有工作流阶段。
// 每轮新建，轮间连续性全部来自记忆存储。
type TurnState struct {
	// 输入
	UserMessage string
	ImageData   []byte
	UserID      string

	// 会话上下文
	Phase   entity.ConversationPhase
	History []HistoryEntry
	Intent  Intent

	// 输入分析
	HasImage    bool
	LikelyEssay bool
	WordCount   int

	// 内容处理
	ExtractedText string
	CombinedText  string
	EssayText     string
	QuestionText  string
	TaskType      entity.TaskType

	// 校验
	IsValidEssay     bool
	ValidationErrors []string

	// 评估结果；评估未运行时两者均为 nil
	Scores   *RubricScores
	Feedback *EvaluationFeedback

	// 输出
	Reply        string
	ChargeCredit bool
	NextPhase    entity.ConversationPhase
}

// NewTurnState 构造一轮工作流的初始状态
func NewTurnState(userID, message string, image []byte, phase entity.ConversationPhase, history []HistoryEntry) *TurnState {
	if phase == "" {
		phase = entity.PhaseGreeting
	}
	return &TurnState{
		UserMessage:  message,
		ImageData:    image,
		UserID:       userID,
		Phase:        phase,
		History:      history,
		TaskType:     entity.TaskType2,
		IsValidEssay: true,
		NextPhase:    phase,
	}
}

// AppendValidationError 追加一条校验错误并标记无效
func (s *TurnState) AppendValidationError(msg string) {
	s.ValidationErrors = append(s.ValidationErrors, msg)
}

// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// TaskType IELTS 写作任务类型
type TaskType string

const (
	TaskType1 TaskType = "task1"
	TaskType2 TaskType = "task2"
)

// Valid 判断是否为已知任务类型
func (t TaskType) Valid() bool {
	return t == TaskType1 || t == TaskType2
}

// Evaluation 评估记录，只追加，核心不更新不删除
type Evaluation struct {
	ID                       string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID                   string          `json:"user_id" gorm:"type:varchar(64);index;not null"`
	EssayText                string          `json:"essay_text" gorm:"type:text;not null"`
	QuestionText             string          `json:"question_text" gorm:"type:text"`
	TaskType                 TaskType        `json:"task_type" gorm:"type:varchar(8)"`
	WordCount                int             `json:"word_count"`
	OverallBandScore         float64         `json:"overall_band_score"`
	TaskAchievementScore     float64         `json:"task_achievement_score"`
	CoherenceCohesionScore   float64         `json:"coherence_cohesion_score"`
	LexicalResourceScore     float64         `json:"lexical_resource_score"`
	GrammaticalAccuracyScore float64         `json:"grammatical_accuracy_score"`
	DetailedFeedback         json.RawMessage `json:"detailed_feedback,omitempty" gorm:"type:jsonb"`
	CreatedAt                time.Time       `json:"created_at" gorm:"autoCreateTime;index"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

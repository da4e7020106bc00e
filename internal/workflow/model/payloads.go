// Package model 定义工作流输入输出模型
package model

// ImageExtraction 视觉模型返回的结构化提取结果
type ImageExtraction struct {
	ExtractedText string `json:"extracted_text"`
	QuestionFound bool   `json:"question_found"`
	QuestionText  string `json:"question_text"`
	EssayFound    bool   `json:"essay_found"`
	EssayText     string `json:"essay_text"`
	TaskType      string `json:"task_type"`
}

// ContentCombination 图像文本与键入文本的合并结果
type ContentCombination struct {
	CombinedEssay       string `json:"combined_essay"`
	Question            string `json:"question"`
	TaskType            string `json:"task_type"`
	CombinationStrategy string `json:"combination_strategy"`
}

// QuestionRequest 从用户请求中提取的出题参数
type QuestionRequest struct {
	TaskType             string `json:"task_type"`
	Topic                string `json:"topic"`
	SpecificRequirements string `json:"specific_requirements"`
}

// CriterionFeedback 单项评分标准的分数与评语
type CriterionFeedback struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// EvaluationFeedback 评估的结构化反馈载荷。
// 降级路径下仅填充 RawResponse。
type EvaluationFeedback struct {
	TaskAchievement     *CriterionFeedback `json:"task_achievement,omitempty"`
	CoherenceCohesion   *CriterionFeedback `json:"coherence_cohesion,omitempty"`
	LexicalResource     *CriterionFeedback `json:"lexical_resource,omitempty"`
	GrammaticalAccuracy *CriterionFeedback `json:"grammatical_accuracy,omitempty"`
	Strengths           []string           `json:"strengths,omitempty"`
	AreasForImprovement []string           `json:"areas_for_improvement,omitempty"`
	BandDescription     string             `json:"band_description,omitempty"`
	RawResponse         string             `json:"raw_response,omitempty"`
}

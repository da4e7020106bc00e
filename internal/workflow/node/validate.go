package node

import (
	"fmt"

	"ielts-tutor-api/internal/domain/entity"
)

// ValidationRules 作文篇幅校验规则
type ValidationRules struct {
	MinWordsTask1 int
	MinWordsTask2 int
	MaxWords      int
}

// DefaultValidationRules 官方考试的篇幅下限与一个宽松上限
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		MinWordsTask1: 150,
		MinWordsTask2: 250,
		MaxWords:      400,
	}
}

// Validate 校验作文篇幅，返回词数与违规说明列表。
// 列表为空即通过。
func (r ValidationRules) Validate(essay string, taskType entity.TaskType) (int, []string) {
	wc := CountWords(essay)

	min := r.MinWordsTask2
	if taskType == entity.TaskType1 {
		min = r.MinWordsTask1
	}

	var violations []string
	if wc < min {
		violations = append(violations, fmt.Sprintf("Essay too short: %d words (minimum: %d)", wc, min))
	}
	if r.MaxWords > 0 && wc > r.MaxWords {
		violations = append(violations, fmt.Sprintf("Essay too long: %d words (recommended maximum: %d)", wc, r.MaxWords))
	}
	return wc, violations
}

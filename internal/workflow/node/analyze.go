// Package node 实现工作流各阶段
package node

import (
	"context"
	"strings"

	"ielts-tutor-api/internal/workflow/model"
)

// essayMarkers 作文常见结构词，用于粗判输入是否像一篇作文
var essayMarkers = []string{
	"introduction", "conclusion", "furthermore", "however",
	"in my opinion", "to sum up", "firstly", "secondly",
}

// InputAnalyzer 入口阶段：统计词数并标记图像/作文特征
type InputAnalyzer struct{}

func NewInputAnalyzer() *InputAnalyzer {
	return &InputAnalyzer{}
}

func (a *InputAnalyzer) Run(_ context.Context, st *model.TurnState) error {
	message := strings.TrimSpace(st.UserMessage)

	st.WordCount = CountWords(message)
	st.HasImage = len(st.ImageData) > 0

	lower := strings.ToLower(message)
	if st.WordCount > 100 {
		for _, marker := range essayMarkers {
			if strings.Contains(lower, marker) {
				st.LikelyEssay = true
				break
			}
		}
	}

	return nil
}

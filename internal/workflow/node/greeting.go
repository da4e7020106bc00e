package node

import (
	"context"
	"strings"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
)

var greetingKeywords = []string{"hi", "hello", "start", "help", "practice"}

// GreetingHandler 寒暄阶段：固定文案，不调用模型也不计费
type GreetingHandler struct{}

func NewGreetingHandler() *GreetingHandler {
	return &GreetingHandler{}
}

func (h *GreetingHandler) Run(_ context.Context, st *model.TurnState) error {
	lower := strings.ToLower(st.UserMessage)
	matched := false
	for _, kw := range greetingKeywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}

	if matched {
		st.Reply = "Hello! I'm your IELTS Writing tutor. Here's what I can do for you:\n\n" +
			"1. **Practice question** - ask me for a Task 1 or Task 2 question\n" +
			"2. **Essay evaluation** - paste your essay (or send a photo of it) and I'll score it against the official band descriptors\n" +
			"3. **Feedback discussion** - after an evaluation, ask me anything about your scores\n\n" +
			"Would you like a Task 1 or Task 2 question, or do you have an essay ready?"
	} else {
		st.Reply = "Hi! I'm your IELTS Writing tutor. You can ask me for a practice question, " +
			"or submit an essay for evaluation. How would you like to start?"
	}

	st.ChargeCredit = false
	st.NextPhase = entity.PhaseWaitingForPreference
	return nil
}

package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptIntentClassifyV1   PromptID = "intent_classify_v1"
	PromptImageExtractV1     PromptID = "image_extract_v1"
	PromptContentCombineV1   PromptID = "content_combine_v1"
	PromptEssayEvalV1        PromptID = "essay_eval_v1"
	PromptQuestionTopicV1    PromptID = "question_topic_v1"
	PromptQuestionGenTask1V1 PromptID = "question_gen_task1_v1"
	PromptQuestionGenTask2V1 PromptID = "question_gen_task2_v1"
	PromptFollowupV1         PromptID = "followup_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// Render 格式化模板并拼接为单段 prompt 文本，供窄接口网关使用
func (r *Registry) Render(ctx context.Context, id PromptID, params map[string]any) (string, error) {
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return "", err
	}

	msgs, err := tpl.Format(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to format prompt %s: %w", id, err)
	}

	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(m.Content))
	}
	return strings.Join(parts, "\n\n"), nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptIntentClassifyV1:
		return "templates/intent_classify_v1.system.txt", "templates/intent_classify_v1.user.txt", nil
	case PromptImageExtractV1:
		return "templates/image_extract_v1.system.txt", "templates/image_extract_v1.user.txt", nil
	case PromptContentCombineV1:
		return "templates/content_combine_v1.system.txt", "templates/content_combine_v1.user.txt", nil
	case PromptEssayEvalV1:
		return "templates/essay_eval_v1.system.txt", "templates/essay_eval_v1.user.txt", nil
	case PromptQuestionTopicV1:
		return "templates/question_topic_v1.system.txt", "templates/question_topic_v1.user.txt", nil
	case PromptQuestionGenTask1V1:
		return "templates/question_gen_task1_v1.system.txt", "templates/question_gen_task1_v1.user.txt", nil
	case PromptQuestionGenTask2V1:
		return "templates/question_gen_task2_v1.system.txt", "templates/question_gen_task2_v1.user.txt", nil
	case PromptFollowupV1:
		return "templates/followup_v1.system.txt", "templates/followup_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

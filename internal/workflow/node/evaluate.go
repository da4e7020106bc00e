package node

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/port"
	"ielts-tutor-api/internal/workflow/prompt"
	"ielts-tutor-api/pkg/logger"
	"ielts-tutor-api/pkg/metrics"
)

// 降级解析：从自由文本中按标准名抓取分数，抓不到给中间分
const fallbackScore = 6.0

var fallbackPatterns = map[string]*regexp.Regexp{
	"task_achievement":     regexp.MustCompile(`task[\s_]*achievement[\s_]*(?:score)?[\s:]*([0-9.]+)`),
	"coherence_cohesion":   regexp.MustCompile(`coherence(?:[\s_]*(?:and)?[\s_]*cohesion)?[\s_]*(?:score)?[\s:]*([0-9.]+)`),
	"lexical_resource":     regexp.MustCompile(`lexical[\s_]*resource[\s_]*(?:score)?[\s:]*([0-9.]+)`),
	"grammatical_accuracy": regexp.MustCompile(`grammatical[\s_]*(?:range[\s_]*(?:and)?[\s_]*)?accuracy[\s_]*(?:score)?[\s:]*([0-9.]+)`),
}

// EssayEvaluator 评估阶段：先做篇幅校验，通过后按官方四项标准打分。
// 结构化解析失败时降级为正则抓分，降级同样产出一份可计费的评估。
type EssayEvaluator struct {
	gw               port.InferenceGateway
	prompts          *prompt.Registry
	rules            ValidationRules
	chargeOnFallback bool
}

func NewEssayEvaluator(gw port.InferenceGateway, prompts *prompt.Registry, rules ValidationRules, chargeOnFallback bool) *EssayEvaluator {
	return &EssayEvaluator{gw: gw, prompts: prompts, rules: rules, chargeOnFallback: chargeOnFallback}
}

func (e *EssayEvaluator) Run(ctx context.Context, st *model.TurnState) error {
	essay := strings.TrimSpace(st.EssayText)
	if essay == "" {
		essay = strings.TrimSpace(st.CombinedText)
		st.EssayText = essay
	}

	wc, violations := e.rules.Validate(essay, st.TaskType)
	st.WordCount = wc
	if len(violations) > 0 {
		st.IsValidEssay = false
		st.ValidationErrors = append(st.ValidationErrors, violations...)
		st.ChargeCredit = false
		st.Reply = validationReply(violations, st.TaskType, wc)
		st.NextPhase = entity.PhaseWaitingForEssay
		return nil
	}

	question := st.QuestionText
	if question == "" {
		question = "(not provided)"
	}

	p, err := e.prompts.Render(ctx, prompt.PromptEssayEvalV1, map[string]any{
		"task_type":  string(st.TaskType),
		"question":   question,
		"word_count": wc,
		"essay":      essay,
	})
	if err != nil {
		return err
	}

	resp, err := e.gw.Complete(ctx, p)
	if err != nil {
		return err
	}

	var fb model.EvaluationFeedback
	if uerr := UnmarshalLenient(resp, &fb); uerr != nil || fb.TaskAchievement == nil {
		e.evaluateFallback(ctx, st, resp)
	} else {
		st.Scores = model.NewRubricScores(
			fb.TaskAchievement.Score,
			criterionScore(fb.CoherenceCohesion),
			criterionScore(fb.LexicalResource),
			criterionScore(fb.GrammaticalAccuracy),
		)
		st.Feedback = &fb
		st.ChargeCredit = true
		st.Reply = evaluationReply(st.Scores, &fb, st.TaskType, wc)
	}

	st.NextPhase = entity.PhaseDiscussingFeedback
	return nil
}

// evaluateFallback 正则抓分路径。叙述性反馈原样保留给用户。
func (e *EssayEvaluator) evaluateFallback(ctx context.Context, st *model.TurnState, raw string) {
	logger.Warn(ctx, "evaluation response was not structured, using score extraction fallback")
	metrics.ParseFallbacksTotal.WithLabelValues("evaluate_essay").Inc()

	lower := strings.ToLower(raw)
	scores := make(map[string]float64, len(fallbackPatterns))
	for name, re := range fallbackPatterns {
		scores[name] = fallbackScore
		if m := re.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64); err == nil && v >= 0 && v <= 9 {
				scores[name] = v
			}
		}
	}

	st.Scores = model.NewRubricScores(
		scores["task_achievement"],
		scores["coherence_cohesion"],
		scores["lexical_resource"],
		scores["grammatical_accuracy"],
	)
	st.Feedback = &model.EvaluationFeedback{RawResponse: raw}
	st.ChargeCredit = e.chargeOnFallback
	st.Reply = fallbackReply(st.Scores, raw)
}

func criterionScore(c *model.CriterionFeedback) float64 {
	if c == nil {
		return fallbackScore
	}
	return c.Score
}

func validationReply(violations []string, taskType entity.TaskType, wc int) string {
	var b strings.Builder
	b.WriteString("I wasn't able to evaluate your essay yet:\n\n")
	for _, v := range violations {
		b.WriteString("- " + v + "\n")
	}
	b.WriteString(fmt.Sprintf("\nYour Writing %s essay currently has %d words. ", taskTypeLabel(taskType), wc))
	b.WriteString("Please revise it and submit again. You won't be charged a credit for this attempt.")
	return b.String()
}

func evaluationReply(s *model.RubricScores, fb *model.EvaluationFeedback, taskType entity.TaskType, wc int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Your IELTS Writing %s Evaluation\n\n", taskTypeLabel(taskType))
	fmt.Fprintf(&b, "**Overall Band Score: %.1f** (%d words)\n\n", s.Overall, wc)
	b.WriteString("| Criterion | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Task Achievement | %.1f |\n", s.TaskAchievement)
	fmt.Fprintf(&b, "| Coherence & Cohesion | %.1f |\n", s.CoherenceCohesion)
	fmt.Fprintf(&b, "| Lexical Resource | %.1f |\n", s.LexicalResource)
	fmt.Fprintf(&b, "| Grammatical Range & Accuracy | %.1f |\n\n", s.GrammaticalAccuracy)

	writeCriterion(&b, "Task Achievement", fb.TaskAchievement)
	writeCriterion(&b, "Coherence & Cohesion", fb.CoherenceCohesion)
	writeCriterion(&b, "Lexical Resource", fb.LexicalResource)
	writeCriterion(&b, "Grammatical Range & Accuracy", fb.GrammaticalAccuracy)

	if len(fb.Strengths) > 0 {
		b.WriteString("### Strengths\n")
		for _, v := range fb.Strengths {
			b.WriteString("- " + v + "\n")
		}
		b.WriteString("\n")
	}
	if len(fb.AreasForImprovement) > 0 {
		b.WriteString("### Areas for Improvement\n")
		for _, v := range fb.AreasForImprovement {
			b.WriteString("- " + v + "\n")
		}
		b.WriteString("\n")
	}
	if fb.BandDescription != "" {
		b.WriteString(fb.BandDescription + "\n\n")
	}
	b.WriteString("Feel free to ask me about any part of this feedback.")
	return b.String()
}

func fallbackReply(s *model.RubricScores, raw string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Overall Band Score: %.1f**\n\n", s.Overall)
	fmt.Fprintf(&b, "- Task Achievement: %.1f\n", s.TaskAchievement)
	fmt.Fprintf(&b, "- Coherence & Cohesion: %.1f\n", s.CoherenceCohesion)
	fmt.Fprintf(&b, "- Lexical Resource: %.1f\n", s.LexicalResource)
	fmt.Fprintf(&b, "- Grammatical Range & Accuracy: %.1f\n\n", s.GrammaticalAccuracy)
	if strings.TrimSpace(raw) != "" {
		b.WriteString(strings.TrimSpace(raw))
		b.WriteString("\n\n")
	}
	b.WriteString("Feel free to ask me about any part of this feedback.")
	return b.String()
}

func writeCriterion(b *strings.Builder, title string, c *model.CriterionFeedback) {
	if c == nil || c.Feedback == "" {
		return
	}
	fmt.Fprintf(b, "### %s (%.1f)\n%s\n\n", title, c.Score, c.Feedback)
}

func taskTypeLabel(t entity.TaskType) string {
	if t == entity.TaskType1 {
		return "Task 1"
	}
	return "Task 2"
}

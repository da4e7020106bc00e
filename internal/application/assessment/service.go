package assessment

import (
	"context"
	"encoding/json"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/pkg/logger"
	"ielts-tutor-api/pkg/metrics"
)

// ChatInput 一轮对话的输入
type ChatInput struct {
	UserID  string
	Message string
	Image   []byte
	// PhaseOverride 非空时覆盖持久化的会话阶段，用于客户端显式重置流程
	PhaseOverride entity.ConversationPhase
}

// ChatResult 一轮对话的输出
type ChatResult struct {
	Reply        string
	Intent       model.Intent
	Phase        entity.ConversationPhase
	ChargeCredit bool
	Scores       *model.RubricScores
	Feedback     *model.EvaluationFeedback
	History      []model.HistoryEntry
}

// Service 对话轮次应用服务：加载记忆、驱动工作流、持久化结果。
// 同一用户的轮次串行执行，避免 last-write-wins 历史被交错覆盖。
type Service struct {
	engine *workflow.Engine
	store  MemoryStore
	locks  *userLocks
}

func NewService(engine *workflow.Engine, store MemoryStore) *Service {
	return &Service{
		engine: engine,
		store:  store,
		locks:  newUserLocks(),
	}
}

// Chat 处理一轮对话。工作流中止时不落库不计费，错误原样上抛。
func (s *Service) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	lock := s.locks.get(in.UserID)
	lock.Lock()
	defer lock.Unlock()

	ctx = logger.WithContext(ctx, logger.UserIDKey, in.UserID)

	snap, err := s.store.LoadSnapshot(ctx, in.UserID)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("unknown", "error").Inc()
		return nil, err
	}

	phase := snap.Phase
	if in.PhaseOverride != "" && in.PhaseOverride.Valid() {
		phase = in.PhaseOverride
	}

	st := model.NewTurnState(in.UserID, in.Message, in.Image, phase, snap.History)
	st.Feedback = snap.LastFeedback

	if err := s.engine.Run(ctx, st); err != nil {
		metrics.TurnsTotal.WithLabelValues(string(st.Intent), "error").Inc()
		return nil, err
	}

	// 评估记录只在产出评分且确认计费时落库
	var eval *entity.Evaluation
	if st.ChargeCredit && st.Scores != nil {
		eval = buildEvaluation(ctx, st)
	}

	if err := s.store.SaveTurn(ctx, in.UserID, st.NextPhase, st.History, eval); err != nil {
		metrics.TurnsTotal.WithLabelValues(string(st.Intent), "error").Inc()
		return nil, err
	}

	metrics.TurnsTotal.WithLabelValues(string(st.Intent), "ok").Inc()
	if st.ChargeCredit {
		metrics.CreditsCharged.Inc()
	}

	logger.Info(ctx, "conversation turn completed",
		"intent", string(st.Intent),
		"phase", string(st.NextPhase),
		"charge_credit", st.ChargeCredit,
		"evaluated", st.Scores != nil,
	)

	return &ChatResult{
		Reply:        st.Reply,
		Intent:       st.Intent,
		Phase:        st.NextPhase,
		ChargeCredit: st.ChargeCredit,
		Scores:       st.Scores,
		Feedback:     st.Feedback,
		History:      st.History,
	}, nil
}

// ListEvaluations 按时间倒序列出用户的历史评估
func (s *Service) ListEvaluations(ctx context.Context, userID string, limit int) ([]EvaluationSummary, error) {
	return s.store.ListEvaluations(ctx, userID, limit)
}

// ClearMemory 重置用户会话，评估记录保留
func (s *Service) ClearMemory(ctx context.Context, userID string) error {
	lock := s.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.store.Clear(ctx, userID)
}

func buildEvaluation(ctx context.Context, st *model.TurnState) *entity.Evaluation {
	var detail json.RawMessage
	if st.Feedback != nil {
		if raw, err := json.Marshal(st.Feedback); err == nil {
			detail = raw
		} else {
			logger.Warn(ctx, "failed to encode evaluation feedback", "error", err)
		}
	}
	return &entity.Evaluation{
		UserID:                   st.UserID,
		EssayText:                st.EssayText,
		QuestionText:             st.QuestionText,
		TaskType:                 st.TaskType,
		WordCount:                st.WordCount,
		OverallBandScore:         st.Scores.Overall,
		TaskAchievementScore:     st.Scores.TaskAchievement,
		CoherenceCohesionScore:   st.Scores.CoherenceCohesion,
		LexicalResourceScore:     st.Scores.LexicalResource,
		GrammaticalAccuracyScore: st.Scores.GrammaticalAccuracy,
		DetailedFeedback:         detail,
	}
}

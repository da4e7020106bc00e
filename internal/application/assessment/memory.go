// Package assessment 实现评估会话的应用服务层
package assessment

import (
	"context"
	"encoding/json"
	"time"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/domain/repository"
	"ielts-tutor-api/internal/infrastructure/persistence/redis"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/node"
	"ielts-tutor-api/pkg/errors"
	"ielts-tutor-api/pkg/logger"
)

const evaluationPreviewRunes = 100

// Snapshot 一个用户的全部跨轮记忆：阶段、滚动历史、最近一次评估反馈
type Snapshot struct {
	ConversationID string                    `json:"conversation_id"`
	Phase          entity.ConversationPhase  `json:"phase"`
	History        []model.HistoryEntry      `json:"history"`
	LastFeedback   *model.EvaluationFeedback `json:"last_feedback,omitempty"`
}

// EvaluationSummary 历史评估的列表视图，正文只保留预览
type EvaluationSummary struct {
	ID           string          `json:"id"`
	TaskType     entity.TaskType `json:"task_type"`
	EssayPreview string          `json:"essay_preview"`
	WordCount    int             `json:"word_count"`
	Overall      float64         `json:"overall_band_score"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MemoryStore 跨轮记忆端口
type MemoryStore interface {
	// LoadSnapshot 加载用户记忆，新用户返回零值快照
	LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error)
	// SaveTurn 持久化一轮结果：阶段 + 整组替换的历史，评估非空时一并追加
	SaveTurn(ctx context.Context, userID string, phase entity.ConversationPhase, history []model.HistoryEntry, eval *entity.Evaluation) error
	// ListEvaluations 按时间倒序列出历史评估
	ListEvaluations(ctx context.Context, userID string, limit int) ([]EvaluationSummary, error)
	// Clear 删除用户会话与历史，评估记录保留
	Clear(ctx context.Context, userID string) error
}

// Store 基于 Postgres 仓储 + Redis 快照缓存的记忆实现
type Store struct {
	convs       repository.ConversationRepository
	evals       repository.EvaluationRepository
	tx          repository.Transactor
	cache       *redis.Cache
	loadWindow  int
	snapshotTTL time.Duration
}

func NewStore(convs repository.ConversationRepository, evals repository.EvaluationRepository, tx repository.Transactor, cache *redis.Cache, loadWindow int, snapshotTTL time.Duration) *Store {
	if loadWindow <= 0 {
		loadWindow = 20
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 720 * time.Hour
	}
	return &Store{
		convs:       convs,
		evals:       evals,
		tx:          tx,
		cache:       cache,
		loadWindow:  loadWindow,
		snapshotTTL: snapshotTTL,
	}
}

func snapshotKey(userID string) string {
	return "conv:" + userID + ":snapshot"
}

func (s *Store) LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	raw, err := s.cache.GetOrLoadSafe(ctx, snapshotKey(userID), s.snapshotTTL, func() (interface{}, error) {
		return s.loadFromDB(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to decode conversation snapshot")
	}
	return &snap, nil
}

func (s *Store) loadFromDB(ctx context.Context, userID string) (*Snapshot, error) {
	snap := &Snapshot{Phase: entity.PhaseGreeting}

	conv, err := s.convs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		snap.ConversationID = conv.ID
		snap.Phase = conv.Phase

		msgs, err := s.convs.ListMessages(ctx, conv.ID, s.loadWindow)
		if err != nil {
			return nil, err
		}
		snap.History = make([]model.HistoryEntry, 0, len(msgs))
		for _, m := range msgs {
			snap.History = append(snap.History, model.HistoryEntry{
				Role:      m.Role,
				Content:   m.Content,
				Timestamp: m.Timestamp,
			})
		}
	}

	latest, err := s.evals.ListByUser(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 && len(latest[0].DetailedFeedback) > 0 {
		var fb model.EvaluationFeedback
		if uerr := json.Unmarshal(latest[0].DetailedFeedback, &fb); uerr == nil {
			snap.LastFeedback = &fb
		} else {
			logger.Warn(ctx, "stored evaluation feedback is not decodable, ignoring", "evaluation_id", latest[0].ID)
		}
	}
	return snap, nil
}

func (s *Store) SaveTurn(ctx context.Context, userID string, phase entity.ConversationPhase, history []model.HistoryEntry, eval *entity.Evaluation) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		conv, err := s.convs.Upsert(ctx, entity.NewConversation(userID, phase))
		if err != nil {
			return err
		}

		msgs := make([]*entity.Message, 0, len(history))
		for _, h := range history {
			msgs = append(msgs, entity.NewMessage(conv.ID, h.Role, h.Content, h.Timestamp))
		}
		if err := s.convs.ReplaceMessages(ctx, conv.ID, msgs); err != nil {
			return err
		}

		if eval != nil {
			if err := s.evals.Create(ctx, eval); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 快照失效，下一轮回源重建
	if derr := s.cache.Delete(ctx, snapshotKey(userID)); derr != nil {
		logger.Warn(ctx, "failed to invalidate conversation snapshot", "user_id", userID, "error", derr)
	}
	return nil
}

func (s *Store) ListEvaluations(ctx context.Context, userID string, limit int) ([]EvaluationSummary, error) {
	evals, err := s.evals.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]EvaluationSummary, 0, len(evals))
	for _, e := range evals {
		preview := e.EssayText
		if truncated := node.TruncateByRunes(preview, evaluationPreviewRunes); truncated != preview {
			preview = truncated + "..."
		}
		out = append(out, EvaluationSummary{
			ID:           e.ID,
			TaskType:     e.TaskType,
			EssayPreview: preview,
			WordCount:    e.WordCount,
			Overall:      e.OverallBandScore,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.convs.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if derr := s.cache.Delete(ctx, snapshotKey(userID)); derr != nil {
		logger.Warn(ctx, "failed to invalidate conversation snapshot", "user_id", userID, "error", derr)
	}
	return nil
}

// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ielts-tutor-api/internal/application/assessment"
	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/interfaces/http/dto"
	"ielts-tutor-api/pkg/logger"
)

const (
	// UserIDHeader 用户标识头，网关侧完成鉴权后注入
	UserIDHeader = "X-User-ID"

	maxUserIDLen          = 64
	defaultEvaluationPage = 20
	maxEvaluationPage     = 100
	// 8MB 解码后上限，足以容纳手机拍摄的作文照片
	maxImageBytes = 8 << 20
)

// ChatHandler 对话处理器
type ChatHandler struct {
	svc *assessment.Service
}

// NewChatHandler 创建对话处理器
func NewChatHandler(svc *assessment.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 处理一轮对话
// @Summary 对话轮次
// @Description 提交一条消息（可附带作文照片），返回本轮回复与可选的评估结果
// @Tags Chat
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户标识"
// @Param request body dto.ChatRequest true "对话请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" && req.ImageBase64 == "" {
		dto.BadRequest(c, "message or image is required")
		return
	}

	var image []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			dto.BadRequest(c, "image_base64 is not valid base64")
			return
		}
		if len(decoded) > maxImageBytes {
			dto.BadRequest(c, "image too large")
			return
		}
		image = decoded
	}

	var phaseOverride entity.ConversationPhase
	if req.Phase != "" {
		phaseOverride = entity.ConversationPhase(req.Phase)
		if !phaseOverride.Valid() {
			dto.BadRequest(c, "unknown phase: "+req.Phase)
			return
		}
	}

	res, err := h.svc.Chat(c.Request.Context(), assessment.ChatInput{
		UserID:        userID,
		Message:       req.Message,
		Image:         image,
		PhaseOverride: phaseOverride,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "chat turn failed", err, "user_id", userID)
		dto.FromError(c, err)
		return
	}

	dto.Success(c, dto.NewChatResponse(res))
}

// ListEvaluations 列出历史评估
// @Summary 历史评估
// @Description 按时间倒序返回用户的历史评估摘要
// @Tags Chat
// @Produce json
// @Param X-User-ID header string true "用户标识"
// @Param limit query int false "返回条数上限"
// @Success 200 {object} dto.Response[dto.EvaluationListResponse]
// @Router /v1/evaluations [get]
func (h *ChatHandler) ListEvaluations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := defaultEvaluationPage
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			dto.BadRequest(c, "limit must be a positive integer")
			return
		}
		if n > maxEvaluationPage {
			n = maxEvaluationPage
		}
		limit = n
	}

	items, err := h.svc.ListEvaluations(c.Request.Context(), userID, limit)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.Success(c, dto.NewEvaluationListResponse(items))
}

// ClearMemory 清除会话记忆
// @Summary 清除记忆
// @Description 删除用户的会话与历史，评估记录保留
// @Tags Chat
// @Produce json
// @Param X-User-ID header string true "用户标识"
// @Success 204
// @Router /v1/memory [delete]
func (h *ChatHandler) ClearMemory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.ClearMemory(c.Request.Context(), userID); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.NoContent(c)
}

func requireUserID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if userID == "" {
		dto.Unauthorized(c, "missing "+UserIDHeader+" header")
		return "", false
	}
	if len(userID) > maxUserIDLen {
		dto.BadRequest(c, "user id too long")
		return "", false
	}
	return userID, true
}

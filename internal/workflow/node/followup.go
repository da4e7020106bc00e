package node

import (
	"context"
	"encoding/json"
	"strings"

	"ielts-tutor-api/internal/domain/entity"
	"ielts-tutor-api/internal/workflow/model"
	"ielts-tutor-api/internal/workflow/port"
	"ielts-tutor-api/internal/workflow/prompt"
)

// FollowupHandler 追问阶段：带着最近一次评估反馈回答用户的疑问
type FollowupHandler struct {
	gw      port.InferenceGateway
	prompts *prompt.Registry
}

func NewFollowupHandler(gw port.InferenceGateway, prompts *prompt.Registry) *FollowupHandler {
	return &FollowupHandler{gw: gw, prompts: prompts}
}

func (h *FollowupHandler) Run(ctx context.Context, st *model.TurnState) error {
	feedback := "(no previous evaluation available)"
	if st.Feedback != nil {
		if raw, err := json.Marshal(st.Feedback); err == nil {
			feedback = string(raw)
		}
	}

	p, err := h.prompts.Render(ctx, prompt.PromptFollowupV1, map[string]any{
		"question": st.UserMessage,
		"feedback": feedback,
	})
	if err != nil {
		return err
	}

	resp, err := h.gw.Complete(ctx, p)
	if err != nil {
		return err
	}

	st.Reply = strings.TrimSpace(resp)
	st.ChargeCredit = false
	st.NextPhase = entity.PhaseDiscussingFeedback
	return nil
}

package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ielts-tutor-api/internal/config"
	"ielts-tutor-api/pkg/errors"
	"ielts-tutor-api/pkg/metrics"
)

var gatewayTracer = otel.Tracer("llm.gateway")

// Gateway 推理网关：prompt 进、文本出，单次调用，无流式无重试。
// 文本与视觉分别路由到配置的提供商。
type Gateway struct {
	factory     *EinoFactory
	provider    string
	visionProv  string
	callTimeout time.Duration
}

// NewGateway 创建推理网关。
// 提供商不可用属于构造期错误，运行期不再做可用性判断。
func NewGateway(ctx context.Context, factory *EinoFactory, cfg *config.LLMConfig) (*Gateway, error) {
	if factory == nil {
		return nil, fmt.Errorf("llm factory is nil")
	}
	if _, err := factory.Get(ctx, cfg.DefaultProvider); err != nil {
		return nil, fmt.Errorf("text provider unavailable: %w", err)
	}
	if _, err := factory.Get(ctx, cfg.VisionProvider); err != nil {
		return nil, fmt.Errorf("vision provider unavailable: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Gateway{
		factory:     factory,
		provider:    cfg.DefaultProvider,
		visionProv:  cfg.VisionProvider,
		callTimeout: timeout,
	}, nil
}

// Complete 文本推理调用
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := gatewayTracer.Start(ctx, "gateway.Complete",
		trace.WithAttributes(attribute.Int("prompt.len", len(prompt))))
	defer span.End()

	return g.generate(ctx, "text", g.provider, []*schema.Message{
		schema.UserMessage(prompt),
	})
}

// CompleteWithImage 视觉推理调用，图像以 data URI 形式内联
func (g *Gateway) CompleteWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	ctx, span := gatewayTracer.Start(ctx, "gateway.CompleteWithImage",
		trace.WithAttributes(
			attribute.Int("prompt.len", len(prompt)),
			attribute.Int("image.bytes", len(image)),
		))
	defer span.End()

	msg := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    imageDataURI(image),
					Detail: schema.ImageURLDetailAuto,
				},
			},
		},
	}

	return g.generate(ctx, "vision", g.visionProv, []*schema.Message{msg})
}

func (g *Gateway) generate(ctx context.Context, kind, provider string, msgs []*schema.Message) (string, error) {
	chatModel, err := g.factory.Get(ctx, provider)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(kind, "error").Inc()
		return "", errors.Wrap(err, errors.CodeLLMProviderError, "chat model unavailable")
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	out, err := chatModel.Generate(callCtx, msgs)
	metrics.LLMCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(kind, "error").Inc()
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "inference call failed")
	}

	metrics.LLMCallsTotal.WithLabelValues(kind, "ok").Inc()
	return out.Content, nil
}

// imageDataURI 将原始图像字节编码为 data URI
func imageDataURI(image []byte) string {
	mime := http.DetectContentType(image)
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))
}

// Package port 定义工作流对外依赖的端口接口
package port

import "context"

// InferenceGateway 推理网关端口：prompt 进、文本出。
// 由宿主应用构造并注入，工作流内部不关心底层模型。
type InferenceGateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithImage(ctx context.Context, prompt string, image []byte) (string, error)
}

package node

import "context"

// mockGateway 可编程的推理网关替身
type mockGateway struct {
	completeFn  func(ctx context.Context, prompt string) (string, error)
	withImageFn func(ctx context.Context, prompt string, image []byte) (string, error)

	completeCalls  int
	withImageCalls int
	lastPrompt     string
}

func (m *mockGateway) Complete(ctx context.Context, prompt string) (string, error) {
	m.completeCalls++
	m.lastPrompt = prompt
	if m.completeFn == nil {
		return "", nil
	}
	return m.completeFn(ctx, prompt)
}

func (m *mockGateway) CompleteWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	m.withImageCalls++
	m.lastPrompt = prompt
	if m.withImageFn == nil {
		return "", nil
	}
	return m.withImageFn(ctx, prompt, image)
}

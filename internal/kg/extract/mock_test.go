package extract

import (
	"context"
)

type MockLLM struct {
	Response      string
	ResponseQueue []string
	Prompts       []string
	Err           error
}

func (m *MockLLM) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

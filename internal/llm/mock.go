package llm

import (
	"context"
	"sync"
)

// MockBackend permite tests sin llamar a un modelo real.
type MockBackend struct {
	Response string
	Err      error

	mu    sync.Mutex
	calls [][]string
}

func (m *MockBackend) Complete(_ context.Context, _ string, userMessages []string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), userMessages...))
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls devuelve los historiales recibidos en cada invocacion.
func (m *MockBackend) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

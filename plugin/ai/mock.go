package ai

import (
	"context"
	"sync"
)

// MockCompletionService is a scriptable CompletionService for tests.
// Responses are returned in order; once exhausted, the last one repeats.
// Set Err to make every call fail, or Handler for per-request behavior.
type MockCompletionService struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Handler   func(req CompletionRequest) (string, error)
	NotReady  bool

	// Requests records every call for assertions.
	Requests []CompletionRequest

	next int
}

// NewMockCompletionService creates a mock that always returns response.
func NewMockCompletionService(responses ...string) *MockCompletionService {
	return &MockCompletionService{Responses: responses}
}

func (m *MockCompletionService) Ready() bool {
	return !m.NotReady
}

func (m *MockCompletionService) Complete(_ context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if m.Handler != nil {
		return m.Handler(req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[min(m.next, len(m.Responses)-1)]
	m.next++
	return resp, nil
}

// CallCount returns how many completions have been requested.
func (m *MockCompletionService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

var _ CompletionService = (*MockCompletionService)(nil)

package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for Client.
type MockClient struct {
	mu      sync.Mutex
	Result  string
	Err     error
	Prompts []string
}

// NewMockClient creates a MockClient with a canned response.
func NewMockClient(result string) *MockClient {
	return &MockClient{Result: result}
}

func (m *MockClient) Complete(_ context.Context, prompt string) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	return &Completion{Content: m.Result}, nil
}

// Calls returns the number of completion calls made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// Verify MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)

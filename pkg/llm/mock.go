package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockCompleter is a mock implementation of Completer for testing
type MockCompleter struct {
	mu sync.Mutex

	// Configurable response
	CompleteFunc func(ctx context.Context, req Request) (string, error)

	// Call tracking
	Calls []Request
}

// NewMockCompleter creates a mock that answers every request with response
func NewMockCompleter(response string) *MockCompleter {
	return &MockCompleter{
		CompleteFunc: func(ctx context.Context, req Request) (string, error) {
			return response, nil
		},
	}
}

// Complete implements Completer
func (m *MockCompleter) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn == nil {
		return "", ErrMockNoResponse
	}
	return fn(ctx, req)
}

// CallCount returns the number of Complete calls so far
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Reset clears all call tracking
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// SetError configures the mock to return an error for every request
func (m *MockCompleter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, req Request) (string, error) {
		return "", err
	}
}

// Verify mock implements interface
var _ Completer = (*MockCompleter)(nil)

// Helper for common test errors
var (
	ErrMockNoResponse = fmt.Errorf("mock: no response configured")
	ErrMockServerDown = fmt.Errorf("mock: server unreachable")
	ErrMockTimeout    = fmt.Errorf("mock: request timeout")
)

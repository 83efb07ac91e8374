package narrative

import (
	"context"
	"sync"
)

// MockGenerator is a Generator for tests.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req Request) (string, error)

	// Track calls for testing
	GenerateCalls []Request

	mu sync.Mutex // protects all fields above
}

var _ Generator = (*MockGenerator)(nil)

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{GenerateCalls: make([]Request, 0)}
}

// Generate records the call and delegates to GenerateFunc. Without one it
// returns a short text naming the kind.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, req)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return "Mock " + string(req.Kind), nil
}

// CallCount returns the number of Generate calls so far.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}

// Reset clears all recorded calls.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateCalls = make([]Request, 0)
}

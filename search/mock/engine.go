package mock

import (
	"context"
	"sync"

	"github.com/poiesic/originality/search"
)

// Response is one scripted engine answer.
type Response struct {
	Count int
	Err   error
}

// MockEngine is a test double for search.Engine.
//
// Calls consume Responses in order; once they run out, the last response
// repeats. With no responses every search returns zero results.
type MockEngine struct {
	// SearchFunc is called by Search if set, bypassing Responses.
	SearchFunc func(ctx context.Context, query string, limit int) (int, error)

	Responses []Response

	mu      sync.Mutex
	queries []string
	limits  []int
}

var _ search.Engine = (*MockEngine)(nil)

// NewMockEngine creates an engine that plays back responses.
func NewMockEngine(responses ...Response) *MockEngine {
	return &MockEngine{Responses: responses}
}

// Found returns an engine that always reports results.
func Found() *MockEngine {
	return NewMockEngine(Response{Count: 3})
}

// NotFound returns an engine that always reports zero results.
func NotFound() *MockEngine {
	return NewMockEngine(Response{Count: 0})
}

// Failing returns an engine whose every search fails with err.
func Failing(err error) *MockEngine {
	return NewMockEngine(Response{Err: err})
}

// Search records the call and returns the next scripted response.
func (m *MockEngine) Search(ctx context.Context, query string, limit int) (int, error) {
	m.mu.Lock()
	call := len(m.queries)
	m.queries = append(m.queries, query)
	m.limits = append(m.limits, limit)
	fn := m.SearchFunc
	var resp Response
	if len(m.Responses) > 0 {
		resp = m.Responses[min(call, len(m.Responses)-1)]
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, limit)
	}
	return resp.Count, resp.Err
}

// Name returns "mock".
func (m *MockEngine) Name() string {
	return "mock"
}

// CallCount returns the number of searches made.
func (m *MockEngine) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Queries returns the queries received, in order.
func (m *MockEngine) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Limits returns the result limits received, in order.
func (m *MockEngine) Limits() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.limits...)
}

// Reset clears recorded calls.
func (m *MockEngine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
	m.limits = nil
}

// pkg/llmclient/stub.go
package llmclient

import (
	"context"
	"sync"
)

// StubClient replays canned responses. It backs offline runs and tests;
// when the queue is exhausted it keeps returning the last response.
type StubClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

// NewStubClient returns a stub that cycles through the given responses.
// With no responses configured it answers with a wait action, which
// keeps a control loop harmlessly idling.
func NewStubClient(responses ...string) *StubClient {
	if len(responses) == 0 {
		responses = []string{`{"type":"wait","value":"1000","description":"stub planner idling"}`}
	}
	return &StubClient{responses: responses}
}

// Generate returns the next canned response.
func (s *StubClient) Generate(ctx context.Context, _ GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i], nil
}

// Calls reports how many generations were requested.
func (s *StubClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

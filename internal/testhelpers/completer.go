package testhelpers

import (
	"context"
	"sync"

	"github.com/myrjola/blackwood/internal/ai"
)

// CompleterFunc adapts a function to the [ai.Completer] interface.
type CompleterFunc func(ctx context.Context, req ai.Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req ai.Request) (string, error) {
	return f(ctx, req)
}

// ScriptedCompleter replays canned replies in order and records every request
// it receives. When the script runs out, the last reply repeats. Tests can set
// Err to simulate an unavailable backend.
type ScriptedCompleter struct {
	mu       sync.Mutex
	replies  []string
	next     int
	requests []ai.Request

	// Err, when non-nil, is returned from every Complete call.
	Err error
}

func NewScriptedCompleter(replies ...string) *ScriptedCompleter {
	return &ScriptedCompleter{replies: replies}
}

func (s *ScriptedCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[min(s.next, len(s.replies)-1)]
	s.next++
	return reply, nil
}

// Requests returns a copy of the requests seen so far.
func (s *ScriptedCompleter) Requests() []ai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := make([]ai.Request, len(s.requests))
	copy(requests, s.requests)
	return requests
}

// Calls returns how many requests completed successfully.
func (s *ScriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

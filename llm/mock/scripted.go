package mock

import (
	"context"
	"sync"

	"github.com/snow-ghost/rubric/core"
)

// Static returns the same raw response to every call
func Static(raw string) core.Generator {
	return core.GenerateFunc(func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return raw, nil
	})
}

// Failing returns err from every call
func Failing(err error) core.Generator {
	return core.GenerateFunc(func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return "", err
	})
}

// Sequence replays responses in call order and repeats the last one
type Sequence struct {
	mu        sync.Mutex
	responses []string
	next      int
}

// NewSequence creates a replaying generator
func NewSequence(responses ...string) *Sequence {
	return &Sequence{responses: responses}
}

// Generate implements core.Generator
func (s *Sequence) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.responses) == 0 {
		return "", nil
	}
	i := s.next
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.next++
	return s.responses[i], nil
}

// Calls returns the number of calls served
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

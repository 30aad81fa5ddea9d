package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned once every scripted reply was consumed
var ErrScriptExhausted = errors.New("llm script exhausted")

// Scripted replays queued replies in order and records requests
type Scripted struct {
	mu       sync.Mutex
	replies  []string
	requests []*Request
}

// NewScripted creates a scripted model
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

// Name returns "scripted"
func (s *Scripted) Name() string { return "scripted" }

// Generate returns the next reply
func (s *Scripted) Generate(ctx context.Context, request *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, request)
	if len(s.replies) == 0 {
		return nil, ErrScriptExhausted
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return &Response{
		Text:         reply,
		PromptTokens: estimateTokens(request.System, request.Prompt),
		OutputTokens: estimateTokens(reply),
	}, nil
}

// Requests returns the recorded requests
func (s *Scripted) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

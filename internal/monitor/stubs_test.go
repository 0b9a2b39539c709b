package monitor

import (
	"context"
	"sync"
)

type stubSession struct {
	mu           sync.Mutex
	subscribeErr error
	activeErr    error
	hangupErrs   map[string]error
	calls        []ActiveCall

	subscribed []string
	hungUp     []string
}

func (s *stubSession) Subscribe(ctx context.Context, eventPackage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribeErr != nil {
		return s.subscribeErr
	}
	s.subscribed = append(s.subscribed, eventPackage)
	return nil
}

func (s *stubSession) ActiveCalls(ctx context.Context) ([]ActiveCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	out := make([]ActiveCall, len(s.calls))
	copy(out, s.calls)
	return out, nil
}

func (s *stubSession) Hangup(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hangupErrs[callID]; err != nil {
		return err
	}
	s.hungUp = append(s.hungUp, callID)
	return nil
}

func (s *stubSession) hangups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.hungUp))
	copy(out, s.hungUp)
	return out
}

type stubRoster struct {
	people []Person
	err    error
}

func (r stubRoster) People(ctx context.Context) ([]Person, error) {
	return r.people, r.err
}

type stubOracle struct {
	mu        sync.Mutex
	permitted map[string]bool
	lookups   []string
}

func (o *stubOracle) IsPermitted(ctx context.Context, accountID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups = append(o.lookups, accountID)
	return o.permitted[accountID]
}

func (o *stubOracle) lookupCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lookups)
}

type stubSource struct {
	ch      chan RawEvent
	openErr error
	subErr  error
}

func (s *stubSource) Open(ctx context.Context) (<-chan RawEvent, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.ch, nil
}

func (s *stubSource) Subscribe(ctx context.Context, eventPackage string) error {
	return s.subErr
}

package oauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"callgate/internal/config"
)

type memStates struct {
	mu     sync.Mutex
	states map[string]bool
}

func newMemStates() *memStates { return &memStates{states: map[string]bool{}} }

func (m *memStates) Save(ctx context.Context, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = true
	return nil
}

func (m *memStates) Consume(ctx context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.states[state] {
		return false, nil
	}
	delete(m.states, state)
	return true, nil
}

func testFlow(states StateStore) *Flow {
	return NewFlow(config.OAuthConfig{
		ClientID:     "cid",
		ClientSecret: "cs",
		Scopes:       []string{"spark:all"},
		AuthorizeURL: "https://auth.example.com/authorize",
		TokenURL:     "https://auth.example.com/token",
	}, "https://callgate.example.com/admin/callback", states)
}

func TestAuthURL_CarriesSavedState(t *testing.T) {
	states := newMemStates()
	f := testFlow(states)

	url, err := f.AuthURL(context.Background())
	if err != nil {
		t.Fatalf("auth url: %v", err)
	}
	if !strings.HasPrefix(url, "https://auth.example.com/authorize?") {
		t.Fatalf("unexpected url: %q", url)
	}
	if !strings.Contains(url, "state=") {
		t.Fatalf("expected state parameter in %q", url)
	}
	if len(states.states) != 1 {
		t.Fatalf("expected one saved state, got %d", len(states.states))
	}
}

func TestExchange_RejectsUnknownState(t *testing.T) {
	f := testFlow(newMemStates())

	_, err := f.Exchange(context.Background(), "never-saved", "code")
	if !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch, got %v", err)
	}
}

func TestExchange_RejectsMissingInput(t *testing.T) {
	f := testFlow(newMemStates())
	if _, err := f.Exchange(context.Background(), "", "code"); err == nil {
		t.Fatalf("expected error for empty state")
	}
	if _, err := f.Exchange(context.Background(), "s", ""); err == nil {
		t.Fatalf("expected error for empty code")
	}
}

func TestRefresh_RequiresToken(t *testing.T) {
	f := testFlow(newMemStates())
	if _, err := f.Refresh(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty refresh token")
	}
}

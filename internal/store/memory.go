package store

import (
	"context"
	"sync"
)

// Memory is an in-memory implementation of the store surface, useful for
// tests. It is not intended for production use.
type Memory struct {
	mu         sync.Mutex
	adminToken *AdminToken
	sessions   map[string]string // session_token -> user_id
	allow      map[string]bool
	samples    map[string]LocationSample
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]string),
		allow:    make(map[string]bool),
		samples:  make(map[string]LocationSample),
	}
}

func (m *Memory) SaveAdminToken(ctx context.Context, t AdminToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminToken = &t
	return nil
}

func (m *Memory) GetAdminToken(ctx context.Context) (AdminToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adminToken == nil {
		return AdminToken{}, ErrNotFound
	}
	return *m.adminToken, nil
}

func (m *Memory) DeleteAdminToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminToken = nil
	return nil
}

func (m *Memory) UpsertUserSession(ctx context.Context, userID, sessionToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Drop any previous token for the same user.
	for tok, uid := range m.sessions {
		if uid == userID {
			delete(m.sessions, tok)
		}
	}
	m.sessions[sessionToken] = userID
	return nil
}

func (m *Memory) GetUserSessionByToken(ctx context.Context, sessionToken string) (UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.sessions[sessionToken]
	if !ok {
		return UserSession{}, ErrNotFound
	}
	return UserSession{UserID: uid, SessionToken: sessionToken}, nil
}

func (m *Memory) UpsertAllowListEntry(ctx context.Context, userID string, allowCaller bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allow[userID] = allowCaller
	return nil
}

func (m *Memory) GetPermission(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allow[userID], nil
}

func (m *Memory) DeleteExpiredAllowListEntries(ctx context.Context, cutoff int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for uid := range m.allow {
		sample, ok := m.samples[uid]
		if !ok || sample.LastUpdate < cutoff {
			delete(m.allow, uid)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) RecordLocationSample(ctx context.Context, sample LocationSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[sample.UserID] = sample
	return nil
}

func (m *Memory) GetLatestSample(ctx context.Context, userID string) (LocationSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sample, ok := m.samples[userID]
	if !ok {
		return LocationSample{}, ErrNotFound
	}
	return sample, nil
}

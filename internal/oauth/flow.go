package oauth

import (
	"context"
	"errors"
	"fmt"

	"callgate/internal/config"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var ErrStateMismatch = errors.New("oauth: unknown or replayed state")

// StateStore tracks one-time OAuth state nonces across the redirect
// round-trip. Consume must invalidate the state so it cannot be replayed.
type StateStore interface {
	Save(ctx context.Context, state string) error
	Consume(ctx context.Context, state string) (bool, error)
}

// Flow drives one authorization-code flow (admin or user; they differ
// only in redirect URI).
type Flow struct {
	cfg    *oauth2.Config
	states StateStore
}

func NewFlow(cfg config.OAuthConfig, redirectURI string, states StateStore) *Flow {
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			RedirectURL:  redirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		states: states,
	}
}

// AuthURL mints a state nonce and returns the provider authorization URL
// to redirect the browser to.
func (f *Flow) AuthURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := f.states.Save(ctx, state); err != nil {
		return "", fmt.Errorf("oauth: save state: %w", err)
	}
	return f.cfg.AuthCodeURL(state), nil
}

// Exchange validates the callback state and trades the code for a token.
func (f *Flow) Exchange(ctx context.Context, state, code string) (*oauth2.Token, error) {
	if state == "" || code == "" {
		return nil, errors.New("oauth: state and code required")
	}
	ok, err := f.states.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("oauth: consume state: %w", err)
	}
	if !ok {
		return nil, ErrStateMismatch
	}
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth: exchange: %w", err)
	}
	return tok, nil
}

// Refresh obtains a fresh token using a stored refresh token.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("oauth: refresh token required")
	}
	src := f.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("oauth: refresh: %w", err)
	}
	return tok, nil
}

// RefreshLifespan extracts the refresh-token lifespan (seconds) the
// platform reports alongside the token, if any.
func RefreshLifespan(tok *oauth2.Token) int64 {
	switch v := tok.Extra("refresh_token_expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

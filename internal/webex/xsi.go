package webex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"callgate/internal/config"
	"callgate/internal/monitor"
)

// XSI is the call-control (actions) and notification (events) client for
// the organization's XSI endpoints. All requests carry the admin access
// token; per-user operations are addressed by XSI user id.
type XSI struct {
	actionsURL string
	eventsURL  string
	token      string
	httpc      *http.Client
	log        *slog.Logger
}

func NewXSI(cfg config.WebexConfig, accessToken string, log *slog.Logger) *XSI {
	if log == nil {
		log = slog.Default()
	}
	return &XSI{
		actionsURL: cfg.XSIActionsURL,
		eventsURL:  cfg.XSIEventsURL,
		token:      accessToken,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// Profile resolves a platform person to their XSI user identity.
func (x *XSI) Profile(ctx context.Context, personID string) (string, error) {
	var out struct {
		Profile struct {
			UserID string `json:"userId"`
		} `json:"profile"`
	}
	path := fmt.Sprintf("%s/v2.0/user/%s/profile", x.actionsURL, url.PathEscape(personID))
	if err := x.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if out.Profile.UserID == "" {
		return "", fmt.Errorf("webex: profile for %s carries no user id", personID)
	}
	return out.Profile.UserID, nil
}

// Session returns the per-user call-control handle used by the monitor.
func (x *XSI) Session(xsiUserID string) monitor.Session {
	return &xsiSession{x: x, userID: xsiUserID}
}

type xsiSession struct {
	x      *XSI
	userID string
}

func (s *xsiSession) Subscribe(ctx context.Context, eventPackage string) error {
	path := fmt.Sprintf("%s/v2.0/user/%s/subscription", s.x.eventsURL, url.PathEscape(s.userID))
	body := map[string]string{"event-package": eventPackage}
	return s.x.do(ctx, http.MethodPost, path, body, nil)
}

func (s *xsiSession) ActiveCalls(ctx context.Context) ([]monitor.ActiveCall, error) {
	var out struct {
		Calls []monitor.ActiveCall `json:"calls"`
	}
	path := fmt.Sprintf("%s/v2.0/user/%s/calls", s.x.actionsURL, url.PathEscape(s.userID))
	if err := s.x.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Calls, nil
}

func (s *xsiSession) Hangup(ctx context.Context, callID string) error {
	path := fmt.Sprintf("%s/v2.0/user/%s/calls/%s",
		s.x.actionsURL, url.PathEscape(s.userID), url.PathEscape(callID))
	return s.x.do(ctx, http.MethodDelete, path, nil, nil)
}

func (x *XSI) do(ctx context.Context, method, fullURL string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+x.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("webex xsi: %s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webex xsi: %s %s: status %d: %s", method, fullURL, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

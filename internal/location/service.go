package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callgate/internal/store"
)

var (
	ErrInvalidSession = errors.New("location: invalid session token")
	ErrOutOfBounds    = errors.New("location: coordinates outside permitted region")
	ErrInvalidReport  = errors.New("location: invalid report")
)

// SessionStore resolves a user session token to its owner.
type SessionStore interface {
	GetUserSessionByToken(ctx context.Context, sessionToken string) (store.UserSession, error)
}

// AllowListStore manages the per-user conversing permission flag.
type AllowListStore interface {
	UpsertAllowListEntry(ctx context.Context, userID string, allowCaller bool) error
	GetPermission(ctx context.Context, userID string) (bool, error)
}

// Report is one GPS update from a user's browser.
type Report struct {
	SessionToken string  `json:"sessionToken"`
	Time         string  `json:"time"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Result describes the outcome of an accepted report.
type Result struct {
	UserID   string
	Enrolled bool // true when this report added the user to the allow list
}

// Service ingests location reports: it authenticates the session token,
// enforces the geofence, enrolls first-time in-bounds users onto the
// allow list, and records the sample.
type Service struct {
	sessions SessionStore
	allow    AllowListStore
	samples  store.SampleSource
	bounds   Bounds
	clock    func() time.Time
	log      *slog.Logger
}

func NewService(sessions SessionStore, allow AllowListStore, samples store.SampleSource, bounds Bounds, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		sessions: sessions,
		allow:    allow,
		samples:  samples,
		bounds:   bounds,
		clock:    time.Now,
		log:      log,
	}
}

// Update validates and stores one location report.
func (s *Service) Update(ctx context.Context, rep Report) (Result, error) {
	if rep.SessionToken == "" {
		return Result{}, ErrInvalidReport
	}

	sess, err := s.sessions.GetUserSessionByToken(ctx, rep.SessionToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrInvalidSession
		}
		return Result{}, fmt.Errorf("location: session lookup: %w", err)
	}

	if !s.bounds.Contains(rep.Latitude, rep.Longitude) {
		s.log.Warn("location report outside permitted region", "user_id", sess.UserID)
		return Result{}, ErrOutOfBounds
	}

	res := Result{UserID: sess.UserID}
	allowed, err := s.allow.GetPermission(ctx, sess.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("location: allow list lookup: %w", err)
	}
	if !allowed {
		// First in-bounds report enrolls the user.
		if err := s.allow.UpsertAllowListEntry(ctx, sess.UserID, true); err != nil {
			return Result{}, fmt.Errorf("location: allow list enroll: %w", err)
		}
		s.log.Info("user enrolled on allow list", "user_id", sess.UserID)
		res.Enrolled = true
	}

	sample := store.LocationSample{
		UserID:       sess.UserID,
		SessionToken: rep.SessionToken,
		Time:         rep.Time,
		Latitude:     rep.Latitude,
		Longitude:    rep.Longitude,
		LastUpdate:   s.clock().UTC().Unix(),
	}
	if err := s.samples.RecordLocationSample(ctx, sample); err != nil {
		return Result{}, fmt.Errorf("location: record sample: %w", err)
	}
	return res, nil
}

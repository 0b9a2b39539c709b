package audit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to end users.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogAdminLogin records a completed admin authorization.
func (s *Service) LogAdminLogin(ctx context.Context, actorUserID, ip string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAdminLogin,
		ActorUserID: actorUserID,
		IPAddress:   ip,
		Message:     "admin authorized",
	})
}

// LogTokenRefresh records an admin access token refresh.
func (s *Service) LogTokenRefresh(ctx context.Context, actorUserID, ip string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeTokenRefresh,
		ActorUserID: actorUserID,
		IPAddress:   ip,
		Message:     "admin token refreshed",
	})
}

// LogMonitorStart records the start of a call-monitoring session.
func (s *Service) LogMonitorStart(ctx context.Context, actorUserID, ip string, monitored int) error {
	return s.Append(ctx, Event{
		Type:        EventTypeMonitorStart,
		ActorUserID: actorUserID,
		IPAddress:   ip,
		Message:     "call monitoring started",
		Metadata:    `{"monitored_users":` + strconv.Itoa(monitored) + `}`,
	})
}

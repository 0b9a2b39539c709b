package monitor

import (
	"context"
	"fmt"
	"log/slog"
)

// NoNumberSentinel is stored when a roster member has no phone number.
const NoNumberSentinel = "no number available"

// EventPackageAdvancedCall is the platform event category carrying call
// lifecycle notifications.
const EventPackageAdvancedCall = "Advanced Call"

// Session is the per-user platform handle used to activate that user's
// event feed and to control their active calls.
type Session interface {
	Subscribe(ctx context.Context, eventPackage string) error
	ActiveCalls(ctx context.Context) ([]ActiveCall, error)
	Hangup(ctx context.Context, callID string) error
}

// ActiveCall is one in-progress call on a user's session.
type ActiveCall struct {
	ID string `json:"callId"`
}

// Person is one roster member as reported by the directory source.
type Person struct {
	XSIUserID   string
	AccountID   string
	DisplayName string
	PhoneNumber string
	Extension   string
	Session     Session
}

// Roster enumerates the organization's monitored members.
type Roster interface {
	People(ctx context.Context) ([]Person, error)
}

// DirectoryEntry is one monitored user, keyed by their platform-internal
// call identity. Entries are immutable for the lifetime of a monitoring
// session.
type DirectoryEntry struct {
	XSIUserID   string
	AccountID   string
	DisplayName string
	PhoneNumber string
	Extension   string

	Session Session
}

// Snapshot maps internal call identity to directory entry. It is built
// once at monitor start and read-only thereafter, so the ingestion loop
// reads it without locking.
type Snapshot map[string]DirectoryEntry

// Resolve returns the entry for an internal call identity.
// An empty id never resolves.
func (s Snapshot) Resolve(xsiUserID string) (DirectoryEntry, bool) {
	if xsiUserID == "" {
		return DirectoryEntry{}, false
	}
	e, ok := s[xsiUserID]
	return e, ok
}

// BuildSnapshot fetches the roster and activates each member's call-event
// subscription. An unreachable roster is fatal; a member whose activation
// fails is logged and skipped so one bad account cannot block monitoring
// for the rest of the organization.
func BuildSnapshot(ctx context.Context, roster Roster, log *slog.Logger) (Snapshot, error) {
	if log == nil {
		log = slog.Default()
	}

	people, err := roster.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("monitor: directory build: %w", err)
	}

	snap := make(Snapshot, len(people))
	for _, p := range people {
		if p.XSIUserID == "" {
			log.Warn("roster member missing call identity, skipping", "account_id", p.AccountID)
			continue
		}
		if p.Session == nil {
			log.Warn("roster member missing session handle, skipping", "xsi_user_id", p.XSIUserID)
			continue
		}
		if err := p.Session.Subscribe(ctx, EventPackageAdvancedCall); err != nil {
			log.Warn("event activation failed, skipping member",
				"xsi_user_id", p.XSIUserID, "account_id", p.AccountID, "err", err)
			continue
		}

		phone := p.PhoneNumber
		if phone == "" {
			phone = NoNumberSentinel
		}
		snap[p.XSIUserID] = DirectoryEntry{
			XSIUserID:   p.XSIUserID,
			AccountID:   p.AccountID,
			DisplayName: p.DisplayName,
			PhoneNumber: phone,
			Extension:   p.Extension,
			Session:     p.Session,
		}
	}

	log.Info("directory snapshot built", "members", len(snap), "roster_size", len(people))
	return snap, nil
}

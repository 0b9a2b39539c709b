package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnknownUser is returned when a terminate verdict names an identity
// that is not in the directory snapshot.
var ErrUnknownUser = errors.New("monitor: no session for user")

// Actuator executes terminate verdicts through the user's platform
// session handle.
//
// Termination is best-effort: the call may already have ended naturally,
// and one failing hangup must not prevent attempting the others.
type Actuator struct {
	log *slog.Logger
}

func NewActuator(log *slog.Logger) *Actuator {
	if log == nil {
		log = slog.Default()
	}
	return &Actuator{log: log}
}

// Terminate ends all active calls on the identified user's session.
// Per-call failures are collected and returned as one aggregate error;
// the caller treats any error as a log entry, never a loop failure.
func (a *Actuator) Terminate(ctx context.Context, snap Snapshot, xsiUserID, callID string) error {
	entry, ok := snap.Resolve(xsiUserID)
	if !ok || entry.Session == nil {
		return fmt.Errorf("%w: %s", ErrUnknownUser, xsiUserID)
	}

	calls, err := entry.Session.ActiveCalls(ctx)
	if err != nil {
		return fmt.Errorf("monitor: list active calls for %s: %w", xsiUserID, err)
	}
	if len(calls) == 0 {
		a.log.Info("no active calls to terminate", "xsi_user_id", xsiUserID, "call_id", callID)
		return nil
	}

	var failures []error
	for _, call := range calls {
		if err := entry.Session.Hangup(ctx, call.ID); err != nil {
			a.log.Warn("hangup failed", "xsi_user_id", xsiUserID, "call_id", call.ID, "err", err)
			failures = append(failures, fmt.Errorf("hangup %s: %w", call.ID, err))
			continue
		}
		a.log.Info("call terminated", "xsi_user_id", xsiUserID, "call_id", call.ID)
	}
	return errors.Join(failures...)
}

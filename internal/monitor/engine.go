package monitor

import (
	"context"
	"log/slog"
)

// PermissionOracle answers whether an account is currently authorized to
// converse. Implementations must fail closed: any lookup problem is
// reported as not-permitted, never as an error.
type PermissionOracle interface {
	IsPermitted(ctx context.Context, accountID string) bool
}

// Action is the engine's output at the call-control boundary.
type Action string

const (
	// ActionNone means the event produced no verdict (not actionable,
	// or no evaluable party).
	ActionNone      Action = "none"
	ActionAllow     Action = "allow"
	ActionTerminate Action = "terminate"
)

// Verdict is the ephemeral output of one admission decision. A terminate
// verdict carries enough identity for the actuator to end exactly the
// affected user's call.
type Verdict struct {
	Action Action
	Reason string

	// Set on terminate verdicts.
	XSIUserID string
	AccountID string
	CallID    string
}

// Engine decides whether an in-progress call may continue.
//
// Policy:
//   - internal-to-internal traffic is always allowed; the geofence protects
//     against external parties calling in or out, not colleagues talking.
//   - a call with exactly one internal leg is allowed only while that
//     user's latest location report is fresh and in bounds.
//   - a call with no internal leg is out of scope.
//
// The engine performs no side effects; executing a terminate verdict is
// the actuator's job.
type Engine struct {
	oracle PermissionOracle
	log    *slog.Logger
}

func NewEngine(oracle PermissionOracle, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{oracle: oracle, log: log}
}

// Decide evaluates one normalized event against the directory snapshot.
func (e *Engine) Decide(ctx context.Context, ev Event, snap Snapshot) Verdict {
	if !ev.Actionable() {
		return Verdict{Action: ActionNone, Reason: "not_actionable"}
	}

	caller, callerInternal := snap.Resolve(ev.CallerID)
	target, targetInternal := snap.Resolve(ev.TargetID)

	switch {
	case callerInternal && targetInternal:
		// Both parties internal: no location check.
		e.log.Info("internal call allowed",
			"call_id", ev.CallID, "caller", caller.XSIUserID, "target", target.XSIUserID)
		return Verdict{Action: ActionAllow, Reason: "internal_to_internal"}

	case callerInternal || targetInternal:
		internal := target
		if !targetInternal {
			internal = caller
		}
		return e.decideExternalLeg(ctx, ev, internal)

	default:
		// Fully external call; nothing to evaluate. The platform would
		// not normally deliver this, so keep a diagnostic trail.
		e.log.Debug("event with no internal party ignored",
			"call_id", ev.CallID, "kind", ev.Kind)
		return Verdict{Action: ActionNone, Reason: "no_internal_party"}
	}
}

func (e *Engine) decideExternalLeg(ctx context.Context, ev Event, internal DirectoryEntry) Verdict {
	direction := "inbound"
	if ev.Kind == KindOriginated {
		direction = "outbound"
	}

	if e.oracle.IsPermitted(ctx, internal.AccountID) {
		e.log.Info("external call allowed",
			"call_id", ev.CallID, "direction", direction, "account_id", internal.AccountID)
		return Verdict{Action: ActionAllow, Reason: "geofence_permitted"}
	}

	e.log.Info("external call blocked",
		"call_id", ev.CallID, "direction", direction, "account_id", internal.AccountID)
	return Verdict{
		Action:    ActionTerminate,
		Reason:    "geofence",
		XSIUserID: internal.XSIUserID,
		AccountID: internal.AccountID,
		CallID:    ev.CallID,
	}
}

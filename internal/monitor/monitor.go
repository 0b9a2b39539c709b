package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventSource is the organization-wide notification channel.
// Open establishes the channel; Subscribe requests delivery of one event
// package on it. The returned channel is closed when the source shuts
// down.
type EventSource interface {
	Open(ctx context.Context) (<-chan RawEvent, error)
	Subscribe(ctx context.Context, eventPackage string) error
}

// defaultPace smooths event bursts. It is pacing only, not a correctness
// requirement.
const defaultPace = 500 * time.Millisecond

// Monitor runs the call-admission pipeline: it builds the directory
// snapshot, subscribes to call events, and drives classify -> decide ->
// terminate on a single background consumer.
//
// Events are processed strictly in arrival order, one at a time. All
// per-event state lives inside one iteration, so duplicate or reordered
// call IDs from the platform cannot corrupt anything.
type Monitor struct {
	roster   Roster
	events   EventSource
	engine   *Engine
	actuator *Actuator
	log      *slog.Logger
	pace     time.Duration

	// snap is assigned once in Start, before the consumer goroutine is
	// spawned, and never written again.
	snap Snapshot
}

func New(roster Roster, events EventSource, oracle PermissionOracle, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		roster:   roster,
		events:   events,
		engine:   NewEngine(oracle, log),
		actuator: NewActuator(log),
		log:      log,
		pace:     defaultPace,
	}
}

// Start builds the directory snapshot, opens the event channel, and
// spawns the ingestion loop. Setup failures (unreachable roster, failed
// subscription) are returned to the caller and nothing is left running;
// once Start returns nil the loop runs until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) error {
	snap, err := BuildSnapshot(ctx, m.roster, m.log)
	if err != nil {
		return err
	}
	m.snap = snap

	ch, err := m.events.Open(ctx)
	if err != nil {
		return fmt.Errorf("monitor: open event channel: %w", err)
	}
	if err := m.events.Subscribe(ctx, EventPackageAdvancedCall); err != nil {
		return fmt.Errorf("monitor: subscribe %q: %w", EventPackageAdvancedCall, err)
	}

	m.log.Info("call monitoring started", "members", len(snap))
	go m.run(ctx, ch)
	return nil
}

// MonitoredUsers reports the snapshot size. Valid after Start.
func (m *Monitor) MonitoredUsers() int { return len(m.snap) }

func (m *Monitor) run(ctx context.Context, ch <-chan RawEvent) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor loop stopped", "reason", ctx.Err())
			return
		case raw, ok := <-ch:
			if !ok {
				m.log.Warn("event channel closed, monitor loop exiting")
				return
			}
			m.handleEvent(ctx, raw)

			// Pause between events to smooth bursts.
			if m.pace > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(m.pace):
				}
			}
		}
	}
}

// handleEvent processes one raw event with full failure isolation: a
// malformed payload, a decision problem, or a failed hangup becomes a log
// entry and the loop moves on to the next event.
func (m *Monitor) handleEvent(ctx context.Context, raw RawEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic while handling event", "panic", r)
		}
	}()

	ev := Classify(raw)
	if !ev.Actionable() {
		m.log.Debug("event ignored", "kind", ev.Kind)
		return
	}
	m.log.Debug("handling call event",
		"kind", ev.Kind, "call_id", ev.CallID, "caller", ev.CallerID, "target", ev.TargetID)

	verdict := m.engine.Decide(ctx, ev, m.snap)
	if verdict.Action != ActionTerminate {
		return
	}
	if err := m.actuator.Terminate(ctx, m.snap, verdict.XSIUserID, verdict.CallID); err != nil {
		m.log.Error("terminate failed",
			"xsi_user_id", verdict.XSIUserID, "call_id", verdict.CallID, "err", err)
	}
}

package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func startedMonitor(t *testing.T, oracle *stubOracle, sess *stubSession) (*Monitor, chan RawEvent, context.CancelFunc) {
	t.Helper()

	roster := stubRoster{people: []Person{
		{XSIUserID: "100", AccountID: "acct-1", Session: sess},
	}}
	src := &stubSource{ch: make(chan RawEvent, 16)}

	m := New(roster, src, oracle, nil)
	m.pace = 0 // no pacing in tests

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		cancel()
		t.Fatalf("start: %v", err)
	}
	return m, src.ch, cancel
}

func TestMonitor_LoopSurvivesMalformedEvent(t *testing.T) {
	oracle := &stubOracle{permitted: map[string]bool{"acct-1": true}}
	sess := &stubSession{}
	_, ch, cancel := startedMonitor(t, oracle, sess)
	defer cancel()

	ch <- receivedPayload("c1", "", "100")
	ch <- RawEvent("definitely not json")
	ch <- receivedPayload("c2", "", "100")

	// Both well-formed events must reach the oracle despite the bad one.
	waitFor(t, func() bool { return oracle.lookupCount() == 2 })
}

func TestMonitor_DenyDrivesActuator(t *testing.T) {
	oracle := &stubOracle{permitted: map[string]bool{}} // nobody permitted
	sess := &stubSession{calls: []ActiveCall{{ID: "c3"}}}
	_, ch, cancel := startedMonitor(t, oracle, sess)
	defer cancel()

	ch <- receivedPayload("c3", "", "100")

	waitFor(t, func() bool { return len(sess.hangups()) == 1 })
}

func TestMonitor_AllowDoesNotTouchCalls(t *testing.T) {
	oracle := &stubOracle{permitted: map[string]bool{"acct-1": true}}
	sess := &stubSession{calls: []ActiveCall{{ID: "c4"}}}
	_, ch, cancel := startedMonitor(t, oracle, sess)
	defer cancel()

	ch <- receivedPayload("c4", "", "100")

	waitFor(t, func() bool { return oracle.lookupCount() == 1 })
	if got := sess.hangups(); len(got) != 0 {
		t.Fatalf("allowed call must not be hung up, got %v", got)
	}
}

func TestMonitor_StartFailsOnSubscriptionError(t *testing.T) {
	roster := stubRoster{people: []Person{{XSIUserID: "100", Session: &stubSession{}}}}
	src := &stubSource{ch: make(chan RawEvent), subErr: errors.New("subscription rejected")}

	m := New(roster, src, &stubOracle{}, nil)
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start failure on subscription error")
	}
}

func TestMonitor_StartFailsOnRosterError(t *testing.T) {
	roster := stubRoster{err: errors.New("roster unreachable")}
	src := &stubSource{ch: make(chan RawEvent)}

	m := New(roster, src, &stubOracle{}, nil)
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start failure on roster error")
	}
}

func TestMonitor_TerminationFailureDoesNotStopLoop(t *testing.T) {
	oracle := &stubOracle{permitted: map[string]bool{}}
	sess := &stubSession{activeErr: errors.New("xsi unavailable")}
	_, ch, cancel := startedMonitor(t, oracle, sess)
	defer cancel()

	ch <- receivedPayload("c5", "", "100")
	ch <- receivedPayload("c6", "", "100")

	// Second event still processed after the first termination failed.
	waitFor(t, func() bool { return oracle.lookupCount() == 2 })
}

func TestMonitor_MonitoredUsers(t *testing.T) {
	m, _, cancel := startedMonitor(t, &stubOracle{}, &stubSession{})
	defer cancel()
	if m.MonitoredUsers() != 1 {
		t.Fatalf("expected 1 monitored user, got %d", m.MonitoredUsers())
	}
}

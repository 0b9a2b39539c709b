package monitor

import (
	"context"
	"errors"
	"testing"
)

func TestTerminate_HangsUpAllActiveCalls(t *testing.T) {
	sess := &stubSession{calls: []ActiveCall{{ID: "a"}, {ID: "b"}}}
	snap := Snapshot{"100": {XSIUserID: "100", Session: sess}}

	a := NewActuator(nil)
	if err := a.Terminate(context.Background(), snap, "100", "a"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := sess.hangups(); len(got) != 2 {
		t.Fatalf("expected 2 hangups, got %v", got)
	}
}

func TestTerminate_OneFailureDoesNotStopOthers(t *testing.T) {
	sess := &stubSession{
		calls:      []ActiveCall{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		hangupErrs: map[string]error{"b": errors.New("already released")},
	}
	snap := Snapshot{"100": {XSIUserID: "100", Session: sess}}

	a := NewActuator(nil)
	err := a.Terminate(context.Background(), snap, "100", "b")
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if got := sess.hangups(); len(got) != 2 {
		t.Fatalf("expected remaining calls still attempted, got %v", got)
	}
}

func TestTerminate_UnknownUser(t *testing.T) {
	a := NewActuator(nil)
	err := a.Terminate(context.Background(), Snapshot{}, "nobody", "c1")
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestTerminate_NoActiveCalls(t *testing.T) {
	sess := &stubSession{}
	snap := Snapshot{"100": {XSIUserID: "100", Session: sess}}

	a := NewActuator(nil)
	if err := a.Terminate(context.Background(), snap, "100", "c1"); err != nil {
		t.Fatalf("no active calls should not be an error, got %v", err)
	}
}

func TestTerminate_ListFailure(t *testing.T) {
	sess := &stubSession{activeErr: errors.New("xsi unavailable")}
	snap := Snapshot{"100": {XSIUserID: "100", Session: sess}}

	a := NewActuator(nil)
	if err := a.Terminate(context.Background(), snap, "100", "c1"); err == nil {
		t.Fatalf("expected error when listing calls fails")
	}
}

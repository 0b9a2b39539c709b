package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"callgate/internal/store"
)

func memService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewService(mem, mem, mem, usBounds(), nil)
	svc.clock = func() time.Time { return time.Unix(5_000, 0).UTC() }
	return svc, mem
}

func TestUpdate_RejectsUnknownSession(t *testing.T) {
	svc, _ := memService(t)

	_, err := svc.Update(context.Background(), Report{SessionToken: "nope", Latitude: 39, Longitude: -100})
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestUpdate_RejectsOutOfBounds(t *testing.T) {
	svc, mem := memService(t)
	ctx := context.Background()
	_ = mem.UpsertUserSession(ctx, "u1", "tok")

	_, err := svc.Update(ctx, Report{SessionToken: "tok", Latitude: 51.5, Longitude: -0.1})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if allowed, _ := mem.GetPermission(ctx, "u1"); allowed {
		t.Fatalf("out-of-bounds report must not enroll the user")
	}
}

func TestUpdate_EnrollsFirstInBoundsReport(t *testing.T) {
	svc, mem := memService(t)
	ctx := context.Background()
	_ = mem.UpsertUserSession(ctx, "u1", "tok")

	res, err := svc.Update(ctx, Report{SessionToken: "tok", Time: "2026-08-31T12:00:00Z", Latitude: 39.7, Longitude: -104.9})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.UserID != "u1" || !res.Enrolled {
		t.Fatalf("expected enrollment for u1, got %+v", res)
	}
	if allowed, _ := mem.GetPermission(ctx, "u1"); !allowed {
		t.Fatalf("expected allow list entry after in-bounds report")
	}

	sample, err := mem.GetLatestSample(ctx, "u1")
	if err != nil {
		t.Fatalf("expected sample recorded: %v", err)
	}
	if sample.LastUpdate != 5_000 {
		t.Fatalf("expected server receipt time on sample, got %d", sample.LastUpdate)
	}
}

func TestUpdate_SecondReportDoesNotReEnroll(t *testing.T) {
	svc, mem := memService(t)
	ctx := context.Background()
	_ = mem.UpsertUserSession(ctx, "u1", "tok")

	if _, err := svc.Update(ctx, Report{SessionToken: "tok", Latitude: 39.7, Longitude: -104.9}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	res, err := svc.Update(ctx, Report{SessionToken: "tok", Latitude: 40.0, Longitude: -105.0})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if res.Enrolled {
		t.Fatalf("already-enrolled user should not be re-enrolled")
	}
}

func TestUpdate_EmptyToken(t *testing.T) {
	svc, _ := memService(t)
	if _, err := svc.Update(context.Background(), Report{}); !errors.Is(err, ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport, got %v", err)
	}
}

func TestSweeper_RemovesStaleEntries(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	_ = mem.UpsertAllowListEntry(ctx, "fresh", true)
	_ = mem.RecordLocationSample(ctx, store.LocationSample{UserID: "fresh", LastUpdate: 4_900})
	_ = mem.UpsertAllowListEntry(ctx, "stale", true)
	_ = mem.RecordLocationSample(ctx, store.LocationSample{UserID: "stale", LastUpdate: 1_000})

	sw := NewSweeper(mem, 300*time.Second, time.Minute, nil)
	sw.clock = func() time.Time { return time.Unix(5_000, 0).UTC() }
	sw.sweep(ctx)

	if allowed, _ := mem.GetPermission(ctx, "fresh"); !allowed {
		t.Fatalf("fresh entry must survive the sweep")
	}
	if allowed, _ := mem.GetPermission(ctx, "stale"); allowed {
		t.Fatalf("stale entry must be swept")
	}
}

type failingSweepStore struct{ calls int }

func (f *failingSweepStore) DeleteExpiredAllowListEntries(context.Context, int64) (int64, error) {
	f.calls++
	return 0, errors.New("connection reset")
}

func TestSweeper_SurvivesStoreError(t *testing.T) {
	st := &failingSweepStore{}
	sw := NewSweeper(st, 300*time.Second, time.Minute, nil)

	sw.sweep(context.Background())
	sw.sweep(context.Background())

	if st.calls != 2 {
		t.Fatalf("expected sweeping to continue after a store error, got %d calls", st.calls)
	}
}

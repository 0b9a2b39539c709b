package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"callgate/internal/store"
)

type stubPerms struct {
	allowed map[string]bool
	err     error
}

func (s stubPerms) GetPermission(ctx context.Context, userID string) (bool, error) {
	return s.allowed[userID], s.err
}

type stubSamples struct {
	samples map[string]store.LocationSample
	err     error
}

func (s stubSamples) GetLatestSample(ctx context.Context, userID string) (store.LocationSample, error) {
	if s.err != nil {
		return store.LocationSample{}, s.err
	}
	sample, ok := s.samples[userID]
	if !ok {
		return store.LocationSample{}, store.ErrNotFound
	}
	return sample, nil
}

func (s stubSamples) RecordLocationSample(ctx context.Context, sample store.LocationSample) error {
	return nil
}

const testTimeout = 300 * time.Second

func fixedOracle(perms stubPerms, samples stubSamples, nowUnix int64) *Oracle {
	o := NewOracle(perms, samples, testTimeout, nil)
	o.clock = func() time.Time { return time.Unix(nowUnix, 0).UTC() }
	return o
}

func TestIsPermitted_NoSampleFailsClosed(t *testing.T) {
	o := fixedOracle(
		stubPerms{allowed: map[string]bool{"acct-1": true}},
		stubSamples{samples: map[string]store.LocationSample{}},
		1_000,
	)
	if o.IsPermitted(context.Background(), "acct-1") {
		t.Fatalf("user with no sample must not be permitted")
	}
}

func TestIsPermitted_StalenessBoundary(t *testing.T) {
	now := int64(10_000)
	perms := stubPerms{allowed: map[string]bool{"acct-1": true}}

	// Exactly at the timeout: still permitted (inclusive boundary).
	atBoundary := stubSamples{samples: map[string]store.LocationSample{
		"acct-1": {UserID: "acct-1", LastUpdate: now - int64(testTimeout.Seconds())},
	}}
	if !fixedOracle(perms, atBoundary, now).IsPermitted(context.Background(), "acct-1") {
		t.Fatalf("sample exactly at timeout must still be permitted")
	}

	// One second past: not permitted.
	pastBoundary := stubSamples{samples: map[string]store.LocationSample{
		"acct-1": {UserID: "acct-1", LastUpdate: now - int64(testTimeout.Seconds()) - 1},
	}}
	if fixedOracle(perms, pastBoundary, now).IsPermitted(context.Background(), "acct-1") {
		t.Fatalf("sample one second past timeout must not be permitted")
	}
}

func TestIsPermitted_NotOnAllowList(t *testing.T) {
	o := fixedOracle(
		stubPerms{allowed: map[string]bool{}},
		stubSamples{samples: map[string]store.LocationSample{
			"acct-1": {UserID: "acct-1", LastUpdate: 1_000},
		}},
		1_000,
	)
	if o.IsPermitted(context.Background(), "acct-1") {
		t.Fatalf("user absent from allow list must not be permitted")
	}
}

func TestIsPermitted_StorageFailureFailsClosed(t *testing.T) {
	boom := errors.New("storage down")

	o := fixedOracle(stubPerms{err: boom}, stubSamples{}, 1_000)
	if o.IsPermitted(context.Background(), "acct-1") {
		t.Fatalf("permission lookup failure must fail closed")
	}

	o = fixedOracle(
		stubPerms{allowed: map[string]bool{"acct-1": true}},
		stubSamples{err: boom},
		1_000,
	)
	if o.IsPermitted(context.Background(), "acct-1") {
		t.Fatalf("sample lookup failure must fail closed")
	}
}

func TestIsPermitted_EmptyAccountID(t *testing.T) {
	o := fixedOracle(stubPerms{}, stubSamples{}, 1_000)
	if o.IsPermitted(context.Background(), "") {
		t.Fatalf("empty account id must not be permitted")
	}
}

package location

import (
	"context"
	"log/slog"
	"time"

	"callgate/internal/store"
)

// PermissionStore is the persistence surface the oracle needs.
type PermissionStore interface {
	GetPermission(ctx context.Context, userID string) (bool, error)
}

// Oracle answers whether an account is currently authorized to converse,
// based on its allow-list flag and the freshness of its latest location
// sample.
//
// The oracle fails closed: a user it cannot verify, for any reason, is
// not permitted. It never returns an error to callers; the admission
// pipeline treats the boolean as final.
type Oracle struct {
	perms   PermissionStore
	samples store.SampleSource
	timeout time.Duration
	clock   func() time.Time
	log     *slog.Logger
}

func NewOracle(perms PermissionStore, samples store.SampleSource, timeout time.Duration, log *slog.Logger) *Oracle {
	if log == nil {
		log = slog.Default()
	}
	return &Oracle{
		perms:   perms,
		samples: samples,
		timeout: timeout,
		clock:   time.Now,
		log:     log,
	}
}

// IsPermitted reports whether the user may converse right now.
func (o *Oracle) IsPermitted(ctx context.Context, accountID string) bool {
	if accountID == "" {
		return false
	}

	allowed, err := o.perms.GetPermission(ctx, accountID)
	if err != nil {
		o.log.Warn("permission lookup failed, treating as not permitted", "user_id", accountID, "err", err)
		return false
	}
	if !allowed {
		o.log.Info("user not on allow list", "user_id", accountID)
		return false
	}

	sample, err := o.samples.GetLatestSample(ctx, accountID)
	if err != nil {
		// Covers both a genuinely missing sample and a storage failure.
		o.log.Info("no usable location sample, treating as not permitted", "user_id", accountID, "err", err)
		return false
	}

	age := o.clock().UTC().Unix() - sample.LastUpdate
	// A sample exactly at the timeout is still valid.
	if age > int64(o.timeout.Seconds()) {
		o.log.Info("location sample stale", "user_id", accountID, "age_seconds", age)
		return false
	}
	return true
}

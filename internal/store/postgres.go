package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"callgate/pkg/utils"
)

var ErrNotFound = errors.New("store: not found")

// Store is the Postgres-backed persistence layer.
//
// It exposes typed operations only; no caller builds SQL.
// All reads used by the admission path must fail soft at the caller
// (the permission oracle treats any error as not-permitted).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

// EnsureSchema creates the tables if they do not exist.
// Mirrors startup-time schema creation; real deployments should still
// manage migrations out of band.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS admin_tokens (
	id                       INT PRIMARY KEY,
	access_token             TEXT NOT NULL,
	expires_in               BIGINT NOT NULL DEFAULT 0,
	refresh_token            TEXT NOT NULL DEFAULT '',
	refresh_token_expires_in BIGINT NOT NULL DEFAULT 0,
	token_type               TEXT NOT NULL DEFAULT '',
	scope                    TEXT NOT NULL DEFAULT '',
	expires_at               BIGINT NOT NULL DEFAULT 0,
	acquired_at              BIGINT NOT NULL DEFAULT 0,
	session_token            TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS user_sessions (
	user_id       TEXT PRIMARY KEY,
	session_token TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_sessions_token ON user_sessions (session_token);
CREATE TABLE IF NOT EXISTS allow_list (
	user_id      TEXT PRIMARY KEY,
	allow_caller BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS location_samples (
	user_id       TEXT PRIMARY KEY,
	session_token TEXT NOT NULL,
	time          TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	last_update   BIGINT NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

/* ===================== ADMIN TOKEN ===================== */

// adminTokenRowID keeps the credential a single-row table.
const adminTokenRowID = 1

func (s *Store) SaveAdminToken(ctx context.Context, t AdminToken) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO admin_tokens (id, access_token, expires_in, refresh_token, refresh_token_expires_in, token_type, scope, expires_at, acquired_at, session_token)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	access_token             = EXCLUDED.access_token,
	expires_in               = EXCLUDED.expires_in,
	refresh_token            = EXCLUDED.refresh_token,
	refresh_token_expires_in = EXCLUDED.refresh_token_expires_in,
	token_type               = EXCLUDED.token_type,
	scope                    = EXCLUDED.scope,
	expires_at               = EXCLUDED.expires_at,
	acquired_at              = EXCLUDED.acquired_at,
	session_token            = EXCLUDED.session_token`,
			adminTokenRowID, t.AccessToken, t.ExpiresIn, t.RefreshToken, t.RefreshTokenExpiresIn,
			t.TokenType, t.Scope, t.ExpiresAt, t.AcquiredAt, t.SessionToken)
		return err
	})
}

func (s *Store) GetAdminToken(ctx context.Context) (AdminToken, error) {
	var t AdminToken
	err := s.db.QueryRowContext(ctx, `
SELECT access_token, expires_in, refresh_token, refresh_token_expires_in, token_type, scope, expires_at, acquired_at, session_token
FROM admin_tokens WHERE id = $1`, adminTokenRowID).Scan(
		&t.AccessToken, &t.ExpiresIn, &t.RefreshToken, &t.RefreshTokenExpiresIn,
		&t.TokenType, &t.Scope, &t.ExpiresAt, &t.AcquiredAt, &t.SessionToken)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminToken{}, ErrNotFound
	}
	if err != nil {
		return AdminToken{}, fmt.Errorf("store: get admin token: %w", err)
	}
	return t, nil
}

func (s *Store) DeleteAdminToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_tokens WHERE id = $1`, adminTokenRowID)
	return err
}

/* ===================== USER SESSIONS ===================== */

func (s *Store) UpsertUserSession(ctx context.Context, userID, sessionToken string) error {
	if userID == "" || sessionToken == "" {
		return errors.New("store: user_id and session_token required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_sessions (user_id, session_token) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET session_token = EXCLUDED.session_token`, userID, sessionToken)
	return err
}

func (s *Store) GetUserSessionByToken(ctx context.Context, sessionToken string) (UserSession, error) {
	var u UserSession
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, session_token FROM user_sessions WHERE session_token = $1`, sessionToken).
		Scan(&u.UserID, &u.SessionToken)
	if errors.Is(err, sql.ErrNoRows) {
		return UserSession{}, ErrNotFound
	}
	if err != nil {
		return UserSession{}, fmt.Errorf("store: get user session: %w", err)
	}
	return u, nil
}

/* ===================== ALLOW LIST ===================== */

func (s *Store) UpsertAllowListEntry(ctx context.Context, userID string, allowCaller bool) error {
	if userID == "" {
		return errors.New("store: user_id required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO allow_list (user_id, allow_caller) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET allow_caller = EXCLUDED.allow_caller`, userID, allowCaller)
	return err
}

// GetPermission reports whether the user has an allow-list entry with the
// caller flag set. A missing entry is simply not-allowed, not an error.
func (s *Store) GetPermission(ctx context.Context, userID string) (bool, error) {
	var allowed bool
	err := s.db.QueryRowContext(ctx,
		`SELECT allow_caller FROM allow_list WHERE user_id = $1`, userID).Scan(&allowed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: get permission: %w", err)
	}
	return allowed, nil
}

// DeleteExpiredAllowListEntries removes allow-list entries whose latest
// sample is older than cutoff (unix seconds), or that have no sample.
// Returns the number of entries removed.
func (s *Store) DeleteExpiredAllowListEntries(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM allow_list a
WHERE NOT EXISTS (
	SELECT 1 FROM location_samples l
	WHERE l.user_id = a.user_id AND l.last_update >= $1
)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: delete expired allow list entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete expired allow list entries: %w", err)
	}
	return n, nil
}

/* ===================== LOCATION SAMPLES ===================== */

func (s *Store) RecordLocationSample(ctx context.Context, sample LocationSample) error {
	if sample.UserID == "" {
		return errors.New("store: user_id required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO location_samples (user_id, session_token, time, latitude, longitude, last_update)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
	session_token = EXCLUDED.session_token,
	time          = EXCLUDED.time,
	latitude      = EXCLUDED.latitude,
	longitude     = EXCLUDED.longitude,
	last_update   = EXCLUDED.last_update`,
		sample.UserID, sample.SessionToken, sample.Time, sample.Latitude, sample.Longitude, sample.LastUpdate)
	return err
}

func (s *Store) GetLatestSample(ctx context.Context, userID string) (LocationSample, error) {
	var l LocationSample
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, session_token, time, latitude, longitude, last_update
FROM location_samples WHERE user_id = $1`, userID).
		Scan(&l.UserID, &l.SessionToken, &l.Time, &l.Latitude, &l.Longitude, &l.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return LocationSample{}, ErrNotFound
	}
	if err != nil {
		return LocationSample{}, fmt.Errorf("store: get latest sample: %w", err)
	}
	return l, nil
}

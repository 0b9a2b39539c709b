package store

import "time"

// AdminToken is the single stored platform credential for the organization
// admin. Exactly one row exists; completing the admin OAuth flow replaces it.
type AdminToken struct {
	AccessToken           string `json:"access_token" db:"access_token"`
	ExpiresIn             int64  `json:"expires_in" db:"expires_in"`
	RefreshToken          string `json:"refresh_token" db:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in" db:"refresh_token_expires_in"`
	TokenType             string `json:"token_type" db:"token_type"`
	Scope                 string `json:"scope" db:"scope"`

	// ExpiresAt and AcquiredAt are unix seconds.
	ExpiresAt  int64 `json:"expires_at" db:"expires_at"`
	AcquiredAt int64 `json:"acquired_at" db:"acquired_at"`

	// SessionToken is the web session issued to the admin alongside the
	// platform credential.
	SessionToken string `json:"session_token" db:"session_token"`
}

// Expired reports whether the access token is past its expiry.
func (t AdminToken) Expired(now time.Time) bool {
	return now.Unix() > t.ExpiresAt
}

// RefreshExpired reports whether the refresh token can no longer be used.
// A zero lifespan counts as expired.
func (t AdminToken) RefreshExpired(now time.Time) bool {
	return now.Unix() > t.AcquiredAt+t.RefreshTokenExpiresIn
}

// UserSession maps a platform user to their current web session token.
type UserSession struct {
	UserID       string `json:"user_id" db:"user_id"`
	SessionToken string `json:"session_token" db:"session_token"`
}

// AllowListEntry marks a platform user as authorized to converse.
// Entries are created when a user first reports an in-bounds location and
// removed by the sweeper once their samples go stale.
type AllowListEntry struct {
	UserID      string `json:"user_id" db:"user_id"`
	AllowCaller bool   `json:"allow_caller" db:"allow_caller"`
}

// LocationSample is the most recent GPS report for a user.
// One row per user; each report replaces the previous one.
type LocationSample struct {
	UserID       string  `json:"user_id" db:"user_id"`
	SessionToken string  `json:"session_token" db:"session_token"`
	Time         string  `json:"time" db:"time"`
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`

	// LastUpdate is the server-side receipt time, unix seconds.
	// Staleness is judged against this, not the client-reported Time.
	LastUpdate int64 `json:"last_update" db:"last_update"`
}

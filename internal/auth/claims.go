package auth

import "github.com/golang-jwt/jwt/v5"

type SessionType string

const (
	SessionTypeAdmin SessionType = "admin"
	SessionTypeUser  SessionType = "user"
)

// Claims are the only supported session-token claims shape for this
// service. UserID is the platform account identity of the session owner.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string      `json:"user_id"`
	SessionType SessionType `json:"session_type"`
}

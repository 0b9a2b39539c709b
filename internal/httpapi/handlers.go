package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"callgate/internal/audit"
	"callgate/internal/auth"
	"callgate/internal/location"
	"callgate/internal/oauth"
	"callgate/internal/store"
	"callgate/internal/webex"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// TokenStore persists the organization admin's platform credential.
type TokenStore interface {
	SaveAdminToken(ctx context.Context, tok store.AdminToken) error
	GetAdminToken(ctx context.Context) (store.AdminToken, error)
}

// UserSessionStore persists user web sessions so later location reports
// can be resolved back to an account.
type UserSessionStore interface {
	UpsertUserSession(ctx context.Context, userID, sessionToken string) error
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Sessions *auth.Manager

	UserFlow  *oauth.Flow
	AdminFlow *oauth.Flow

	Tokens   TokenStore
	Users    UserSessionStore
	Location *location.Service
	Audit    *audit.Service

	// AdminUserID pins the admin flow to one platform account.
	AdminUserID string

	SecureCookies   bool
	AdminSessionTTL time.Duration
	UserSessionTTL  time.Duration

	// Identity resolves an access token to the account behind it.
	Identity func(ctx context.Context, accessToken string) (webex.Me, error)

	// StartMonitoring brings up the call monitor with the given admin
	// credential and reports how many users it watches.
	StartMonitoring func(ctx context.Context, accessToken string) (int, error)
}

// ErrMonitorRunning is returned by StartMonitoring implementations when a
// monitoring session is already active.
var ErrMonitorRunning = errors.New("httpapi: call monitoring already running")

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- User flow ---

func (h Handlers) UserLogin(c *gin.Context) {
	url, err := h.UserFlow.AuthURL(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization unavailable"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h Handlers) UserCallback(c *gin.Context) {
	ctx := c.Request.Context()

	tok, err := h.UserFlow.Exchange(ctx, c.Query("state"), c.Query("code"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "authorization failed"})
		return
	}
	me, err := h.Identity(ctx, tok.AccessToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "identity lookup failed"})
		return
	}

	session, err := h.Sessions.IssueSession(time.Now(), me.ID, auth.SessionTypeUser)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session issuance failed"})
		return
	}
	if err := h.Users.UpsertUserSession(ctx, me.ID, session); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session persistence failed"})
		return
	}

	h.setSessionCookie(c, session, h.UserSessionTTL)
	c.Redirect(http.StatusFound, "/user/success")
}

// UserSuccess serves the page that keeps reporting the browser's position.
// The session token is rendered into the page because the cookie is not
// readable from script.
func (h Handlers) UserSuccess(c *gin.Context) {
	session, err := c.Cookie(auth.SessionCookie)
	if err != nil || session == "" {
		c.Redirect(http.StatusFound, "/user/login")
		return
	}
	if _, err := h.Sessions.Verify(session, auth.SessionTypeUser, time.Now()); err != nil {
		c.Redirect(http.StatusFound, "/user/login")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(userSuccessPage, session)))
}

// --- Admin flow ---

func (h Handlers) AdminLogin(c *gin.Context) {
	url, err := h.AdminFlow.AuthURL(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization unavailable"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h Handlers) AdminCallback(c *gin.Context) {
	ctx := c.Request.Context()

	tok, err := h.AdminFlow.Exchange(ctx, c.Query("state"), c.Query("code"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "authorization failed"})
		return
	}
	me, err := h.Identity(ctx, tok.AccessToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "identity lookup failed"})
		return
	}
	if me.ID != h.AdminUserID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is not the configured admin"})
		return
	}

	now := time.Now()
	session, err := h.Sessions.IssueSession(now, me.ID, auth.SessionTypeAdmin)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session issuance failed"})
		return
	}
	if err := h.Tokens.SaveAdminToken(ctx, adminTokenRecord(tok, now, session)); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential persistence failed"})
		return
	}

	if h.Audit != nil {
		_ = h.Audit.LogAdminLogin(ctx, me.ID, c.ClientIP())
	}
	h.setSessionCookie(c, session, h.AdminSessionTTL)
	c.Redirect(http.StatusFound, "/admin/success")
}

func (h Handlers) AdminSuccess(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(adminSuccessPage))
}

// AdminRefreshToken trades the stored refresh token for a fresh access
// token. Admin session required.
func (h Handlers) AdminRefreshToken(c *gin.Context) {
	ctx := c.Request.Context()

	current, err := h.Tokens.GetAdminToken(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "admin has not authorized yet"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential lookup failed"})
		return
	}

	now := time.Now()
	if current.RefreshExpired(now) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired, re-authorize at /admin/login"})
		return
	}

	tok, err := h.AdminFlow.Refresh(ctx, current.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "token refresh failed"})
		return
	}
	rec := adminTokenRecord(tok, now, current.SessionToken)
	if rec.RefreshToken == "" {
		rec.RefreshToken = current.RefreshToken
		rec.RefreshTokenExpiresIn = current.RefreshTokenExpiresIn
		rec.AcquiredAt = current.AcquiredAt
	}
	if err := h.Tokens.SaveAdminToken(ctx, rec); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential persistence failed"})
		return
	}

	if h.Audit != nil {
		actor, _ := auth.UserID(ctx)
		_ = h.Audit.LogTokenRefresh(ctx, actor, c.ClientIP())
	}
	c.JSON(http.StatusOK, gin.H{"status": "token refreshed", "expires_at": rec.ExpiresAt})
}

// --- Monitoring ---

// StartCallMonitoring brings up the call monitor using the stored admin
// credential, refreshing it first when expired. Admin session required.
func (h Handlers) StartCallMonitoring(c *gin.Context) {
	ctx := c.Request.Context()

	current, err := h.Tokens.GetAdminToken(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "admin has not authorized yet"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential lookup failed"})
		return
	}

	now := time.Now()
	if current.Expired(now) {
		if current.RefreshExpired(now) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "credentials expired, re-authorize at /admin/login"})
			return
		}
		tok, err := h.AdminFlow.Refresh(ctx, current.RefreshToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "token refresh failed"})
			return
		}
		rec := adminTokenRecord(tok, now, current.SessionToken)
		if rec.RefreshToken == "" {
			rec.RefreshToken = current.RefreshToken
			rec.RefreshTokenExpiresIn = current.RefreshTokenExpiresIn
			rec.AcquiredAt = current.AcquiredAt
		}
		if err := h.Tokens.SaveAdminToken(ctx, rec); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential persistence failed"})
			return
		}
		current = rec
	}

	monitored, err := h.StartMonitoring(ctx, current.AccessToken)
	if err != nil {
		if errors.Is(err, ErrMonitorRunning) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call monitoring already running"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "monitor start failed: " + err.Error()})
		return
	}

	if h.Audit != nil {
		actor, _ := auth.UserID(ctx)
		_ = h.Audit.LogMonitorStart(ctx, actor, c.ClientIP(), monitored)
	}
	c.JSON(http.StatusOK, gin.H{"status": "monitoring started", "monitored_users": monitored})
}

// --- Location reports ---

func (h Handlers) UpdateTimeLocation(c *gin.Context) {
	var rep location.Report
	if err := c.ShouldBindJSON(&rep); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Location.Update(c.Request.Context(), rep)
	switch {
	case err == nil:
	case errors.Is(err, location.ErrInvalidReport):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "sessionToken required"})
		return
	case errors.Is(err, location.ErrInvalidSession):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	case errors.Is(err, location.ErrOutOfBounds):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "location outside permitted region"})
		return
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report rejected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "enrolled": res.Enrolled})
}

// --- helpers ---

func (h Handlers) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(ttl.Seconds()), "/", "", h.SecureCookies, true)
}

func adminTokenRecord(tok *oauth2.Token, now time.Time, session string) store.AdminToken {
	rec := store.AdminToken{
		AccessToken:           tok.AccessToken,
		RefreshToken:          tok.RefreshToken,
		RefreshTokenExpiresIn: oauth.RefreshLifespan(tok),
		TokenType:             tok.TokenType,
		ExpiresAt:             tok.Expiry.Unix(),
		AcquiredAt:            now.Unix(),
		SessionToken:          session,
	}
	rec.ExpiresIn = rec.ExpiresAt - rec.AcquiredAt
	if scope, ok := tok.Extra("scope").(string); ok {
		rec.Scope = scope
	}
	return rec
}

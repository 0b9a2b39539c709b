package main

import (
	"callgate/internal/auth"
	"callgate/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, sessions *auth.Manager) {
	// public
	r.GET("/health", h.Health)

	// Location reports authenticate via the session token in the body, so
	// the endpoint itself is public.
	r.POST("/update-time-location-db", h.UpdateTimeLocation)

	// user OAuth flow
	user := r.Group("/user")
	{
		user.GET("/login", h.UserLogin)
		user.GET("/callback", h.UserCallback)
		user.GET("/success", h.UserSuccess)
	}

	// admin OAuth flow; login and callback are public by nature, the rest
	// requires an admin session.
	admin := r.Group("/admin")
	{
		admin.GET("/login", h.AdminLogin)
		admin.GET("/callback", h.AdminCallback)
		admin.GET("/success", h.AdminSuccess)
		admin.POST("/refresh_token",
			auth.RequireSession(sessions, auth.SessionTypeAdmin), h.AdminRefreshToken)
	}

	r.POST("/start-call-monitoring",
		auth.RequireSession(sessions, auth.SessionTypeAdmin), h.StartCallMonitoring)
}

package main

import (
	"autodialer/internal/auth"
	"autodialer/internal/httpapi"
	"autodialer/internal/rbac"
	"autodialer/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, statusWebhook telephony.TwilioStatusWebhookHandler, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public; token-gated inside the handler).
	r.POST("/webhooks/twilio/status", statusWebhook.HandleStatusCallback)

	// protected API group
	v1 := r.Group("/v1")

	// AUTH routes (token issuance) sit outside the auth middleware.
	v1.POST("/auth/login", h.Login)

	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// DIALER routes. Agents run their own sessions; managers can run
		// and inspect everyone's.
		dialerGroup := v1.Group("/dialer")
		dialerGroup.Use(rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleManager))
		{
			dialerGroup.POST("/sessions", h.StartSession)
			dialerGroup.POST("/sessions/pause", h.PauseSession)
			dialerGroup.POST("/sessions/resume", h.ResumeSession)
			dialerGroup.POST("/sessions/stop", h.StopSession)
			dialerGroup.GET("/sessions/current", h.GetSession)
			dialerGroup.GET("/sessions/:session_id", h.GetSession)
		}

		// QUEUE routes
		queueGroup := v1.Group("/queue")
		queueGroup.Use(rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleManager))
		{
			queueGroup.POST("/leads", h.EnqueueLeads)
		}

		// REPORTING routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleManager))
		{
			reports.GET("/sessions/:session_id/summary", h.SessionSummary)
		}
	}
}

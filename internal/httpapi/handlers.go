package httpapi

import (
	"errors"
	"net/http"
	"time"

	"autodialer/internal/auth"
	"autodialer/internal/dialer"
	"autodialer/internal/queue"
	"autodialer/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Controller *dialer.Controller
	Queue      *queue.Service
	Reports    *reporting.Service

	// DefaultPacingSeconds applies when a start request omits pacing.
	DefaultPacingSeconds int
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Dial session controls ---

type startSessionRequest struct {
	Name string `json:"name"`

	// PacingSeconds nil falls back to the configured default; zero is
	// accepted and means back-to-back dialing.
	PacingSeconds *int `json:"pacing_seconds"`
}

func (h Handlers) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	pacing := h.DefaultPacingSeconds
	if req.PacingSeconds != nil {
		pacing = *req.PacingSeconds
	}

	s, err := h.Controller.Start(c.Request.Context(), req.Name, pacing)
	if err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h Handlers) PauseSession(c *gin.Context) {
	s, err := h.Controller.Pause(c.Request.Context())
	if err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h Handlers) ResumeSession(c *gin.Context) {
	s, err := h.Controller.Resume(c.Request.Context())
	if err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h Handlers) StopSession(c *gin.Context) {
	s, err := h.Controller.Stop(c.Request.Context())
	if err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetSession returns the open session, or a specific one by id.
func (h Handlers) GetSession(c *gin.Context) {
	s, err := h.Controller.Session(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func abortSessionErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dialer.ErrSessionInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, dialer.ErrNotActive), errors.Is(err, dialer.ErrNotPaused):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, dialer.ErrNoTargets):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dialer.ErrNoActiveSession), errors.Is(err, dialer.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session operation failed"})
	}
}

// --- Queue ---

type enqueueRequest struct {
	LeadIDs  []string `json:"lead_ids"`
	Priority int      `json:"priority"`
}

func (h Handlers) EnqueueLeads(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.LeadIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lead_ids required"})
		return
	}

	added, err := h.Queue.Enqueue(c.Request.Context(), req.LeadIDs, req.Priority)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enqueued": added})
}

// --- Reporting ---

func (h Handlers) SessionSummary(c *gin.Context) {
	sessionID := c.Param("session_id")
	summary, err := h.Reports.Summarize(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	leadx "github.com/fitlead/fitlead/agent/lead"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// handleChat processes one turn. A missing session id mints a fresh one so
// first-contact clients do not need to invent identifiers.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result := s.processor.Process(c.Request.Context(), sessionID, req.Message)
	c.JSON(http.StatusOK, result)
}

// handleResetSession drops the in-process conversation only; the lead's
// persisted profile is untouched.
func (s *Server) handleResetSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	existed := s.processor.Reset(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"existed":    existed,
		"message":    "session reset",
	})
}

func (s *Server) handleGetMemory(c *gin.Context) {
	sessionID := c.Param("session_id")

	m, err := s.store.Fetch(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, leadx.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no memory for session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "memory lookup failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleDeleteMemory(c *gin.Context) {
	sessionID := c.Param("session_id")

	existed, err := s.store.Delete(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "memory delete failed"})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "no memory for session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "deleted": true})
}

func (s *Server) handleSlots(c *gin.Context) {
	daysAhead := 7
	if raw := strings.TrimSpace(c.Query("days_ahead")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days_ahead must be a positive integer"})
			return
		}
		daysAhead = n
	}

	slots, err := s.scheduler.ListSlots(c.Request.Context(), daysAhead)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "slot lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots, "count": len(slots)})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK

	storeStatus := "ok"
	if err := s.store.Ping(ctx); err != nil {
		storeStatus = err.Error()
		status = http.StatusServiceUnavailable
	}

	providerStatus := "ok"
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			providerStatus = err.Error()
			status = http.StatusServiceUnavailable
		}
	} else {
		providerStatus = "not configured"
	}

	c.JSON(status, gin.H{
		"service":       "fitlead",
		"status":        statusWord(status),
		"lead_store":    storeStatus,
		"llm_provider":  providerStatus,
		"live_sessions": s.processor.SessionCount(),
	})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}

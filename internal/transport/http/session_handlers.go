package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/session"
)

// SessionHandlers provides the create/verify session endpoints.
type SessionHandlers struct {
	sessions SessionService
	log      *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(sessions SessionService, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		sessions: sessions,
		log:      logger,
	}
}

// CreateSessionRequest is the optional create-session body.
type CreateSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// CreateSessionResponse carries the stored session code.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// VerifySessionResponse reports whether a code names a live session.
type VerifySessionResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSession creates a session, or returns the requested one if it is already live.
// POST /api/create-session
func (h *SessionHandlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug().Err(err).Msg("invalid create session request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	code, err := h.sessions.CreateSession(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCode) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session code"})
			return
		}
		h.log.Error().Err(err).Str("requested", req.SessionID).Msg("failed to create session")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, CreateSessionResponse{SessionID: code})
}

// VerifySession reports whether the code in the path is a live session.
// GET /api/verify-session/:id
func (h *SessionHandlers) VerifySession(c *gin.Context) {
	code := c.Param("id")

	valid, err := h.sessions.VerifySession(c.Request.Context(), code)
	if err != nil {
		h.log.Error().Err(err).Str("code", code).Msg("failed to verify session")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "verification failed"})
		return
	}

	h.log.Debug().Str("code", code).Bool("valid", valid).Msg("session verified")
	c.JSON(http.StatusOK, VerifySessionResponse{Valid: valid})
}

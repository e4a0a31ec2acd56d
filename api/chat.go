package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/orchestrator"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

const defaultChannel = "web"

type SessionRequest struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Channel   string `json:"channel"`
}

type ChatResponse struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	SessionID        string         `json:"session_id"`
	Data             map[string]any `json:"data,omitempty"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	Context          map[string]any `json:"context"`
}

// CreateSession starts a fresh conversation.
// POST /api/session
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	sessionID := uuid.NewString()
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "guest_" + sessionID[:8]
	}
	channel := strings.TrimSpace(req.Channel)
	if channel == "" {
		channel = defaultChannel
	}

	session := statex.NewSession(sessionID, userID, channel, h.now())
	if err := h.sessions.Save(ctx, session); err != nil {
		h.log.Error().Err(err).Msg("session create failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to create session")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"session_id": session.ID,
		"user_id":    session.UserID,
		"channel":    session.Channel,
	})
}

// GetSession returns the full session state.
// GET /api/session/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrSessionNotFound) {
			return errorJSON(c, http.StatusNotFound, "session not found")
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("session load failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to load session")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"session": session,
	})
}

// Chat runs one conversation turn. The pipeline owns history recording
// and session persistence; this handler only shapes the envelope.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, http.StatusBadRequest, "message is required")
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "guest_" + sessionID[:8]
	}
	channel := strings.TrimSpace(req.Channel)
	if channel == "" {
		channel = defaultChannel
	}

	response, session, err := h.processor.Process(ctx, sessionID, userID, channel, req.Message)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidMessage) || errors.Is(err, orchestrator.ErrInvalidSession) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to process message")
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Success:          response.Success,
		Message:          response.Message,
		SessionID:        sessionID,
		Data:             response.Data,
		SuggestedActions: response.SuggestedActions,
		Context:          turnContext(response.Data, session),
	})
}

// turnContext distills the analysis the caller usually wants without
// digging through Data.
func turnContext(data map[string]any, session *statex.Session) map[string]any {
	context := map[string]any{}
	if session != nil {
		context["language"] = session.Language
		context["mood"] = session.Mood
	}
	if v, ok := data["intent"]; ok {
		context["intent"] = v
	}
	if v, ok := data["handled_by"]; ok {
		context["handled_by"] = v
	}
	return context
}

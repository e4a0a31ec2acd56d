package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/voice"
)

type VoiceSessionRequest struct {
	UserID string `json:"user_id"`
}

type VoiceTextRequest struct {
	SessionID     string `json:"session_id"`
	Transcription string `json:"transcription"`
}

type VoiceAudioRequest struct {
	SessionID   string `json:"session_id"`
	AudioBase64 string `json:"audio_base64"`
	MimeType    string `json:"mime_type"`
}

// CreateVoiceSession starts a voice call.
// POST /api/voice/session
func (h *Handler) CreateVoiceSession(c echo.Context) error {
	if h.voice == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "voice channel not configured")
	}

	var req VoiceSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	session := h.voice.CreateSession(req.UserID)
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"session_id": session.ID,
		"user_id":    session.UserID,
		"state":      session.State,
	})
}

// GetVoiceSession returns call state.
// GET /api/voice/session/:session_id
func (h *Handler) GetVoiceSession(c echo.Context) error {
	if h.voice == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "voice channel not configured")
	}

	session, ok := h.voice.GetSession(c.Param("session_id"))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"session": session,
	})
}

// EndVoiceSession hangs up a call.
// DELETE /api/voice/session/:session_id
func (h *Handler) EndVoiceSession(c echo.Context) error {
	if h.voice == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "voice channel not configured")
	}

	if !h.voice.EndSession(c.Param("session_id")) {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// VoiceText runs a turn for a client that did its own speech recognition.
// The reply text is what the client should speak.
// POST /api/voice/text
func (h *Handler) VoiceText(c echo.Context) error {
	if h.voice == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "voice channel not configured")
	}

	var req VoiceTextRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Transcription) == "" {
		return errorJSON(c, http.StatusBadRequest, "transcription is required")
	}

	result, err := h.voice.ProcessText(c.Request().Context(), req.SessionID, req.Transcription)
	if err != nil {
		return h.voiceError(c, req.SessionID, err)
	}
	return c.JSON(http.StatusOK, voicePayload(result))
}

// VoiceAudio transcribes base64 audio and runs it as a turn.
// POST /api/voice/audio
func (h *Handler) VoiceAudio(c echo.Context) error {
	if h.voice == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "voice channel not configured")
	}

	var req VoiceAudioRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid base64 audio")
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	result, err := h.voice.ProcessAudio(c.Request().Context(), req.SessionID, audio, mimeType)
	if err != nil {
		return h.voiceError(c, req.SessionID, err)
	}
	return c.JSON(http.StatusOK, voicePayload(result))
}

func (h *Handler) voiceError(c echo.Context, sessionID string, err error) error {
	switch {
	case errors.Is(err, voice.ErrSessionNotFound):
		return errorJSON(c, http.StatusNotFound, "session not found")
	case errors.Is(err, voice.ErrSessionEnded):
		return errorJSON(c, http.StatusGone, "session ended")
	case errors.Is(err, voice.ErrNoTransducer):
		return errorJSON(c, http.StatusServiceUnavailable, "audio processing not configured")
	default:
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("voice turn failed")
		return errorJSON(c, http.StatusInternalServerError, "failed to process voice input")
	}
}

func voicePayload(result voice.Result) map[string]any {
	payload := map[string]any{
		"success":           true,
		"session_id":        result.SessionID,
		"message":           result.Reply,
		"data":              result.Data,
		"suggested_actions": result.SuggestedActions,
		"context": map[string]any{
			"language": result.Language,
			"mood":     result.Mood,
		},
	}
	if result.Transcript != "" {
		payload["transcript"] = result.Transcript
		payload["confidence"] = result.Confidence
	}
	if len(result.Audio) > 0 {
		payload["response_audio_base64"] = base64.StdEncoding.EncodeToString(result.Audio)
		payload["audio_content_type"] = result.AudioContentType
	}
	return payload
}

package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var voiceUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsEvent is one server-to-client frame on the live voice socket.
type wsEvent struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

// StreamVoice upgrades the connection and runs a live call. Binary frames
// from the client carry caller audio; JSON frames back carry interim
// transcripts and turn replies.
// GET /ws/voice/:session_id
func (h *Handler) StreamVoice(c echo.Context) error {
	if h.voice == nil || h.streamer == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "voice streaming not configured")
	}

	sessionID := c.Param("session_id")
	if _, ok := h.voice.GetSession(sessionID); !ok {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}

	conn, err := voiceUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("upgrade voice socket: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Closing the audio channel when the client hangs up lets the
	// streaming turn loop drain and finish cleanly.
	audio := make(chan []byte)
	go func() {
		defer close(audio)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			select {
			case audio <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	var writeMu sync.Mutex
	send := func(event wsEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warn().Err(err).Str("voice_session_id", sessionID).Msg("voice socket write failed")
		}
	}

	onInterim := func(text string) {
		send(wsEvent{Type: "interim_transcript", Text: text})
	}
	onReply := func(text string, replyAudio []byte) {
		event := wsEvent{Type: "reply", Text: text}
		if len(replyAudio) > 0 {
			event.AudioBase64 = base64.StdEncoding.EncodeToString(replyAudio)
		}
		send(event)
	}

	if err := h.voice.StartStreaming(ctx, sessionID, h.streamer, audio, onInterim, onReply); err != nil {
		if !errors.Is(err, context.Canceled) {
			h.log.Warn().Err(err).Str("voice_session_id", sessionID).Msg("voice stream ended with error")
			send(wsEvent{Type: "error", Text: "voice stream interrupted"})
		}
	}

	writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	writeMu.Unlock()
	return nil
}

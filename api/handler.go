// Package api exposes the retail assistant over HTTP: chat, session and
// cart management, catalog browsing, and the voice channel.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/voice"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

const serviceName = "ai-voice-retail-assistant"

// Processor runs one conversation turn. The orchestrator satisfies it.
type Processor interface {
	Process(ctx context.Context, sessionID, userID, channel, text string) (contractx.Response, *statex.Session, error)
}

// Handler handles HTTP requests.
type Handler struct {
	processor Processor
	sessions  statex.Store
	catalog   catalog.Store
	voice     *voice.Manager
	streamer  contractx.StreamingTransducer

	now func() time.Time
	log zerolog.Logger
}

// NewHandler creates a new handler. The voice manager and streamer may be
// nil when the voice channel is not configured; their routes then answer
// 503.
func NewHandler(processor Processor, sessions statex.Store, store catalog.Store, voiceManager *voice.Manager, streamer contractx.StreamingTransducer) *Handler {
	return &Handler{
		processor: processor,
		sessions:  sessions,
		catalog:   store,
		voice:     voiceManager,
		streamer:  streamer,
		now:       time.Now,
		log:       logx.Component("api"),
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)

	e.POST("/api/session", h.CreateSession)
	e.GET("/api/session/:session_id", h.GetSession)
	e.POST("/api/chat", h.Chat)

	e.POST("/api/cart/add", h.AddToCart)
	e.GET("/api/cart/:session_id", h.GetCart)
	e.DELETE("/api/cart/:session_id", h.ClearCart)

	e.GET("/api/products", h.ListProducts)
	e.GET("/api/products/:product_id", h.GetProduct)
	e.GET("/api/categories", h.ListCategories)
	e.GET("/api/stats", h.GetStats)

	e.POST("/api/voice/session", h.CreateVoiceSession)
	e.GET("/api/voice/session/:session_id", h.GetVoiceSession)
	e.DELETE("/api/voice/session/:session_id", h.EndVoiceSession)
	e.POST("/api/voice/text", h.VoiceText)
	e.POST("/api/voice/audio", h.VoiceAudio)
	e.GET("/ws/voice/:session_id", h.StreamVoice)
}

// Health returns service status.
// GET /
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "online",
		"service":   serviceName,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// Package voice runs the voice channel: per-call session registry,
// speech-to-text in, one orchestrator turn, text-to-speech out.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

const channelVoice = "voice"

// emptyTranscriptReply is sent without running the pipeline when the
// transcriber hears nothing usable.
const emptyTranscriptReply = "I didn't catch that. Could you please repeat?"

const welcomeUtterance = "hello"

var (
	ErrSessionNotFound = errors.New("voice session not found")
	ErrSessionEnded    = errors.New("voice session ended")
	ErrNoTransducer    = errors.New("no transducer configured")
)

type State string

const (
	StateConnected  State = "connected"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

// Session is one live voice call. State transitions are driven by the
// manager and only serve observability; they are not synchronization.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Processor runs one conversation turn. The orchestrator satisfies it.
type Processor interface {
	Process(ctx context.Context, sessionID, userID, channel, text string) (contractx.Response, *statex.Session, error)
}

// Result is one completed voice exchange: what was heard, what was
// answered, and optionally the synthesized answer audio.
type Result struct {
	SessionID        string         `json:"session_id"`
	Transcript       string         `json:"transcript,omitempty"`
	Confidence       float64        `json:"confidence,omitempty"`
	Reply            string         `json:"reply"`
	Data             map[string]any `json:"data,omitempty"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	Language         string         `json:"language,omitempty"`
	Mood             string         `json:"mood,omitempty"`
	Audio            []byte         `json:"audio,omitempty"`
	AudioContentType string         `json:"audio_content_type,omitempty"`
}

// Manager owns the voice session registry and drives the
// transcribe/process/synthesize loop. The transducer is optional; without
// one the manager still serves text turns.
type Manager struct {
	processor  Processor
	transducer contractx.Transducer

	mu       sync.Mutex
	sessions map[string]*Session

	now func() time.Time
	log zerolog.Logger
}

func NewManager(processor Processor, transducer contractx.Transducer) (*Manager, error) {
	if processor == nil {
		return nil, errors.New("turn processor is required")
	}
	return &Manager{
		processor:  processor,
		transducer: transducer,
		sessions:   make(map[string]*Session),
		now:        time.Now,
		log:        logx.Component("voice"),
	}, nil
}

// CreateSession registers a new call. A blank userID gets a generated
// anonymous voice identity.
func (m *Manager) CreateSession(userID string) Session {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = "voice_user_" + uuid.NewString()[:8]
	}

	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     StateConnected,
		StartedAt: m.now().UTC(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.log.Info().Str("voice_session_id", session.ID).Str("user_id", userID).Msg("voice session created")
	return *session
}

// SessionCount reports how many calls are currently live.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// GetSession returns a snapshot of the call. Callers get a copy because
// the manager keeps mutating the live record under its lock.
func (m *Manager) GetSession(sessionID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// EndSession drops the call from the registry. Turns still in flight for
// it discard their results when they finish.
func (m *Manager) EndSession(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	m.log.Info().Str("voice_session_id", sessionID).Msg("voice session ended")
	return true
}

func (m *Manager) setState(sessionID string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[sessionID]; ok {
		session.State = state
	}
}

// ProcessAudio transcribes the utterance and runs it as a turn. An empty
// transcript is answered with a canned repeat prompt and does not reach
// the pipeline.
func (m *Manager) ProcessAudio(ctx context.Context, sessionID string, audio []byte, mimeType string) (Result, error) {
	session, ok := m.GetSession(sessionID)
	if !ok {
		return Result{}, ErrSessionNotFound
	}
	if m.transducer == nil {
		return Result{}, ErrNoTransducer
	}

	m.setState(sessionID, StateProcessing)

	transcript, err := m.transducer.SpeechToText(ctx, audio, mimeType)
	if err != nil {
		m.setState(sessionID, StateListening)
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		result := Result{
			SessionID: sessionID,
			Reply:     emptyTranscriptReply,
		}
		m.synthesize(ctx, sessionID, &result)
		m.setState(sessionID, StateListening)
		return result, nil
	}

	result, err := m.processText(ctx, session, text)
	if err != nil {
		return Result{}, err
	}
	result.Transcript = text
	result.Confidence = transcript.Confidence
	return result, nil
}

// ProcessText runs one turn for a client that did its own speech
// recognition.
func (m *Manager) ProcessText(ctx context.Context, sessionID, text string) (Result, error) {
	session, ok := m.GetSession(sessionID)
	if !ok {
		return Result{}, ErrSessionNotFound
	}
	return m.processText(ctx, session, text)
}

// Welcome greets a fresh call by running a synthetic hello turn, so the
// greeting comes back in the caller's pinned language and mood handling.
func (m *Manager) Welcome(ctx context.Context, sessionID string) (Result, error) {
	return m.ProcessText(ctx, sessionID, welcomeUtterance)
}

// StartStreaming drives a long-lived voice connection: interim
// transcripts go to onInterim, and every utterance-end runs exactly one
// turn whose reply (and audio, when synthesis is configured) goes to
// onReply. Blocks until the stream closes or ctx is cancelled. Utterances
// that finish after the session ended are dropped.
func (m *Manager) StartStreaming(ctx context.Context, sessionID string, stream contractx.StreamingTransducer, audio <-chan []byte, onInterim func(string), onReply func(text string, audio []byte)) error {
	session, ok := m.GetSession(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if stream == nil {
		return ErrNoTransducer
	}

	m.setState(sessionID, StateListening)

	onUtterance := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		result, err := m.processText(ctx, session, text)
		if err != nil {
			if !errors.Is(err, ErrSessionEnded) {
				m.log.Warn().Err(err).Str("voice_session_id", sessionID).Msg("streaming turn failed")
			}
			return
		}
		if onReply != nil {
			onReply(result.Reply, result.Audio)
		}
	}

	return stream.Stream(ctx, audio, onInterim, onUtterance)
}

// Speak synthesizes arbitrary text for a session without running a turn.
func (m *Manager) Speak(ctx context.Context, sessionID, text string) (Result, error) {
	if _, ok := m.GetSession(sessionID); !ok {
		return Result{}, ErrSessionNotFound
	}
	if m.transducer == nil {
		return Result{}, ErrNoTransducer
	}

	m.setState(sessionID, StateSpeaking)
	defer m.setState(sessionID, StateListening)

	audio, err := m.transducer.TextToSpeech(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: %w", err)
	}
	return Result{
		SessionID:        sessionID,
		Reply:            text,
		Audio:            audio.Bytes,
		AudioContentType: audio.ContentType,
	}, nil
}

func (m *Manager) processText(ctx context.Context, session Session, text string) (Result, error) {
	m.setState(session.ID, StateProcessing)

	response, convo, err := m.processor.Process(ctx, session.ID, session.UserID, channelVoice, text)
	if err != nil {
		m.setState(session.ID, StateListening)
		return Result{}, fmt.Errorf("process turn: %w", err)
	}

	// The caller may have hung up while the turn was running.
	if _, ok := m.GetSession(session.ID); !ok {
		m.log.Info().Str("voice_session_id", session.ID).Msg("discarding result for ended session")
		return Result{}, ErrSessionEnded
	}

	result := Result{
		SessionID:        session.ID,
		Reply:            response.Message,
		Data:             response.Data,
		SuggestedActions: response.SuggestedActions,
	}
	if convo != nil {
		result.Language = convo.Language
		result.Mood = convo.Mood
	}

	m.synthesize(ctx, session.ID, &result)
	m.setState(session.ID, StateListening)
	return result, nil
}

// synthesize attaches reply audio when a transducer is configured.
// Synthesis failures degrade the result to text only.
func (m *Manager) synthesize(ctx context.Context, sessionID string, result *Result) {
	if m.transducer == nil || result.Reply == "" {
		return
	}

	m.setState(sessionID, StateSpeaking)
	audio, err := m.transducer.TextToSpeech(ctx, result.Reply)
	if err != nil {
		m.log.Warn().Err(err).Str("voice_session_id", sessionID).Msg("speech synthesis degraded to text only")
		return
	}
	result.Audio = audio.Bytes
	result.AudioContentType = audio.ContentType
}

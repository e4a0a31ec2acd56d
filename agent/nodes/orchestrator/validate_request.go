// Package orchestratornode holds the pipeline steps the orchestrator
// graph is compiled from. Each step is a plain function over *GraphState
// so it can be tested without compiling the graph.
package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	UserID    string
	Channel   string
	Text      string
}

type GraphOutput struct {
	Response contractx.Response
	Session  *statex.Session
}

type GraphState struct {
	SessionID string
	UserID    string
	Channel   string
	Text      string
	Now       time.Time

	Session *statex.Session
	Mood    contractx.MoodResult
	Intent  contractx.IntentResult
	Digest  string

	Response contractx.Response
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		UserID:    strings.TrimSpace(in.UserID),
		Channel:   strings.TrimSpace(in.Channel),
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}

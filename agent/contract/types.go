package contract

import (
	"time"

	"github.com/google/uuid"

	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

type CapabilityID string

const (
	CapabilityOrchestrator   CapabilityID = "orchestrator"
	CapabilityRecommendation CapabilityID = "recommendation"
	CapabilityInventory      CapabilityID = "inventory"
	CapabilityPayment        CapabilityID = "payment"
)

// Message is the envelope handed from the orchestrator to a capability.
// It is created by the sender and consumed exactly once by the receiver.
type Message struct {
	ID        string          `json:"id"`
	From      CapabilityID    `json:"from"`
	To        CapabilityID    `json:"to"`
	Intent    string          `json:"intent"`
	Text      string          `json:"text"`
	Entities  Entities        `json:"entities"`
	Session   *statex.Session `json:"session"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewMessage(from, to CapabilityID, intent, text string, entities Entities, session *statex.Session, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Intent:    intent,
		Text:      text,
		Entities:  entities,
		Session:   session,
		CreatedAt: now.UTC(),
	}
}

// Entities carries the well-known entity keys the classifier may extract.
// Anything outside the closed set lands in Extra so new oracle shapes do
// not break capabilities.
type Entities struct {
	ProductID   string         `json:"product_id,omitempty"`
	ProductName string         `json:"product_name,omitempty"`
	Category    string         `json:"category,omitempty"`
	Quantity    int            `json:"quantity,omitempty"`
	PriceRange  string         `json:"price_range,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Response is what every capability (and the orchestrator's direct
// handling) returns for one turn.
type Response struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	Data             map[string]any `json:"data,omitempty"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	NextCapability   CapabilityID   `json:"next_capability,omitempty"`
}

const fallbackFailureMessage = "I ran into a problem with that request. Could you try again?"

// Failure builds a success=false Response. A failure must always carry a
// user-facing message, so an empty one is replaced with a generic apology.
func Failure(message string, actions ...string) Response {
	if message == "" {
		message = fallbackFailureMessage
	}
	return Response{
		Success:          false,
		Message:          message,
		SuggestedActions: actions,
	}
}

func (r Response) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// LanguageResult is the oracle's language-detection output.
type LanguageResult struct {
	Code       string  `json:"language_code"`
	Name       string  `json:"language_name"`
	Confidence float64 `json:"confidence"`
}

type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodNeutral    Mood = "neutral"
	MoodConfused   Mood = "confused"
	MoodFrustrated Mood = "frustrated"
	MoodAngry      Mood = "angry"
)

// MoodResult is recomputed on every turn; it is never sticky.
type MoodResult struct {
	Mood          Mood     `json:"mood"`
	Confidence    float64  `json:"confidence"`
	Indicators    []string `json:"indicators,omitempty"`
	SuggestedTone string   `json:"suggested_tone"`
}

// IntentResult keeps the intent label as an open string vocabulary; the
// oracle may return labels this codebase has never seen.
type IntentResult struct {
	Intent     string       `json:"intent"`
	Confidence float64      `json:"confidence"`
	Entities   Entities     `json:"entities"`
	Target     CapabilityID `json:"target_capability"`
}

// ReplyRequest is the input to the oracle's free-form reply generation.
type ReplyRequest struct {
	Persona           string
	ContextSummary    string
	AdditionalContext string
	History           []statex.Turn
	UserText          string
}

// Recommendation is one ranked item from the oracle, referencing a
// product id from the candidate set it was shown.
type Recommendation struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
	MoodMatch string `json:"mood_match"`
}

type RankRequest struct {
	Preferences Entities
	Mood        Mood
	Candidates  []RankCandidate
	Limit       int
}

// RankCandidate is the compact product view shown to the oracle.
type RankCandidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// PaymentOutcome is what the payment gateway decides for one charge.
type PaymentOutcome struct {
	Success       bool
	TransactionID string
	ErrorCode     PaymentErrorCode
}

type PaymentErrorCode string

const (
	PaymentDeclined          PaymentErrorCode = "declined"
	PaymentInsufficientFunds PaymentErrorCode = "insufficient_funds"
	PaymentExpiredCard       PaymentErrorCode = "expired"
	PaymentNetworkError      PaymentErrorCode = "network"
	PaymentUnknownError      PaymentErrorCode = "unknown"
)

// Transcript is the synchronous speech-to-text result.
type Transcript struct {
	Success    bool
	Text       string
	Confidence float64
}

// Audio is the synchronous text-to-speech result.
type Audio struct {
	Success     bool
	Bytes       []byte
	ContentType string
}

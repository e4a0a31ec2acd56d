package contract

import (
	"context"

	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

// Capability is the uniform handler contract shared by the worker
// capabilities (recommendation, inventory, payment).
type Capability interface {
	ID() CapabilityID
	Handle(ctx context.Context, msg Message) (Response, error)
}

// Oracle is the language-understanding boundary. Implementations must
// degrade to safe defaults instead of failing a turn: every method
// returns a usable zero-ish result alongside a non-nil error.
type Oracle interface {
	DetectLanguage(ctx context.Context, text string) (LanguageResult, error)
	AnalyzeMood(ctx context.Context, text string, history []statex.Turn) (MoodResult, error)
	ClassifyIntent(ctx context.Context, text string, digest string) (IntentResult, error)
	GenerateReply(ctx context.Context, req ReplyRequest) (string, error)
	RankRecommendations(ctx context.Context, req RankRequest) ([]Recommendation, error)
}

// PaymentGateway decides the outcome of a charge. The production
// implementation is a mock with an injectable decider so tests can force
// both branches deterministically.
type PaymentGateway interface {
	Charge(ctx context.Context, total float64, method string) (PaymentOutcome, error)
}

// Transducer is the audio boundary used by the voice channel.
type Transducer interface {
	SpeechToText(ctx context.Context, audio []byte, mimeType string) (Transcript, error)
	TextToSpeech(ctx context.Context, text string) (Audio, error)
}

// StreamingTransducer delivers interim transcripts via OnInterim and
// signals a finished utterance via OnUtterance; one pipeline run is
// triggered per utterance-end.
type StreamingTransducer interface {
	Stream(ctx context.Context, audio <-chan []byte, onInterim func(string), onUtterance func(string)) error
}

// Publisher pushes fire-and-forget domain events (restock requests,
// order confirmations) to the message queue.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

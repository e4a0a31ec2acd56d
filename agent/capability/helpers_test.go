package capability

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

type fakeOracle struct {
	reply    string
	ranked   []contractx.Recommendation
	rankErr  error
	replyErr error

	lastReplyReq contractx.ReplyRequest
}

func (f *fakeOracle) DetectLanguage(ctx context.Context, text string) (contractx.LanguageResult, error) {
	return contractx.LanguageResult{Code: "en", Name: "English", Confidence: 1}, nil
}

func (f *fakeOracle) AnalyzeMood(ctx context.Context, text string, history []statex.Turn) (contractx.MoodResult, error) {
	return contractx.MoodResult{Mood: contractx.MoodNeutral, Confidence: 1, SuggestedTone: "professional"}, nil
}

func (f *fakeOracle) ClassifyIntent(ctx context.Context, text string, digest string) (contractx.IntentResult, error) {
	return contractx.IntentResult{Intent: "general_question", Target: contractx.CapabilityOrchestrator}, nil
}

func (f *fakeOracle) GenerateReply(ctx context.Context, req contractx.ReplyRequest) (string, error) {
	f.lastReplyReq = req
	if f.replyErr != nil {
		return "I apologize, but I'm having trouble processing your request. Please try again.", f.replyErr
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "Here is what I found.", nil
}

func (f *fakeOracle) RankRecommendations(ctx context.Context, req contractx.RankRequest) ([]contractx.Recommendation, error) {
	return f.ranked, f.rankErr
}

type fakePublisher struct {
	topics   []string
	payloads []any
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestEnsureFollowUpKeepsExistingQuestion(t *testing.T) {
	text := "The item is in stock. Would you like to add it to your cart?"
	if got := ensureFollowUp(text, 80, "probe?"); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestEnsureFollowUpAppendsProbe(t *testing.T) {
	text := "The item is in stock."
	got := ensureFollowUp(text, 80, "Would you like to add it?")
	if !strings.HasSuffix(got, "\n\nWould you like to add it?") {
		t.Errorf("expected probe appended, got %q", got)
	}
}

func TestEnsureFollowUpIgnoresQuestionOutsideWindow(t *testing.T) {
	text := "Any questions? " + strings.Repeat("Details follow. ", 10)
	got := ensureFollowUp(text, 80, "probe question?")
	if got == text {
		t.Error("expected probe appended when question falls outside the window")
	}
}

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/registry"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

type fakeStore struct {
	sessions map[string]*statex.Session
	loadErr  error
	saveErr  error
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*statex.Session)}
}

func cloneSession(s *statex.Session) *statex.Session {
	raw, _ := json.Marshal(s)
	var clone statex.Session
	_ = json.Unmarshal(raw, &clone)
	return &clone
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, statex.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (f *fakeStore) Save(ctx context.Context, s *statex.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[s.ID] = cloneSession(s)
	f.saves++
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

// scriptedOracle pops queued results per operation, repeating the last
// entry once a queue runs dry. Mirrors the real oracle's contract of
// returning a fallback value alongside any error.
type scriptedOracle struct {
	languages []contractx.LanguageResult
	moods     []contractx.MoodResult
	intents   []contractx.IntentResult
	reply     string
	failAll   bool

	langCalls, moodCalls, intentCalls int
}

var errOracleDown = errors.New("oracle unavailable")

func (s *scriptedOracle) DetectLanguage(ctx context.Context, text string) (contractx.LanguageResult, error) {
	s.langCalls++
	if s.failAll {
		return contractx.LanguageResult{Code: "en", Name: "English", Confidence: 0.5}, errOracleDown
	}
	return pop(s.languages, s.langCalls, contractx.LanguageResult{Code: "en", Name: "English", Confidence: 1}), nil
}

func (s *scriptedOracle) AnalyzeMood(ctx context.Context, text string, history []statex.Turn) (contractx.MoodResult, error) {
	s.moodCalls++
	if s.failAll {
		return contractx.MoodResult{Mood: contractx.MoodNeutral, Confidence: 0.5, SuggestedTone: "professional"}, errOracleDown
	}
	return pop(s.moods, s.moodCalls, contractx.MoodResult{Mood: contractx.MoodNeutral, Confidence: 1, SuggestedTone: "professional"}), nil
}

func (s *scriptedOracle) ClassifyIntent(ctx context.Context, text string, digest string) (contractx.IntentResult, error) {
	s.intentCalls++
	if s.failAll {
		return contractx.IntentResult{Intent: "general_question", Confidence: 0.5, Target: contractx.CapabilityOrchestrator}, errOracleDown
	}
	return pop(s.intents, s.intentCalls, contractx.IntentResult{Intent: "general_question", Target: contractx.CapabilityOrchestrator}), nil
}

func (s *scriptedOracle) GenerateReply(ctx context.Context, req contractx.ReplyRequest) (string, error) {
	if s.failAll {
		return "I apologize, but I'm having trouble processing your request. Please try again.", errOracleDown
	}
	if s.reply != "" {
		return s.reply, nil
	}
	return "Happy to help with that.", nil
}

func (s *scriptedOracle) RankRecommendations(ctx context.Context, req contractx.RankRequest) ([]contractx.Recommendation, error) {
	return nil, nil
}

func pop[T any](queue []T, call int, fallback T) T {
	if len(queue) == 0 {
		return fallback
	}
	if call > len(queue) {
		return queue[len(queue)-1]
	}
	return queue[call-1]
}

type recordingCapability struct {
	id   contractx.CapabilityID
	resp contractx.Response
	msgs []contractx.Message
}

func (r *recordingCapability) ID() contractx.CapabilityID { return r.id }

func (r *recordingCapability) Handle(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	r.msgs = append(r.msgs, msg)
	return r.resp, nil
}

func newTestOrchestrator(t *testing.T, store *fakeStore, oracle contractx.Oracle, caps ...contractx.Capability) *Orchestrator {
	t.Helper()
	reg := registry.New()
	for _, c := range caps {
		reg.Register(c)
	}
	o, err := New(store, oracle, reg, Config{})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestProcessGreetingHandledDirectly(t *testing.T) {
	store := newFakeStore()
	oracle := &scriptedOracle{
		intents: []contractx.IntentResult{{Intent: "greeting", Confidence: 0.95, Target: contractx.CapabilityOrchestrator}},
	}
	payment := &recordingCapability{id: contractx.CapabilityPayment, resp: contractx.Response{Success: true, Message: "paid"}}

	o := newTestOrchestrator(t, store, oracle, payment)

	resp, session, err := o.Process(context.Background(), "s1", "u1", "web", "hello!")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("greeting turn failed: %s", resp.Message)
	}
	if !strings.HasPrefix(resp.Message, "Hello!") {
		t.Errorf("reply = %q", resp.Message)
	}
	if len(payment.msgs) != 0 {
		t.Error("greeting must not reach a capability")
	}
	if session == nil || len(session.History) != 2 {
		t.Fatalf("history = %+v", session)
	}

	saved := store.sessions["s1"]
	if saved == nil {
		t.Fatal("session not saved")
	}
	if !saved.LanguagePinned() || saved.Language != "en" {
		t.Errorf("saved language = %q", saved.Language)
	}
}

func TestProcessLanguageStaysPinnedAcrossTurns(t *testing.T) {
	store := newFakeStore()
	oracle := &scriptedOracle{
		languages: []contractx.LanguageResult{{Code: "es", Name: "Spanish", Confidence: 0.9}, {Code: "en", Name: "English", Confidence: 0.9}},
		intents:   []contractx.IntentResult{{Intent: "greeting", Target: contractx.CapabilityOrchestrator}},
	}

	o := newTestOrchestrator(t, store, oracle)

	if _, _, err := o.Process(context.Background(), "s1", "u1", "web", "hola"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := o.Process(context.Background(), "s1", "u1", "web", "thanks anyway"); err != nil {
		t.Fatal(err)
	}

	if oracle.langCalls != 1 {
		t.Errorf("language detected %d times, want 1 (sticky)", oracle.langCalls)
	}
	if got := store.sessions["s1"].Language; got != "es" {
		t.Errorf("language = %q after second turn, want es", got)
	}
}

func TestProcessMoodRecomputedEveryTurn(t *testing.T) {
	store := newFakeStore()
	oracle := &scriptedOracle{
		moods: []contractx.MoodResult{
			{Mood: contractx.MoodHappy, Confidence: 0.9, SuggestedTone: "enthusiastic"},
			{Mood: contractx.MoodFrustrated, Confidence: 0.8, SuggestedTone: "empathetic"},
		},
		intents: []contractx.IntentResult{{Intent: "general_question", Target: contractx.CapabilityOrchestrator}},
	}

	o := newTestOrchestrator(t, store, oracle)

	if _, _, err := o.Process(context.Background(), "s1", "u1", "web", "this is great"); err != nil {
		t.Fatal(err)
	}
	if got := store.sessions["s1"].Mood; got != "happy" {
		t.Errorf("mood = %q after first turn", got)
	}

	if _, _, err := o.Process(context.Background(), "s1", "u1", "web", "nothing works"); err != nil {
		t.Fatal(err)
	}
	if got := store.sessions["s1"].Mood; got != "frustrated" {
		t.Errorf("mood = %q after second turn, want frustrated", got)
	}
}

func TestProcessConfirmationRoutesToCheckout(t *testing.T) {
	store := newFakeStore()
	seeded := statex.NewSession("s1", "u1", "web", nowFixture())
	seeded.SetLanguage("en", "English")
	seeded.AppendHistory(statex.RoleUser, "I want to buy these headphones", nowFixture(), 20)
	seeded.AppendHistory(statex.RoleAssistant, "Sure! Shall I proceed to checkout?", nowFixture(), 20)
	store.sessions["s1"] = seeded

	oracle := &scriptedOracle{
		intents: []contractx.IntentResult{{Intent: "confirm_action", Confidence: 0.8, Target: contractx.CapabilityOrchestrator}},
	}
	payment := &recordingCapability{id: contractx.CapabilityPayment, resp: contractx.Response{Success: true, Message: "Order confirmed!"}}

	o := newTestOrchestrator(t, store, oracle, payment)

	resp, _, err := o.Process(context.Background(), "s1", "u1", "web", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Order confirmed!" {
		t.Errorf("reply = %q", resp.Message)
	}
	if len(payment.msgs) != 1 {
		t.Fatalf("payment calls = %d, want 1", len(payment.msgs))
	}
	if payment.msgs[0].Intent != "checkout" {
		t.Errorf("dispatched intent = %q, want checkout", payment.msgs[0].Intent)
	}
}

func TestProcessOracleOutageStillAnswers(t *testing.T) {
	store := newFakeStore()
	oracle := &scriptedOracle{failAll: true}

	o := newTestOrchestrator(t, store, oracle)

	resp, _, err := o.Process(context.Background(), "s1", "u1", "web", "do you have lamps?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message == "" {
		t.Fatal("degraded turn must still carry a reply")
	}
	if store.sessions["s1"] == nil {
		t.Error("session must be saved even on a degraded turn")
	}
	if got := store.sessions["s1"].Language; got != "en" {
		t.Errorf("fallback language = %q, want en", got)
	}
}

func TestProcessRejectsBlankInput(t *testing.T) {
	o := newTestOrchestrator(t, newFakeStore(), &scriptedOracle{})

	if _, _, err := o.Process(context.Background(), "", "u1", "web", "hi"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("err = %v, want ErrInvalidSession", err)
	}
	if _, _, err := o.Process(context.Background(), "s1", "u1", "web", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("err = %v, want ErrInvalidMessage", err)
	}
}

func TestProcessStoreOutageDegrades(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("redis unreachable")

	o := newTestOrchestrator(t, store, &scriptedOracle{})

	resp, _, err := o.Process(context.Background(), "s1", "u1", "web", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success {
		t.Error("expected degraded failure response")
	}
	if resp.Message == "" {
		t.Error("degraded response must carry a message")
	}
}

func nowFixture() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

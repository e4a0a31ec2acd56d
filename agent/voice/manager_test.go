package voice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

func nowForVoiceTests() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

type fakeTransducer struct {
	transcript contractx.Transcript
	sttErr     error

	audio  contractx.Audio
	ttsErr error

	spoken []string
}

func (f *fakeTransducer) SpeechToText(ctx context.Context, audio []byte, mimeType string) (contractx.Transcript, error) {
	if f.sttErr != nil {
		return contractx.Transcript{}, f.sttErr
	}
	return f.transcript, nil
}

func (f *fakeTransducer) TextToSpeech(ctx context.Context, text string) (contractx.Audio, error) {
	f.spoken = append(f.spoken, text)
	if f.ttsErr != nil {
		return contractx.Audio{}, f.ttsErr
	}
	return f.audio, nil
}

type fakeProcessor struct {
	response contractx.Response
	session  *statex.Session
	err      error

	calls    int
	lastText string

	// onProcess runs mid-turn, before the result is returned.
	onProcess func()
}

func (f *fakeProcessor) Process(ctx context.Context, sessionID, userID, channel, text string) (contractx.Response, *statex.Session, error) {
	f.calls++
	f.lastText = text
	if f.onProcess != nil {
		f.onProcess()
	}
	if f.err != nil {
		return contractx.Response{}, nil, f.err
	}
	return f.response, f.session, nil
}

func newVoiceFixture(t *testing.T, processor *fakeProcessor, transducer contractx.Transducer) (*Manager, Session) {
	t.Helper()
	manager, err := NewManager(processor, transducer)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	session := manager.CreateSession("user-1")
	return manager, session
}

func TestCreateSessionGeneratesAnonymousUser(t *testing.T) {
	manager, err := NewManager(&fakeProcessor{}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	session := manager.CreateSession("  ")
	if !strings.HasPrefix(session.UserID, "voice_user_") {
		t.Fatalf("user id = %q, want voice_user_ prefix", session.UserID)
	}
	if session.State != StateConnected {
		t.Fatalf("state = %q, want %q", session.State, StateConnected)
	}
	if _, ok := manager.GetSession(session.ID); !ok {
		t.Fatal("created session not registered")
	}
}

func TestGetSessionReturnsSnapshot(t *testing.T) {
	processor := &fakeProcessor{response: contractx.Response{Message: "done"}}
	manager, session := newVoiceFixture(t, processor, nil)

	snapshot, ok := manager.GetSession(session.ID)
	if !ok {
		t.Fatal("session not found")
	}

	if _, err := manager.ProcessText(context.Background(), session.ID, "show lamps"); err != nil {
		t.Fatal(err)
	}
	if snapshot.State != StateConnected {
		t.Errorf("snapshot mutated to %q, GetSession must return a copy", snapshot.State)
	}
	if got, _ := manager.GetSession(session.ID); got.State != StateListening {
		t.Errorf("state = %q, want %q", got.State, StateListening)
	}
}

func TestProcessTextSynthesizesReply(t *testing.T) {
	convo := statex.NewSession("s", "user-1", "voice", nowForVoiceTests())
	convo.SetLanguage("es", "Spanish")
	convo.SetMood("happy", 0.9, "warm")

	processor := &fakeProcessor{
		response: contractx.Response{
			Success:          true,
			Message:          "¡Aquí tienes!",
			SuggestedActions: []string{"view_cart"},
		},
		session: convo,
	}
	transducer := &fakeTransducer{
		audio: contractx.Audio{Success: true, Bytes: []byte("pcm"), ContentType: "audio/wav"},
	}
	manager, session := newVoiceFixture(t, processor, transducer)

	result, err := manager.ProcessText(context.Background(), session.ID, "quiero una lampara")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if result.Reply != "¡Aquí tienes!" {
		t.Fatalf("reply = %q", result.Reply)
	}
	if result.Language != "es" || result.Mood != "happy" {
		t.Fatalf("context = %q/%q, want es/happy", result.Language, result.Mood)
	}
	if string(result.Audio) != "pcm" || result.AudioContentType != "audio/wav" {
		t.Fatalf("audio = %q (%q)", result.Audio, result.AudioContentType)
	}
	if processor.lastText != "quiero una lampara" {
		t.Fatalf("processor saw %q", processor.lastText)
	}
	if got, _ := manager.GetSession(session.ID); got.State != StateListening {
		t.Fatalf("state after turn = %q, want %q", got.State, StateListening)
	}
}

func TestProcessTextSynthesisFailureDegradesToText(t *testing.T) {
	processor := &fakeProcessor{
		response: contractx.Response{Success: true, Message: "Here you go."},
	}
	transducer := &fakeTransducer{ttsErr: errors.New("deepgram down")}
	manager, session := newVoiceFixture(t, processor, transducer)

	result, err := manager.ProcessText(context.Background(), session.ID, "show lamps")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if result.Reply != "Here you go." {
		t.Fatalf("reply = %q", result.Reply)
	}
	if result.Audio != nil {
		t.Fatal("expected no audio after synthesis failure")
	}
}

func TestProcessTextUnknownSession(t *testing.T) {
	manager, _ := newVoiceFixture(t, &fakeProcessor{}, nil)

	if _, err := manager.ProcessText(context.Background(), "missing", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestProcessTextDiscardsResultForEndedSession(t *testing.T) {
	processor := &fakeProcessor{
		response: contractx.Response{Success: true, Message: "too late"},
	}
	manager, session := newVoiceFixture(t, processor, nil)
	processor.onProcess = func() { manager.EndSession(session.ID) }

	_, err := manager.ProcessText(context.Background(), session.ID, "checkout")
	if !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("err = %v, want ErrSessionEnded", err)
	}
}

func TestProcessAudioEmptyTranscriptSkipsPipeline(t *testing.T) {
	processor := &fakeProcessor{}
	transducer := &fakeTransducer{
		transcript: contractx.Transcript{Success: true, Text: "   "},
		audio:      contractx.Audio{Success: true, Bytes: []byte("wav"), ContentType: "audio/wav"},
	}
	manager, session := newVoiceFixture(t, processor, transducer)

	result, err := manager.ProcessAudio(context.Background(), session.ID, []byte("noise"), "audio/wav")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	if result.Reply != emptyTranscriptReply {
		t.Fatalf("reply = %q", result.Reply)
	}
	if processor.calls != 0 {
		t.Fatalf("processor ran %d times for empty transcript", processor.calls)
	}
	if string(result.Audio) != "wav" {
		t.Fatal("repeat prompt should still be synthesized")
	}
}

func TestProcessAudioRunsTurnWithTranscript(t *testing.T) {
	processor := &fakeProcessor{
		response: contractx.Response{Success: true, Message: "We have three lamps."},
	}
	transducer := &fakeTransducer{
		transcript: contractx.Transcript{Success: true, Text: "do you have lamps", Confidence: 0.93},
		audio:      contractx.Audio{Success: true, Bytes: []byte("wav"), ContentType: "audio/wav"},
	}
	manager, session := newVoiceFixture(t, processor, transducer)

	result, err := manager.ProcessAudio(context.Background(), session.ID, []byte("pcm"), "audio/wav")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	if result.Transcript != "do you have lamps" || result.Confidence != 0.93 {
		t.Fatalf("transcript = %q (%v)", result.Transcript, result.Confidence)
	}
	if processor.lastText != "do you have lamps" {
		t.Fatalf("processor saw %q", processor.lastText)
	}
}

func TestProcessAudioWithoutTransducer(t *testing.T) {
	manager, session := newVoiceFixture(t, &fakeProcessor{}, nil)

	if _, err := manager.ProcessAudio(context.Background(), session.ID, []byte("pcm"), "audio/wav"); !errors.Is(err, ErrNoTransducer) {
		t.Fatalf("err = %v, want ErrNoTransducer", err)
	}
}

func TestEndSession(t *testing.T) {
	manager, session := newVoiceFixture(t, &fakeProcessor{}, nil)

	if !manager.EndSession(session.ID) {
		t.Fatal("EndSession returned false for live session")
	}
	if manager.EndSession(session.ID) {
		t.Fatal("EndSession returned true for ended session")
	}
	if _, ok := manager.GetSession(session.ID); ok {
		t.Fatal("ended session still registered")
	}
}

type scriptedStream struct {
	utterances []string
}

func (s *scriptedStream) Stream(ctx context.Context, audio <-chan []byte, onInterim func(string), onUtterance func(string)) error {
	for _, u := range s.utterances {
		if onInterim != nil {
			onInterim(u)
		}
		onUtterance(u)
	}
	return nil
}

func TestStartStreamingRunsOneTurnPerUtterance(t *testing.T) {
	processor := &fakeProcessor{
		response: contractx.Response{Success: true, Message: "Noted."},
	}
	manager, session := newVoiceFixture(t, processor, nil)

	stream := &scriptedStream{utterances: []string{"show me lamps", "   ", "add the desk lamp"}}
	var replies []string
	err := manager.StartStreaming(context.Background(), session.ID, stream, nil,
		nil,
		func(text string, audio []byte) { replies = append(replies, text) },
	)
	if err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if processor.calls != 2 {
		t.Fatalf("turns = %d, want 2 (blank utterance skipped)", processor.calls)
	}
	if len(replies) != 2 || replies[0] != "Noted." {
		t.Fatalf("replies = %v", replies)
	}
	if processor.lastText != "add the desk lamp" {
		t.Fatalf("last turn text = %q", processor.lastText)
	}
}

func TestStartStreamingRequiresLiveSession(t *testing.T) {
	manager, _ := newVoiceFixture(t, &fakeProcessor{}, nil)

	err := manager.StartStreaming(context.Background(), "missing", &scriptedStream{}, nil, nil, nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestWelcomeRunsHelloTurn(t *testing.T) {
	processor := &fakeProcessor{
		response: contractx.Response{Success: true, Message: "Welcome to the store!"},
	}
	manager, session := newVoiceFixture(t, processor, nil)

	result, err := manager.Welcome(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Welcome: %v", err)
	}
	if processor.lastText != welcomeUtterance {
		t.Fatalf("processor saw %q, want %q", processor.lastText, welcomeUtterance)
	}
	if result.Reply != "Welcome to the store!" {
		t.Fatalf("reply = %q", result.Reply)
	}
}

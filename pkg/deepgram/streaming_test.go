package deepgram

import (
	"strings"
	"testing"
)

func TestStreamStateAccumulatesFinals(t *testing.T) {
	state := &streamState{}
	var interims, utterances []string
	onInterim := func(s string) { interims = append(interims, s) }
	onUtterance := func(s string) { utterances = append(utterances, s) }

	frames := []string{
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"show me"}]}}`,
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"show me some"}]}}`,
		`{"type":"SpeechStarted"}`,
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"desk lamps"}]}}`,
		`{"type":"UtteranceEnd"}`,
		`{"type":"UtteranceEnd"}`,
	}
	for _, frame := range frames {
		if err := state.handle([]byte(frame), onInterim, onUtterance); err != nil {
			t.Fatal(err)
		}
	}

	if len(interims) != 1 || interims[0] != "show me" {
		t.Errorf("interims = %v", interims)
	}
	if len(utterances) != 1 || utterances[0] != "show me some desk lamps" {
		t.Errorf("utterances = %v, want one accumulated utterance", utterances)
	}
}

func TestStreamStateBlankResultsIgnored(t *testing.T) {
	state := &streamState{}
	fired := false
	onUtterance := func(string) { fired = true }

	frames := []string{
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"  "}]}}`,
		`{"type":"UtteranceEnd"}`,
	}
	for _, frame := range frames {
		if err := state.handle([]byte(frame), nil, onUtterance); err != nil {
			t.Fatal(err)
		}
	}
	if fired {
		t.Error("utterance fired with no final transcript")
	}
}

func TestStreamStateErrorFrame(t *testing.T) {
	state := &streamState{}
	err := state.handle([]byte(`{"type":"Error","description":"bad audio"}`), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "bad audio") {
		t.Errorf("err = %v", err)
	}
}

package voice

import (
	"context"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/deepgram"
)

// DeepgramTransducer adapts the Deepgram REST client to the audio
// boundary the voice manager speaks.
type DeepgramTransducer struct {
	client *deepgram.Client
}

func NewDeepgramTransducer(client *deepgram.Client) *DeepgramTransducer {
	return &DeepgramTransducer{client: client}
}

func (t *DeepgramTransducer) SpeechToText(ctx context.Context, audio []byte, mimeType string) (contractx.Transcript, error) {
	text, confidence, err := t.client.SpeechToText(ctx, audio, mimeType)
	if err != nil {
		return contractx.Transcript{}, err
	}
	return contractx.Transcript{
		Success:    true,
		Text:       text,
		Confidence: confidence,
	}, nil
}

func (t *DeepgramTransducer) TextToSpeech(ctx context.Context, text string) (contractx.Audio, error) {
	audio, contentType, err := t.client.TextToSpeech(ctx, text)
	if err != nil {
		return contractx.Audio{}, err
	}
	return contractx.Audio{
		Success:     true,
		Bytes:       audio,
		ContentType: contentType,
	}, nil
}

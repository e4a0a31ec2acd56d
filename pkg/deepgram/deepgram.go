// Package deepgram wraps Deepgram's REST API for speech-to-text and
// text-to-speech.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.deepgram.com"

type Config struct {
	APIKey   string        `split_words:"true" required:"true"`
	BaseURL  string        `split_words:"true" default:"https://api.deepgram.com"`
	STTModel string        `envconfig:"STT_MODEL" default:"nova-2"`
	TTSVoice string        `envconfig:"TTS_VOICE" default:"aura-asteria-en"`
	Timeout  time.Duration `split_words:"true" default:"30s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	sttModel   string
	ttsVoice   string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("deepgram api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sttModel := strings.TrimSpace(cfg.STTModel)
	if sttModel == "" {
		sttModel = "nova-2"
	}

	ttsVoice := strings.TrimSpace(cfg.TTSVoice)
	if ttsVoice == "" {
		ttsVoice = "aura-asteria-en"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		sttModel: sttModel,
		ttsVoice: ttsVoice,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type transcriptionResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// SpeechToText transcribes a complete audio clip.
func (c *Client) SpeechToText(ctx context.Context, audio []byte, mimeType string) (string, float64, error) {
	if len(audio) == 0 {
		return "", 0, errors.New("audio payload is empty")
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "audio/wav"
	}

	query := url.Values{}
	query.Set("model", c.sttModel)
	query.Set("smart_format", "true")
	endpoint := c.baseURL + "/v1/listen?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", 0, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("execute transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("deepgram http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("decode transcription response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", 0, errors.New("transcription response has no alternatives")
	}

	best := parsed.Results.Channels[0].Alternatives[0]
	return best.Transcript, best.Confidence, nil
}

// TextToSpeech synthesizes spoken audio for the text and returns the raw
// bytes together with the response content type.
func (c *Client) TextToSpeech(ctx context.Context, text string) ([]byte, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", errors.New("text is empty")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, "", fmt.Errorf("marshal synthesis payload: %w", err)
	}

	query := url.Values{}
	query.Set("model", c.ttsVoice)
	endpoint := c.baseURL + "/v1/speak?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("execute synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("deepgram http status=%d body=%s", resp.StatusCode, string(raw))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read synthesis response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}

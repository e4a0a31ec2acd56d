package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamUtteranceEndMS = "1000"
	streamKeepAliveEvery = 5 * time.Second
)

// streamEvent is one JSON frame on the live transcription socket.
type streamEvent struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
	Description string `json:"description"`
}

func (e *streamEvent) transcript() string {
	if len(e.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(e.Channel.Alternatives[0].Transcript)
}

// streamState accumulates final transcript segments until Deepgram
// signals the end of the utterance.
type streamState struct {
	finals []string
}

func (s *streamState) handle(raw []byte, onInterim, onUtterance func(string)) error {
	var event streamEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("decode stream event: %w", err)
	}

	switch event.Type {
	case "Results":
		text := event.transcript()
		if text == "" {
			return nil
		}
		if event.IsFinal {
			s.finals = append(s.finals, text)
			return nil
		}
		if onInterim != nil {
			onInterim(text)
		}
	case "UtteranceEnd":
		if len(s.finals) == 0 {
			return nil
		}
		text := strings.Join(s.finals, " ")
		s.finals = s.finals[:0]
		if onUtterance != nil {
			onUtterance(text)
		}
	case "Error":
		return fmt.Errorf("deepgram stream error: %s", event.Description)
	}
	return nil
}

// Stream runs a live transcription connection. Audio chunks read from
// audio are forwarded as they arrive, interim transcripts go to
// onInterim, and every utterance end yields one onUtterance call with
// the accumulated final transcript. Blocks until the audio channel
// closes, ctx is cancelled, or the connection drops.
func (c *Client) Stream(ctx context.Context, audio <-chan []byte, onInterim func(string), onUtterance func(string)) error {
	endpoint, err := c.streamURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+c.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial deepgram stream: status=%d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial deepgram stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblocks the reader when the caller cancels or the writer fails.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	writeErr := make(chan error, 1)
	go func() {
		err := c.pumpAudio(ctx, conn, audio)
		writeErr <- err
		if err != nil {
			cancel()
		}
	}()

	state := &streamState{}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			select {
			case werr := <-writeErr:
				if werr != nil {
					return werr
				}
			default:
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream message: %w", err)
		}
		if err := state.handle(raw, onInterim, onUtterance); err != nil {
			return err
		}
	}
}

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = "/v1/listen"

	query := url.Values{}
	query.Set("model", c.sttModel)
	query.Set("smart_format", "true")
	query.Set("punctuate", "true")
	query.Set("interim_results", "true")
	query.Set("utterance_end_ms", streamUtteranceEndMS)
	query.Set("vad_events", "true")
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// pumpAudio forwards caller audio to the socket and tells Deepgram to
// close the stream once the channel drains.
func (c *Client) pumpAudio(ctx context.Context, conn *websocket.Conn, audio <-chan []byte) error {
	ticker := time.NewTicker(streamKeepAliveEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
			return ctx.Err()
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`)); err != nil {
				return fmt.Errorf("write keepalive: %w", err)
			}
		case chunk, ok := <-audio:
			if !ok {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
					return fmt.Errorf("close stream: %w", err)
				}
				return nil
			}
			if len(chunk) == 0 {
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				return fmt.Errorf("write audio chunk: %w", err)
			}
		}
	}
}

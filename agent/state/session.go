package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// LanguageAuto is the sentinel meaning "detect on the next turn".
const LanguageAuto = "auto"

// Session is the per-conversation source of truth: language (sticky once
// pinned), mood (recomputed every turn), cart, and a bounded rolling
// conversation history.
type Session struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`

	Language     string `json:"language"`
	LanguageName string `json:"language_name,omitempty"`

	Mood           string  `json:"mood"`
	MoodConfidence float64 `json:"mood_confidence"`
	SuggestedTone  string  `json:"suggested_tone"`

	Cart    []CartLine `json:"cart,omitempty"`
	History []Turn     `json:"conversation_history,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// CartLine is one product in the cart. The cart holds at most one line
// per product id; repeated adds increment the quantity.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidLine    = errors.New("cart line is invalid")
)

func NewSession(id, userID, channel string, now time.Time) *Session {
	return &Session{
		ID:             id,
		UserID:         userID,
		Channel:        channel,
		Language:       LanguageAuto,
		Mood:           "neutral",
		MoodConfidence: 0,
		SuggestedTone:  "professional",
		CreatedAt:      now.UTC(),
		LastActivity:   now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

// LanguagePinned reports whether language detection already happened for
// this conversation. A pinned language is never re-detected.
func (s *Session) LanguagePinned() bool {
	return s != nil && s.Language != "" && s.Language != LanguageAuto
}

func (s *Session) SetLanguage(code, name string) {
	if code == "" {
		return
	}
	s.Language = code
	s.LanguageName = name
}

func (s *Session) SetMood(mood string, confidence float64, tone string) {
	if mood == "" {
		mood = "neutral"
	}
	if tone == "" {
		tone = "professional"
	}
	s.Mood = mood
	s.MoodConfidence = confidence
	s.SuggestedTone = tone
}

/* -------------------------------- Cart ---------------------------------- */

// AddCartLine merges by product id: adding the same product twice yields
// one line with the summed quantity.
func (s *Session) AddCartLine(line CartLine) error {
	if line.ProductID == "" || line.Quantity < 1 {
		return ErrInvalidLine
	}
	for i := range s.Cart {
		if s.Cart[i].ProductID == line.ProductID {
			s.Cart[i].Quantity += line.Quantity
			return nil
		}
	}
	s.Cart = append(s.Cart, line)
	return nil
}

func (s *Session) ClearCart() {
	s.Cart = nil
}

func (s *Session) CartItemCount() int {
	total := 0
	for _, line := range s.Cart {
		total += line.Quantity
	}
	return total
}

/* ------------------------------- History --------------------------------- */

// AppendHistory appends a turn and evicts oldest entries first once the
// history exceeds max. max <= 0 means unbounded.
func (s *Session) AppendHistory(role Role, text string, now time.Time, max int) {
	s.History = append(s.History, Turn{
		Role:      role,
		Text:      text,
		Timestamp: now.UTC(),
	})
	if max > 0 && len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// RecentHistory returns the trailing n turns (fewer if the history is
// shorter).
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

const digestTurnClip = 100

// Digest renders the trailing n turns as "role: text" lines, each clipped
// to 100 characters. It is the disambiguation context for intent
// classification and confirmation resolution.
func (s *Session) Digest(n int) string {
	recent := s.RecentHistory(n)
	if len(recent) == 0 {
		return ""
	}
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		text := t.Text
		if utf8.RuneCountInString(text) > digestTurnClip {
			text = string([]rune(text)[:digestTurnClip])
		}
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, text))
	}
	return strings.Join(lines, "\n")
}

// ContextSummary is the compact session view handed to reply generation.
func (s *Session) ContextSummary() string {
	return fmt.Sprintf(
		"Session Context:\n- Language: %s\n- Mood: %s (%.0f%% confidence)\n- Cart Items: %d\n- User ID: %s\n- Channel: %s",
		s.languageOrDefault(), s.Mood, s.MoodConfidence*100, len(s.Cart), s.userOrAnonymous(), s.channelOrWeb(),
	)
}

func (s *Session) languageOrDefault() string {
	if s.Language == "" {
		return "en"
	}
	return s.Language
}

func (s *Session) userOrAnonymous() string {
	if s.UserID == "" {
		return "anonymous"
	}
	return s.UserID
}

func (s *Session) channelOrWeb() string {
	if s.Channel == "" {
		return "web"
	}
	return s.Channel
}

func (s *Session) Validate() error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	seen := make(map[string]struct{}, len(s.Cart))
	for _, line := range s.Cart {
		if line.ProductID == "" || line.Quantity < 1 {
			return fmt.Errorf("%w: product=%q quantity=%d", ErrInvalidLine, line.ProductID, line.Quantity)
		}
		if _, dup := seen[line.ProductID]; dup {
			return fmt.Errorf("%w: duplicate line for product=%s", ErrInvalidLine, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

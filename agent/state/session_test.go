package state

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestAddCartLineMergesByProductID(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)

	if err := s.AddCartLine(CartLine{ProductID: "p1", Name: "Mug", Price: 9.5, Quantity: 2}); err != nil {
		t.Fatalf("AddCartLine failed: %v", err)
	}
	if err := s.AddCartLine(CartLine{ProductID: "p1", Name: "Mug", Price: 9.5, Quantity: 2}); err != nil {
		t.Fatalf("AddCartLine failed: %v", err)
	}

	if len(s.Cart) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(s.Cart))
	}
	if s.Cart[0].Quantity != 4 {
		t.Fatalf("expected merged quantity=4, got %d", s.Cart[0].Quantity)
	}
}

func TestAddCartLineRejectsInvalid(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)

	if err := s.AddCartLine(CartLine{ProductID: "", Quantity: 1}); err == nil {
		t.Fatal("expected error for empty product id")
	}
	if err := s.AddCartLine(CartLine{ProductID: "p1", Quantity: 0}); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestCartItemCountSumsQuantities(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)
	_ = s.AddCartLine(CartLine{ProductID: "p1", Quantity: 2})
	_ = s.AddCartLine(CartLine{ProductID: "p2", Quantity: 1})

	if got := s.CartItemCount(); got != 3 {
		t.Fatalf("expected item count=3, got %d", got)
	}
}

func TestAppendHistoryEvictsOldestFirst(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)

	texts := []string{"a", "b", "c", "d", "e"}
	for _, text := range texts {
		s.AppendHistory(RoleUser, text, testNow, 3)
	}

	if len(s.History) != 3 {
		t.Fatalf("expected history bounded to 3, got %d", len(s.History))
	}
	for i, want := range []string{"c", "d", "e"} {
		if s.History[i].Text != want {
			t.Fatalf("history[%d]=%q, want %q", i, s.History[i].Text, want)
		}
	}
}

func TestDigestFormatsRecentTurns(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)
	s.AppendHistory(RoleUser, "do you have headphones in stock?", testNow, 20)
	s.AppendHistory(RoleAssistant, "Yes, in stock. Want me to add them to your cart?", testNow, 20)

	digest := s.Digest(4)
	if !strings.Contains(digest, "user: do you have headphones in stock?") {
		t.Fatalf("digest missing user line: %q", digest)
	}
	if !strings.Contains(digest, "assistant: ") {
		t.Fatalf("digest missing assistant line: %q", digest)
	}
}

func TestDigestClipsLongTurns(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)
	long := strings.Repeat("x", 300)
	s.AppendHistory(RoleUser, long, testNow, 20)

	digest := s.Digest(4)
	if len(digest) > len("user: ")+digestTurnClip {
		t.Fatalf("digest line not clipped, len=%d", len(digest))
	}
}

func TestDigestClipsOnRuneBoundaries(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)
	long := strings.Repeat("नमस्ते! मैं आपका रिटेल असिस्टेंट हूं। ", 20)
	s.AppendHistory(RoleUser, long, testNow, 20)

	digest := s.Digest(4)
	if !utf8.ValidString(digest) {
		t.Fatalf("clipped digest is not valid UTF-8: %q", digest)
	}
	if got := utf8.RuneCountInString(digest); got > utf8.RuneCountInString("user: ")+digestTurnClip {
		t.Fatalf("digest line not clipped, runes=%d", got)
	}
}

func TestLanguagePinned(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)
	if s.LanguagePinned() {
		t.Fatal("fresh session must not report a pinned language")
	}

	s.SetLanguage("es", "Spanish")
	if !s.LanguagePinned() {
		t.Fatal("expected language pinned after SetLanguage")
	}
}

func TestValidateRejectsDuplicateCartLines(t *testing.T) {
	s := NewSession("s1", "u1", "web", testNow)
	s.Cart = []CartLine{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected validation error for duplicate cart lines")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := NewSession("s1", "u1", "voice", testNow)
	s.SetLanguage("en", "English")
	_ = s.AddCartLine(CartLine{ProductID: "p1", Name: "Mug", Price: 9.5, Quantity: 1})

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the original must not leak into the stored copy.
	s.ClearCart()

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Cart) != 1 {
		t.Fatalf("expected stored cart preserved, got %d lines", len(loaded.Cart))
	}
	if loaded.Language != "en" {
		t.Fatalf("expected language=en, got %q", loaded.Language)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, "s1"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

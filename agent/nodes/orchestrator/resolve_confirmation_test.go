package orchestratornode

import (
	"testing"
	"time"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

func confirmationState(digest string) *GraphState {
	return &GraphState{
		SessionID: "s1",
		Text:      "yes",
		Now:       time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Digest:    digest,
		Intent: contractx.IntentResult{
			Intent:     "confirm_action",
			Confidence: 0.9,
			Target:     contractx.CapabilityOrchestrator,
		},
	}
}

func TestResolveConfirmationCheckoutContext(t *testing.T) {
	in, err := ResolveConfirmation(confirmationState(
		"user: I want these headphones\nassistant: Shall I proceed to checkout?"))
	if err != nil {
		t.Fatal(err)
	}
	if in.Intent.Intent != "checkout" {
		t.Errorf("intent = %s, want checkout", in.Intent.Intent)
	}
	if in.Intent.Target != contractx.CapabilityPayment {
		t.Errorf("target = %s, want payment", in.Intent.Target)
	}
}

func TestResolveConfirmationAddToCartContext(t *testing.T) {
	in, err := ResolveConfirmation(confirmationState(
		"assistant: Great pick! Should I add it for you?"))
	if err != nil {
		t.Fatal(err)
	}
	if in.Intent.Intent != "add_to_cart" {
		t.Errorf("intent = %s, want add_to_cart", in.Intent.Intent)
	}
	if in.Intent.Target != contractx.CapabilityPayment {
		t.Errorf("target = %s, want payment", in.Intent.Target)
	}
}

func TestResolveConfirmationStockContextMapsToAddToCart(t *testing.T) {
	in, err := ResolveConfirmation(confirmationState(
		"assistant: The desk lamp is in stock, 4 left."))
	if err != nil {
		t.Fatal(err)
	}
	if in.Intent.Intent != "add_to_cart" {
		t.Errorf("intent = %s, want add_to_cart", in.Intent.Intent)
	}
}

func TestResolveConfirmationCheckoutWinsOverStock(t *testing.T) {
	in, err := ResolveConfirmation(confirmationState(
		"assistant: It's in stock. Ready to checkout?"))
	if err != nil {
		t.Fatal(err)
	}
	if in.Intent.Intent != "checkout" {
		t.Errorf("intent = %s, want checkout (checkout group has precedence)", in.Intent.Intent)
	}
}

func TestResolveConfirmationNoContextPassesThrough(t *testing.T) {
	in, err := ResolveConfirmation(confirmationState(""))
	if err != nil {
		t.Fatal(err)
	}
	if in.Intent.Intent != "confirm_action" {
		t.Errorf("intent = %s, want confirm_action unchanged", in.Intent.Intent)
	}
}

func TestResolveConfirmationOtherIntentUntouched(t *testing.T) {
	state := confirmationState("assistant: Ready to checkout?")
	state.Intent.Intent = "greeting"

	in, err := ResolveConfirmation(state)
	if err != nil {
		t.Fatal(err)
	}
	if in.Intent.Intent != "greeting" {
		t.Errorf("intent = %s, want greeting unchanged", in.Intent.Intent)
	}
}

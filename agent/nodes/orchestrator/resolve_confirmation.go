package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

// Keyword groups checked in order; the first hit wins. The stock group
// maps to add_to_cart: a confirmation right after a stock check means
// "yes, I want it".
var (
	checkoutKeywords  = []string{"checkout", "payment", "purchase", "proceed", "cart", "buy"}
	addToCartKeywords = []string{"add to cart", "add it", "take it"}
	stockKeywords     = []string{"stock", "available", "in stock"}
)

// ResolveConfirmation turns a bare confirm_action intent into the
// concrete action the recent conversation was about. Without a match the
// intent passes through unchanged.
func ResolveConfirmation(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Intent.Intent != "confirm_action" || in.Digest == "" {
		return in, nil
	}

	digest := strings.ToLower(in.Digest)
	switch {
	case containsAny(digest, checkoutKeywords):
		in.Intent.Intent = "checkout"
		in.Intent.Target = contractx.CapabilityPayment
	case containsAny(digest, addToCartKeywords):
		in.Intent.Intent = "add_to_cart"
		in.Intent.Target = contractx.CapabilityPayment
	case containsAny(digest, stockKeywords):
		in.Intent.Intent = "add_to_cart"
		in.Intent.Target = contractx.CapabilityPayment
	}
	return in, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

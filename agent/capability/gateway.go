package capability

import (
	"context"
	"strings"

	"github.com/google/uuid"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

// OutcomeFunc decides the result of a charge. Injecting it lets tests
// force declines deterministically.
type OutcomeFunc func(total float64, method string) contractx.PaymentOutcome

// MockGateway is the stand-in payment processor. It never talks to a real
// provider; the decider owns the verdict.
type MockGateway struct {
	decide OutcomeFunc
}

func NewMockGateway(decide OutcomeFunc) *MockGateway {
	if decide == nil {
		decide = ApproveAll
	}
	return &MockGateway{decide: decide}
}

func (g *MockGateway) Charge(ctx context.Context, total float64, method string) (contractx.PaymentOutcome, error) {
	if err := ctx.Err(); err != nil {
		return contractx.PaymentOutcome{ErrorCode: contractx.PaymentNetworkError}, err
	}
	return g.decide(total, method), nil
}

// ApproveAll is the default decider: every charge succeeds with a fresh
// transaction id.
func ApproveAll(total float64, method string) contractx.PaymentOutcome {
	return contractx.PaymentOutcome{
		Success:       true,
		TransactionID: newTransactionID(),
	}
}

// DeclineAll builds a decider that fails every charge with the given code.
func DeclineAll(code contractx.PaymentErrorCode) OutcomeFunc {
	return func(total float64, method string) contractx.PaymentOutcome {
		return contractx.PaymentOutcome{Success: false, ErrorCode: code}
	}
}

func newTransactionID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

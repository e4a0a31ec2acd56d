package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

// digestTurns covers the last two exchanges; enough context to resolve
// "yes" and "do it" without drowning the classifier in history.
const digestTurns = 4

func ClassifyIntent(ctx context.Context, in *GraphState, oracle contractx.Oracle) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Digest = in.Session.Digest(digestTurns)

	result, err := oracle.ClassifyIntent(ctx, in.Text, in.Digest)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("intent classification degraded to general question")
	}

	in.Intent = result
	return in, nil
}

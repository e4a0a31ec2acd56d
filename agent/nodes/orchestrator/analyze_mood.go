package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

const moodHistoryTurns = 5

// AnalyzeMood runs on every turn; unlike language, mood is never sticky.
func AnalyzeMood(ctx context.Context, in *GraphState, oracle contractx.Oracle) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	result, err := oracle.AnalyzeMood(ctx, in.Text, in.Session.RecentHistory(moodHistoryTurns))
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("mood analysis degraded to neutral")
	}

	in.Mood = result
	in.Session.SetMood(string(result.Mood), result.Confidence, result.SuggestedTone)
	return in, nil
}

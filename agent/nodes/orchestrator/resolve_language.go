package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

// ResolveLanguage pins the session language on the first turn and never
// re-detects afterwards: a conversation that starts in Spanish stays in
// Spanish even if a later message looks English.
func ResolveLanguage(ctx context.Context, in *GraphState, oracle contractx.Oracle, defaultLanguage string) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Session.LanguagePinned() {
		return in, nil
	}

	result, err := oracle.DetectLanguage(ctx, in.Text)
	if err != nil {
		// The oracle's own fallback is not the configured default.
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("language detection degraded to default")
		result.Code = defaultLanguage
		result.Name = ""
	}
	if result.Code == "" {
		result.Code = defaultLanguage
		result.Name = ""
	}

	in.Session.SetLanguage(result.Code, result.Name)
	return in, nil
}

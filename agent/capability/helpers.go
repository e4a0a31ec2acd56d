// Package capability holds the worker capabilities behind the registry:
// recommendation, inventory, and payment. Each one pairs catalog access
// with oracle-generated replies and returns the shared Response envelope.
package capability

import (
	"context"

	"github.com/rs/zerolog"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

const replyHistoryTurns = 10

// replier generates the user-facing text for a capability turn. Oracle
// failures are logged and absorbed; the fallback reply always ships.
type replier struct {
	oracle  contractx.Oracle
	persona string
	log     zerolog.Logger
}

func (r replier) reply(ctx context.Context, session *statex.Session, userText, additionalContext string) string {
	req := contractx.ReplyRequest{
		Persona:           r.persona,
		AdditionalContext: additionalContext,
		UserText:          userText,
	}
	if session != nil {
		req.ContextSummary = session.ContextSummary()
		req.History = session.RecentHistory(replyHistoryTurns)
	}

	text, err := r.oracle.GenerateReply(ctx, req)
	if err != nil {
		r.log.Warn().Err(err).Msg("reply generation degraded to fallback")
	}
	return text
}

// ensureFollowUp appends the probe question unless the reply already ends
// with one inside the trailing window. Keeps the conversation open-ended.
func ensureFollowUp(text string, window int, probe string) string {
	tail := text
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}
	for _, r := range tail {
		if r == '?' {
			return text
		}
	}
	return text + "\n\n" + probe
}

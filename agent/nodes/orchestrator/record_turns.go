package orchestratornode

import (
	"fmt"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

// RecordTurns appends the exchange to the rolling history after routing,
// so mood analysis and intent digests only ever see completed turns.
func RecordTurns(in *GraphState, maxHistory int) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.AppendHistory(statex.RoleUser, in.Text, in.Now, maxHistory)
	if in.Response.Message != "" {
		in.Session.AppendHistory(statex.RoleAssistant, in.Response.Message, in.Now, maxHistory)
	}
	in.Session.Touch(in.Now)
	return in, nil
}

package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

func LoadOrCreateSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	session, err := store.Load(ctx, in.SessionID)
	if err != nil {
		if !errors.Is(err, statex.ErrSessionNotFound) {
			return nil, fmt.Errorf("load session %s: %w", in.SessionID, err)
		}
		session = statex.NewSession(in.SessionID, in.UserID, in.Channel, in.Now)
	}

	in.Session = session
	return in, nil
}

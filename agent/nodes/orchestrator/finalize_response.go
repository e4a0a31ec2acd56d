package orchestratornode

import (
	"fmt"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

func FinalizeResponse(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := in.Response.Validate(); err != nil {
		return GraphOutput{}, fmt.Errorf("turn produced no reply: %w", err)
	}
	return GraphOutput{
		Response: in.Response,
		Session:  in.Session,
	}, nil
}

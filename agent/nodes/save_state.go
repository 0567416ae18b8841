package assistantnode

import (
	"context"
	"fmt"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	statex "github.com/ascend-travel/assistant/agent/state"
)

// SaveState persists the conversation state at the end of a turn.
func SaveState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	in.State.Touch(in.Now)
	if err := in.State.Validate(); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, in.State); err != nil {
		return nil, fmt.Errorf("save conversation state: %w", err)
	}
	return in, nil
}

// BuildOutput shapes the turn's reply for the caller. The reply is the last
// assistant message; structured data is attached only after finalization.
func BuildOutput(_ context.Context, in *GraphState) (*GraphOutput, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	reply := ""
	for i := len(in.State.Messages) - 1; i >= 0; i-- {
		msg := in.State.Messages[i]
		if msg.Role == contractx.RoleAssistant && msg.Content != "" {
			reply = msg.Content
			break
		}
	}
	if reply == "" {
		return nil, fmt.Errorf("%w: turn produced no assistant reply", contractx.ErrSchemaViolation)
	}

	out := &GraphOutput{
		ThreadID: in.ThreadID,
		Reply:    reply,
	}
	if in.State.FinalResult != nil {
		out.StructuredData = in.State.FinalResult
	}
	return out, nil
}

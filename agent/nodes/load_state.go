package assistantnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	statex "github.com/ascend-travel/assistant/agent/state"
)

// LoadOrCreateState fetches the thread's conversation state (creating it for
// a new thread id) and appends the inbound user message to the log.
func LoadOrCreateState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.ThreadID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			return nil, err
		}
		st = statex.NewConversationState(in.ThreadID, in.Now)
	}

	st.Append(contractx.UserMessage(in.Text))
	in.State = st
	return in, nil
}

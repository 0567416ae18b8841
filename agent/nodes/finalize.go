package assistantnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/ascend-travel/assistant/agent/contract"
)

// Finalize distills the conversation into the structured handoff and writes
// the closing summary. Extraction and summarization are all-or-nothing: a
// failure in either fails the turn without recording a partial handoff.
func Finalize(ctx context.Context, in *GraphState, gateway contractx.ModelGateway) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	handoff, err := gateway.Extract(ctx, in.State.Transcript())
	if err != nil {
		return nil, fmt.Errorf("extract handoff: %w", err)
	}
	if handoff.UserQuery == "" {
		handoff.UserQuery = in.State.FirstUserQuery()
	}

	summary, err := gateway.Summarize(ctx, handoff)
	if err != nil {
		return nil, fmt.Errorf("summarize handoff: %w", err)
	}

	in.State.FinalResult = &handoff
	in.State.Append(contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: summary,
	})

	log.Info().
		Str("thread_id", in.ThreadID).
		Str("destination", handoff.InferredDestination).
		Msg("turn finalized")
	return in, nil
}

package assistantnode

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	toolx "github.com/ascend-travel/assistant/agent/tool"
)

// RouteTurn asks the model for the next action and appends its response to
// the message log. When all three slots are filled and no handoff exists yet
// but the model answered with plain text, a finalize invocation is
// synthesized so the turn reaches the finalizer in a bounded number of
// steps.
func RouteTurn(ctx context.Context, in *GraphState, gateway contractx.ModelGateway) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	msg, err := gateway.Route(ctx, contractx.RouteRequest{
		Trip:    in.State.Trip,
		Today:   in.Now.Format("2006-01-02"),
		History: in.State.Messages,
	})
	if err != nil {
		return nil, err
	}

	if !msg.HasToolInvocations() && in.State.Trip.Complete() && in.State.FinalResult == nil {
		log.Debug().
			Str("thread_id", in.ThreadID).
			Msg("all slots filled, forcing finalize invocation")
		msg.ToolInvocations = []contractx.ToolInvocation{{
			ID:   uuid.NewString(),
			Name: toolx.GetTripInformation,
			Args: map[string]any{
				contractx.SlotDestination: in.State.Trip.Destination,
				contractx.SlotStartDate:   in.State.Trip.StartDate,
				contractx.SlotEndDate:     in.State.Trip.EndDate,
			},
		}}
	}

	in.State.Append(msg)
	return in, nil
}

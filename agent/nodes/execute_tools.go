package assistantnode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	toolx "github.com/ascend-travel/assistant/agent/tool"
)

const prematureFinalizeResult = "Trip details are still incomplete. Ask the user for the missing information before searching."

// ExecuteTools runs the tool invocations carried by the last message.
// State-update merges are applied synchronously, in request order, before
// any external call runs; the remaining invocations are dispatched
// concurrently and joined. Every request yields exactly one result message,
// appended in request order and correlated by source invocation id. An
// individual failure becomes a textual error result; it never aborts the
// turn.
func ExecuteTools(ctx context.Context, in *GraphState, catalog contractx.ToolCatalog) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	last, ok := in.State.LastMessage()
	if !ok || !last.HasToolInvocations() {
		return nil, fmt.Errorf("%w: no tool invocations to execute", contractx.ErrValidation)
	}

	invocations := last.ToolInvocations
	results := make([]string, len(invocations))
	pending := make([]int, 0, len(invocations))

	// Local pseudo-tools first: state updates must land before any sibling
	// result is interpreted, and a premature finalize is answered without an
	// external call.
	for i, inv := range invocations {
		switch inv.Name {
		case toolx.UpdateTripInformation:
			applied := in.State.Trip.Merge(inv.Args)
			if len(applied) == 0 {
				results[i] = "No trip details were updated."
			} else {
				results[i] = fmt.Sprintf("Successfully updated trip details: %s.", strings.Join(applied, ", "))
			}
		case toolx.GetTripInformation:
			if !in.State.Trip.Complete() {
				results[i] = prematureFinalizeResult
				continue
			}
			in.FinalizeReady = true
			pending = append(pending, i)
		default:
			if !catalog.Has(inv.Name) {
				results[i] = fmt.Sprintf("Error: unknown tool %q.", inv.Name)
				continue
			}
			pending = append(pending, i)
		}
	}

	var wg sync.WaitGroup
	for _, i := range pending {
		inv := invocations[i]
		wg.Add(1)
		go func(i int, inv contractx.ToolInvocation) {
			defer wg.Done()
			out, err := catalog.Execute(ctx, inv.Name, inv.Args)
			if err != nil {
				log.Warn().
					Err(err).
					Str("thread_id", in.ThreadID).
					Str("tool", inv.Name).
					Msg("tool invocation failed")
				results[i] = fmt.Sprintf("Error executing tool %s: %v", inv.Name, err)
				return
			}
			results[i] = out
		}(i, inv)
	}
	wg.Wait()

	for i, inv := range invocations {
		in.State.Append(contractx.ToolResultMessage(inv.ID, inv.Name, results[i]))
	}
	return in, nil
}

package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	nodex "github.com/ascend-travel/assistant/agent/nodes"
)

const (
	nodeFinalize  = "finalize"
	nodeRouteTurn = "route_turn"
	nodeSaveState = "save_state"

	// Each router round consumes a handful of graph steps. The cap bounds a
	// misbehaving model to a few tool rounds before the run is aborted.
	maxRunSteps = 24
)

func (a *Assistant) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateState(ctx, in, a.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode(nodeRouteTurn,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RouteTurn(ctx, in, a.gateway)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route_turn: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tools",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, a.catalog)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tools: %w", err)
	}

	if err := graph.AddLambdaNode(nodeFinalize,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Finalize(ctx, in, a.gateway)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	if err := graph.AddLambdaNode(nodeSaveState,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, a.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("build_output",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			out, err := nodex.BuildOutput(ctx, in)
			if err != nil {
				return nodex.GraphOutput{}, err
			}
			return *out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_output: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_state"},
		{"load_or_create_state", nodeRouteTurn},
		{nodeFinalize, nodeSaveState},
		{nodeSaveState, "build_output"},
		{"build_output", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	// The router either requests tools or replies to the user directly.
	routeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			last, ok := in.State.LastMessage()
			if !ok {
				return "", fmt.Errorf("%w: router produced no message", contractx.ErrSchemaViolation)
			}
			if nodex.Decide(last) == nodex.PathExecuteTools {
				return "execute_tools", nil
			}
			return nodeSaveState, nil
		},
		map[string]bool{"execute_tools": true, nodeSaveState: true},
	)
	if err := graph.AddBranch(nodeRouteTurn, routeBranch); err != nil {
		return nil, fmt.Errorf("add branch after route_turn: %w", err)
	}

	// Tool results either close the loop back to the router or, once the
	// finalize tool has run with complete slots, proceed to extraction.
	executeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in.FinalizeReady {
				return nodeFinalize, nil
			}
			return nodeRouteTurn, nil
		},
		map[string]bool{nodeFinalize: true, nodeRouteTurn: true},
	)
	if err := graph.AddBranch("execute_tools", executeBranch); err != nil {
		return nil, fmt.Errorf("add branch after execute_tools: %w", err)
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("assistant.handle_message"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		return nil, fmt.Errorf("compile assistant graph: %w", err)
	}
	return runner, nil
}

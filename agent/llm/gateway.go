package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	promptx "github.com/ascend-travel/assistant/agent/prompt"
)

const unknownSlotMarker = "UNKNOWN"

// Gateway implements contract.ModelGateway over three compiled graphs: a
// tool-calling router, a structured extractor and a plain summarizer.
type Gateway struct {
	routeRunner   compose.Runnable[map[string]any, *schema.Message]
	extractRunner compose.Runnable[map[string]any, contractx.Handoff]
	summaryRunner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.ModelGateway = (*Gateway)(nil)

func NewGateway(
	ctx context.Context,
	routerModel einomodel.ToolCallingChatModel,
	extractModel einomodel.BaseChatModel,
	summaryModel einomodel.BaseChatModel,
	tools []*schema.ToolInfo,
	prompts promptx.Set,
) (*Gateway, error) {
	toolModel, err := routerModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for router: %v", contractx.ErrModelInvoke, err)
	}

	routeRunner, err := compileRouterGraph(ctx, toolModel, prompts.Router)
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}
	extractRunner, err := compileExtractGraph(ctx, extractModel, prompts.Extract)
	if err != nil {
		return nil, fmt.Errorf("%w: compile extract graph: %v", contractx.ErrModelInvoke, err)
	}
	summaryRunner, err := compileSummaryGraph(ctx, summaryModel, prompts.Summarize)
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}

	return &Gateway{
		routeRunner:   routeRunner,
		extractRunner: extractRunner,
		summaryRunner: summaryRunner,
	}, nil
}

// Route runs the tool-calling mode: slots and today's date fill the system
// template, the message log is passed through the history placeholder.
func (g *Gateway) Route(ctx context.Context, req contractx.RouteRequest) (contractx.Message, error) {
	msg, err := g.routeRunner.Invoke(ctx, map[string]any{
		"today":       req.Today,
		"destination": slotOrUnknown(req.Trip.Destination),
		"start_date":  slotOrUnknown(req.Trip.StartDate),
		"end_date":    slotOrUnknown(req.Trip.EndDate),
		"history":     toSchemaMessages(req.History),
	})
	if err != nil {
		return contractx.Message{}, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}
	return fromSchemaMessage(msg)
}

// Extract runs the structured-extraction mode over the transcript.
func (g *Gateway) Extract(ctx context.Context, transcript string) (contractx.Handoff, error) {
	if strings.TrimSpace(transcript) == "" {
		return contractx.Handoff{}, fmt.Errorf("%w: transcript is empty", contractx.ErrValidation)
	}

	handoff, err := g.extractRunner.Invoke(ctx, map[string]any{
		"input": transcript,
	})
	if err != nil {
		return contractx.Handoff{}, fmt.Errorf("%w: extract invoke: %v", contractx.ErrModelInvoke, err)
	}
	return handoff, nil
}

// Summarize turns the handoff into the closing natural-language message.
func (g *Gateway) Summarize(ctx context.Context, handoff contractx.Handoff) (string, error) {
	payload, err := json.MarshalIndent(handoff, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal handoff: %v", contractx.ErrValidation, err)
	}

	msg, err := g.summaryRunner.Invoke(ctx, map[string]any{
		"input": string(payload),
	})
	if err != nil {
		return "", fmt.Errorf("%w: summary invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: summary message is empty", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}

func slotOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return unknownSlotMarker
	}
	return v
}

package contract

import "context"

// ModelGateway is the opaque language-model capability consumed by the graph
// nodes. Route is the tool-calling mode, Extract the structured-extraction
// mode, Summarize a plain text generation over the handoff.
type ModelGateway interface {
	Route(ctx context.Context, req RouteRequest) (Message, error)
	Extract(ctx context.Context, transcript string) (Handoff, error)
	Summarize(ctx context.Context, handoff Handoff) (string, error)
}

// ToolCatalog resolves registered operation names to their executable
// handlers. Execute runs a single external operation; the state-update and
// finalize pseudo-tools are interpreted by the tool executor itself.
type ToolCatalog interface {
	Has(name string) bool
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

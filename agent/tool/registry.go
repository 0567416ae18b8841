package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	amadeusx "github.com/ascend-travel/assistant/pkg/amadeus"
	tavilyx "github.com/ascend-travel/assistant/pkg/tavily"
)

// Registered operation names. UpdateTripInformation is the state-update
// pseudo-tool and GetTripInformation the finalize tool; both are interpreted
// by the tool executor rather than dispatched to an external provider.
const (
	UpdateTripInformation = "update_trip_information"
	GetTripInformation    = "get_trip_information"
	FlightPriceSearch     = "flight_price_search"
	LocalEventSearch      = "local_event_search"
	SearchFlights         = "search_flights"
	HotelRecommendation   = "hotel_recommendation"
	GeneralWebSearch      = "general_web_search"
)

const searchUnavailable = "Search tool is not available."

// SearchClient is the Tavily capability the registry consumes.
type SearchClient interface {
	Search(ctx context.Context, req tavilyx.SearchRequest) ([]tavilyx.SearchResult, error)
}

// FlightClient is the Amadeus capability the registry consumes.
type FlightClient interface {
	SearchFlightOffers(ctx context.Context, req amadeusx.FlightSearchRequest) ([]amadeusx.FlightOffer, error)
}

// Handler executes one operation and returns its textual result. A returned
// error marks the invocation as failed; the executor converts it to an error
// payload visible to the model.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Registry is the fixed set of named operations the router may request.
type Registry struct {
	infos    []*schema.ToolInfo
	handlers map[string]Handler
}

func NewRegistry(search SearchClient, flights FlightClient) *Registry {
	r := &Registry{
		infos:    toolInfos(),
		handlers: make(map[string]Handler, 8),
	}

	r.handlers[FlightPriceSearch] = flightPriceHandler(search)
	r.handlers[LocalEventSearch] = localEventHandler(search)
	r.handlers[SearchFlights] = searchFlightsHandler(flights)
	r.handlers[HotelRecommendation] = hotelHandler(search)
	r.handlers[GeneralWebSearch] = webSearchHandler(search)
	r.handlers[GetTripInformation] = tripInformationHandler(search)

	// The state-update pseudo-tool never reaches a handler; registering it
	// keeps Has() consistent with the bound tool list.
	r.handlers[UpdateTripInformation] = func(context.Context, map[string]any) (string, error) {
		return "", fmt.Errorf("%w: %s is handled by the executor", contractx.ErrValidation, UpdateTripInformation)
	}

	return r
}

// Infos returns the tool declarations bound to the router model.
func (r *Registry) Infos() []*schema.ToolInfo {
	return r.infos
}

func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}
	return handler(ctx, args)
}

func stringArg(args map[string]any, key string) string {
	raw, ok := args[key]
	if !ok || raw == nil {
		return ""
	}
	s, _ := raw.(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func marshalResults(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(raw), nil
}

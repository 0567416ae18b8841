package contract

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolInvocation is a structured request produced by the model's tool-calling
// mode: one registered operation plus its arguments, correlated by an opaque
// invocation id.
type ToolInvocation struct {
	ID   string         `json:"invocation_id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is one conversational turn artifact. Messages are append-only and
// never mutated after creation; tool-result messages link back to the request
// that produced them via SourceInvocationID.
type Message struct {
	Role               Role             `json:"role"`
	Content            string           `json:"content"`
	ToolInvocations    []ToolInvocation `json:"tool_invocations,omitempty"`
	SourceInvocationID string           `json:"source_invocation_id,omitempty"`
	ToolName           string           `json:"tool_name,omitempty"`
}

func (m Message) HasToolInvocations() bool {
	return len(m.ToolInvocations) > 0
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func ToolResultMessage(invocationID, toolName, content string) Message {
	return Message{
		Role:               RoleTool,
		Content:            content,
		SourceInvocationID: invocationID,
		ToolName:           toolName,
	}
}

// Slot names accepted by the state-update operation. Anything else in a
// state-update payload is ignored.
const (
	SlotDestination = "destination"
	SlotStartDate   = "start_date"
	SlotEndDate     = "end_date"
)

// TripInfo holds the extracted trip attributes. An empty string means the
// slot is still unknown. Slots are only ever set by the state-update
// operation and never cleared.
type TripInfo struct {
	Destination string `json:"destination,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

func (t TripInfo) Complete() bool {
	return t.Destination != "" && t.StartDate != "" && t.EndDate != ""
}

// Merge folds a state-update argument mapping into the slots. Only the fixed
// slot names are consulted; non-empty string values overwrite, nil or empty
// values leave the existing slot untouched. Returns the slot names that were
// applied.
func (t *TripInfo) Merge(args map[string]any) []string {
	applied := make([]string, 0, 3)
	for _, slot := range []string{SlotDestination, SlotStartDate, SlotEndDate} {
		raw, ok := args[slot]
		if !ok || raw == nil {
			continue
		}
		val, ok := raw.(string)
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		switch slot {
		case SlotDestination:
			t.Destination = val
		case SlotStartDate:
			t.StartDate = val
		case SlotEndDate:
			t.EndDate = val
		}
		applied = append(applied, slot)
	}
	return applied
}

// Handoff is the fixed-shape structured record produced once by the
// finalizer from the full message log.
type Handoff struct {
	UserQuery           string           `json:"user_query"`
	InferredDestination string           `json:"inferred_destination"`
	InferredStartDate   string           `json:"inferred_start_date"`
	InferredEndDate     string           `json:"inferred_end_date"`
	FlightPriceInfo     []map[string]any `json:"flight_price_info"`
	LocalEventInfo      []map[string]any `json:"local_event_info"`
}

// RouteRequest carries everything the router prompt embeds: the extracted
// slots, today's date, and the full message log.
type RouteRequest struct {
	Trip    TripInfo
	Today   string
	History []Message
}

// TurnResult is what one processed turn hands back to the caller.
type TurnResult struct {
	ThreadID       string   `json:"thread_id"`
	Reply          string   `json:"reply"`
	StructuredData *Handoff `json:"structured_data,omitempty"`
}

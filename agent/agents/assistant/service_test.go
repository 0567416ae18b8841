package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	statex "github.com/ascend-travel/assistant/agent/state"
	toolx "github.com/ascend-travel/assistant/agent/tool"
)

type fakeStore struct {
	inner   *statex.MemoryStore
	saveErr error
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{inner: statex.NewMemoryStore()}
}

func (f *fakeStore) Load(ctx context.Context, threadID string) (*statex.ConversationState, error) {
	return f.inner.Load(ctx, threadID)
}

func (f *fakeStore) Save(ctx context.Context, st *statex.ConversationState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return f.inner.Save(ctx, st)
}

func (f *fakeStore) Delete(ctx context.Context, threadID string) error {
	return f.inner.Delete(ctx, threadID)
}

type fakeGateway struct {
	routeResponses []contractx.Message
	routeCalls     int

	extractResp contractx.Handoff
	extractErr  error
	transcripts []string

	summary    string
	summaryErr error
}

func (f *fakeGateway) Route(ctx context.Context, req contractx.RouteRequest) (contractx.Message, error) {
	f.routeCalls++
	idx := f.routeCalls - 1
	if idx >= len(f.routeResponses) {
		return contractx.Message{}, fmt.Errorf("no route response left at call=%d", f.routeCalls)
	}
	return f.routeResponses[idx], nil
}

func (f *fakeGateway) Extract(ctx context.Context, transcript string) (contractx.Handoff, error) {
	f.transcripts = append(f.transcripts, transcript)
	if f.extractErr != nil {
		return contractx.Handoff{}, f.extractErr
	}
	return f.extractResp, nil
}

func (f *fakeGateway) Summarize(ctx context.Context, handoff contractx.Handoff) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	results map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeCatalog) Has(name string) bool {
	if _, ok := f.results[name]; ok {
		return true
	}
	_, ok := f.errs[name]
	return ok
}

func (f *fakeCatalog) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	out, ok := f.results[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}
	return out, nil
}

func newTestAssistant(t *testing.T, store statex.Store, gw *fakeGateway, catalog *fakeCatalog) *Assistant {
	t.Helper()
	a, err := New(store, gw, catalog)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	a := newTestAssistant(t, newFakeStore(), &fakeGateway{}, &fakeCatalog{})

	if _, err := a.HandleMessage(context.Background(), "   ", "hello"); !errors.Is(err, ErrInvalidThread) {
		t.Fatalf("expected ErrInvalidThread, got %v", err)
	}
	if _, err := a.HandleMessage(context.Background(), "session_ok", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

// A vague request yields one state update and a clarifying question, with no
// structured result.
func TestHandleMessageClarifyingQuestion(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gw := &fakeGateway{
		routeResponses: []contractx.Message{
			{
				Role: contractx.RoleAssistant,
				ToolInvocations: []contractx.ToolInvocation{
					{ID: "inv-1", Name: toolx.UpdateTripInformation, Args: map[string]any{
						contractx.SlotDestination: "Hawaii",
					}},
				},
			},
			{Role: contractx.RoleAssistant, Content: "What dates are you thinking of?"},
		},
	}
	catalog := &fakeCatalog{}

	a := newTestAssistant(t, store, gw, catalog)

	result, err := a.HandleMessage(context.Background(), "session_hawaii", "I want to go to Hawaii")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if result.Reply != "What dates are you thinking of?" {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if result.StructuredData != nil {
		t.Fatalf("no handoff expected, got %+v", result.StructuredData)
	}
	if gw.routeCalls != 2 {
		t.Fatalf("expected two router rounds, got %d", gw.routeCalls)
	}
	if len(catalog.calls) != 0 {
		t.Fatalf("no external tool expected, got %v", catalog.calls)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}

	saved, err := store.Load(context.Background(), "session_hawaii")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.Trip.Destination != "Hawaii" {
		t.Fatalf("destination not persisted: %+v", saved.Trip)
	}
	if saved.FinalResult != nil {
		t.Fatalf("final result must stay empty: %+v", saved.FinalResult)
	}
}

// One message carrying everything walks the full pipeline: slot updates,
// parallel searches, finalize, structured handoff.
func TestHandleMessageFullPipeline(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gw := &fakeGateway{
		routeResponses: []contractx.Message{
			{
				Role: contractx.RoleAssistant,
				ToolInvocations: []contractx.ToolInvocation{
					{ID: "inv-1", Name: toolx.UpdateTripInformation, Args: map[string]any{
						contractx.SlotDestination: "Tokyo",
						contractx.SlotStartDate:   "2025-12-20",
						contractx.SlotEndDate:     "2025-12-27",
					}},
					{ID: "inv-2", Name: toolx.FlightPriceSearch, Args: map[string]any{"destination": "Tokyo"}},
					{ID: "inv-3", Name: toolx.LocalEventSearch, Args: map[string]any{"destination": "Tokyo"}},
				},
			},
			// Plain text with all slots filled: the finalize invocation is
			// synthesized and the loop proceeds to extraction.
			{Role: contractx.RoleAssistant, Content: "Let me put that together."},
		},
		extractResp: contractx.Handoff{
			UserQuery:           "Plan a trip to Tokyo from 2025-12-20 to 2025-12-27",
			InferredDestination: "Tokyo",
			InferredStartDate:   "2025-12-20",
			InferredEndDate:     "2025-12-27",
			FlightPriceInfo:     []map[string]any{{"title": "fares"}},
			LocalEventInfo:      []map[string]any{{"title": "events"}},
		},
		summary: "Tokyo, Dec 20-27: flights from $780, plus winter illuminations.",
	}
	catalog := &fakeCatalog{
		results: map[string]string{
			toolx.FlightPriceSearch:  `[{"title":"fares"}]`,
			toolx.LocalEventSearch:   `[{"title":"events"}]`,
			toolx.GetTripInformation: `{"flight_info":[],"local_events":[]}`,
		},
	}

	a := newTestAssistant(t, store, gw, catalog)

	result, err := a.HandleMessage(context.Background(), "session_tokyo", "Plan a trip to Tokyo from 2025-12-20 to 2025-12-27")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if result.Reply != gw.summary {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if result.StructuredData == nil {
		t.Fatal("expected structured data")
	}
	if result.StructuredData.InferredDestination != "Tokyo" ||
		result.StructuredData.InferredStartDate != "2025-12-20" ||
		result.StructuredData.InferredEndDate != "2025-12-27" {
		t.Fatalf("unexpected handoff: %+v", result.StructuredData)
	}

	wantCalls := map[string]bool{
		toolx.FlightPriceSearch:  true,
		toolx.LocalEventSearch:   true,
		toolx.GetTripInformation: true,
	}
	for _, call := range catalog.calls {
		delete(wantCalls, call)
	}
	if len(wantCalls) != 0 {
		t.Fatalf("missing tool calls: %v (got %v)", wantCalls, catalog.calls)
	}

	if len(gw.transcripts) != 1 {
		t.Fatalf("expected one extraction, got %d", len(gw.transcripts))
	}
	if !strings.Contains(gw.transcripts[0], "[tool:"+toolx.FlightPriceSearch+"]") {
		t.Fatalf("transcript missing search payload:\n%s", gw.transcripts[0])
	}

	saved, err := store.Load(context.Background(), "session_tokyo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.FinalResult == nil || saved.FinalResult.InferredDestination != "Tokyo" {
		t.Fatalf("final result not persisted: %+v", saved.FinalResult)
	}
}

// A failing provider call becomes a textual tool result and the turn still
// completes with a reply.
func TestHandleMessageToolFailureCompletesTurn(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gw := &fakeGateway{
		routeResponses: []contractx.Message{
			{
				Role: contractx.RoleAssistant,
				ToolInvocations: []contractx.ToolInvocation{
					{ID: "inv-1", Name: toolx.GeneralWebSearch, Args: map[string]any{"query": "weather"}},
				},
			},
			{Role: contractx.RoleAssistant, Content: "I could not reach the search service, sorry."},
		},
	}
	catalog := &fakeCatalog{
		errs: map[string]error{toolx.GeneralWebSearch: errors.New("timeout")},
	}

	a := newTestAssistant(t, store, gw, catalog)

	result, err := a.HandleMessage(context.Background(), "session_fail", "what's the weather in Oslo?")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if result.Reply == "" {
		t.Fatal("expected a reply")
	}

	saved, err := store.Load(context.Background(), "session_fail")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// user + tool request + tool result + reply
	if len(saved.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(saved.Messages))
	}
	if !strings.Contains(saved.Messages[2].Content, "timeout") {
		t.Fatalf("tool failure not recorded: %+v", saved.Messages[2])
	}
}

func TestHandleMessageSecondTurnReusesState(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gw := &fakeGateway{
		routeResponses: []contractx.Message{
			{
				Role: contractx.RoleAssistant,
				ToolInvocations: []contractx.ToolInvocation{
					{ID: "inv-1", Name: toolx.UpdateTripInformation, Args: map[string]any{
						contractx.SlotDestination: "Lisbon",
					}},
				},
			},
			{Role: contractx.RoleAssistant, Content: "When would you like to travel?"},
			{
				Role: contractx.RoleAssistant,
				ToolInvocations: []contractx.ToolInvocation{
					{ID: "inv-2", Name: toolx.UpdateTripInformation, Args: map[string]any{
						contractx.SlotStartDate: "2026-05-01",
					}},
				},
			},
			{Role: contractx.RoleAssistant, Content: "Got it, starting May 1. When do you fly back?"},
		},
	}

	a := newTestAssistant(t, store, gw, &fakeCatalog{})

	if _, err := a.HandleMessage(context.Background(), "session_multi", "Lisbon please"); err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	if _, err := a.HandleMessage(context.Background(), "session_multi", "Leaving May 1st"); err != nil {
		t.Fatalf("second turn error = %v", err)
	}

	saved, err := store.Load(context.Background(), "session_multi")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := contractx.TripInfo{Destination: "Lisbon", StartDate: "2026-05-01"}
	if saved.Trip != want {
		t.Fatalf("slots = %+v, want %+v", saved.Trip, want)
	}
}

func TestHandleMessageSaveErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("save failed")
	store := newFakeStore()
	store.saveErr = saveErr
	gw := &fakeGateway{
		routeResponses: []contractx.Message{
			{Role: contractx.RoleAssistant, Content: "hello"},
		},
	}

	a := newTestAssistant(t, store, gw, &fakeCatalog{})

	if _, err := a.HandleMessage(context.Background(), "session_err", "hi"); !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}

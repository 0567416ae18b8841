package contract

import (
	"reflect"
	"testing"
)

func TestTripInfoMergeAppliesKnownSlots(t *testing.T) {
	t.Parallel()

	trip := TripInfo{}
	applied := trip.Merge(map[string]any{
		SlotDestination: "Tokyo",
		SlotStartDate:   "2025-12-20",
	})

	if !reflect.DeepEqual(applied, []string{SlotDestination, SlotStartDate}) {
		t.Fatalf("applied = %v", applied)
	}
	if trip.Destination != "Tokyo" || trip.StartDate != "2025-12-20" || trip.EndDate != "" {
		t.Fatalf("unexpected trip: %+v", trip)
	}
	if trip.Complete() {
		t.Fatal("trip must not be complete without end date")
	}
}

func TestTripInfoMergeIgnoresUnknownAndEmpty(t *testing.T) {
	t.Parallel()

	trip := TripInfo{Destination: "Hawaii"}
	applied := trip.Merge(map[string]any{
		"budget":        5000,
		"traveler_name": "A",
		SlotDestination: "",
		SlotStartDate:   nil,
		SlotEndDate:     42,
	})

	if len(applied) != 0 {
		t.Fatalf("applied = %v, want none", applied)
	}
	if trip.Destination != "Hawaii" {
		t.Fatalf("destination overwritten: %+v", trip)
	}
}

func TestTripInfoMergeNeverClears(t *testing.T) {
	t.Parallel()

	trip := TripInfo{Destination: "Tokyo", StartDate: "2025-12-20", EndDate: "2025-12-27"}
	trip.Merge(map[string]any{
		SlotDestination: "   ",
		SlotStartDate:   "",
	})

	if !trip.Complete() {
		t.Fatalf("slots were cleared: %+v", trip)
	}
}

// Folding a sequence of updates one by one must equal applying them in order
// over the starting value: later non-empty values win, empty values never
// erase earlier ones.
func TestTripInfoMergeLeftFold(t *testing.T) {
	t.Parallel()

	updates := []map[string]any{
		{SlotDestination: "Hawaii"},
		{SlotStartDate: "2026-01-10", SlotEndDate: "2026-01-17"},
		{SlotDestination: "Maui", SlotEndDate: ""},
	}

	trip := TripInfo{}
	for _, u := range updates {
		trip.Merge(u)
	}

	want := TripInfo{Destination: "Maui", StartDate: "2026-01-10", EndDate: "2026-01-17"}
	if trip != want {
		t.Fatalf("fold = %+v, want %+v", trip, want)
	}
}

func TestMessageHelpers(t *testing.T) {
	t.Parallel()

	u := UserMessage("hello")
	if u.Role != RoleUser || u.Content != "hello" || u.HasToolInvocations() {
		t.Fatalf("unexpected user message: %+v", u)
	}

	r := ToolResultMessage("inv-1", "local_event_search", "results")
	if r.Role != RoleTool || r.SourceInvocationID != "inv-1" || r.ToolName != "local_event_search" {
		t.Fatalf("unexpected tool result message: %+v", r)
	}

	a := Message{Role: RoleAssistant, ToolInvocations: []ToolInvocation{{ID: "x", Name: "y"}}}
	if !a.HasToolInvocations() {
		t.Fatal("expected tool invocations")
	}
}

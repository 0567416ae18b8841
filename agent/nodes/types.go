package assistantnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	statex "github.com/ascend-travel/assistant/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidThread  = errors.New("thread id is empty")
)

type GraphInput struct {
	ThreadID string
	Text     string
}

type GraphOutput struct {
	ThreadID       string
	Reply          string
	StructuredData *contractx.Handoff
}

// GraphState is the working state threaded through one turn of the graph.
type GraphState struct {
	ThreadID string
	Text     string
	Now      time.Time

	State *statex.ConversationState

	// FinalizeReady is set by the tool executor once the finalize tool has
	// run with all slots filled.
	FinalizeReady bool
}

// ValidateRequest checks the inbound turn before any state is touched.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ThreadID: threadID,
		Text:     text,
		Now:      nowFn().UTC(),
	}, nil
}

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/ascend-travel/assistant/agent/contract"
)

var (
	ErrStateNotFound = errors.New("conversation state not found")
	ErrNilState      = errors.New("conversation state is nil")
	ErrInvalidThread = errors.New("thread id is empty")
)

// ConversationState is the persistent per-thread record: the ordered message
// log, the extracted trip slots, and the final handoff once the finalizer has
// run. The message log grows monotonically within a turn and across turns.
type ConversationState struct {
	ThreadID    string              `json:"thread_id"`
	Messages    []contractx.Message `json:"messages"`
	Trip        contractx.TripInfo  `json:"trip"`
	FinalResult *contractx.Handoff  `json:"final_result,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func NewConversationState(threadID string, now time.Time) *ConversationState {
	return &ConversationState{
		ThreadID:  threadID,
		Messages:  make([]contractx.Message, 0, 8),
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds messages to the log. The log is append-only; callers never
// modify messages already present.
func (s *ConversationState) Append(msgs ...contractx.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// LastMessage returns the newest message, or a zero Message if the log is
// empty.
func (s *ConversationState) LastMessage() (contractx.Message, bool) {
	if len(s.Messages) == 0 {
		return contractx.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// FirstUserQuery returns the first user message content, used by the
// finalizer as the original query text.
func (s *ConversationState) FirstUserQuery() string {
	for _, m := range s.Messages {
		if m.Role == contractx.RoleUser {
			return m.Content
		}
	}
	return ""
}

// Transcript renders the message log as plain text for the extraction
// prompt. Tool invocations and results are included so the extractor sees
// the search payloads.
func (s *ConversationState) Transcript() string {
	var b strings.Builder
	for _, m := range s.Messages {
		switch {
		case m.Role == contractx.RoleTool:
			fmt.Fprintf(&b, "[tool:%s] %s\n", m.ToolName, m.Content)
		case m.HasToolInvocations():
			fmt.Fprintf(&b, "[%s] requested tools:", m.Role)
			for _, inv := range m.ToolInvocations {
				args, _ := json.Marshal(inv.Args)
				fmt.Fprintf(&b, " %s(%s)", inv.Name, args)
			}
			b.WriteByte('\n')
		default:
			fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		}
	}
	return b.String()
}

func (s *ConversationState) Validate() error {
	if strings.TrimSpace(s.ThreadID) == "" {
		return ErrInvalidThread
	}
	for i, m := range s.Messages {
		if m.Role != contractx.RoleUser && m.Role != contractx.RoleAssistant && m.Role != contractx.RoleTool {
			return fmt.Errorf("message %d has invalid role %q", i, m.Role)
		}
		if m.Role == contractx.RoleTool && m.SourceInvocationID == "" {
			return fmt.Errorf("tool message %d is missing source_invocation_id", i)
		}
	}
	return nil
}

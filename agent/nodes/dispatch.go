package assistantnode

import contractx "github.com/ascend-travel/assistant/agent/contract"

// Path is the branch selected after the router's response.
type Path string

const (
	PathExecuteTools Path = "execute_tools"
	PathReply        Path = "compose_reply"
)

// Decide is the dispatch decision: a pure function of the router's message.
// A non-empty tool-invocation list selects the executor path; anything else
// ends the turn with a reply to the caller.
func Decide(msg contractx.Message) Path {
	if msg.HasToolInvocations() {
		return PathExecuteTools
	}
	return PathReply
}

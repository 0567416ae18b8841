package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	contractx "github.com/ascend-travel/assistant/agent/contract"
)

// toSchemaMessages converts the conversation log into eino messages for the
// router prompt's history placeholder.
func toSchemaMessages(history []contractx.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case contractx.RoleUser:
			out = append(out, schema.UserMessage(m.Content))
		case contractx.RoleTool:
			out = append(out, schema.ToolMessage(m.Content, m.SourceInvocationID, schema.WithToolName(m.ToolName)))
		case contractx.RoleAssistant:
			msg := &schema.Message{
				Role:    schema.Assistant,
				Content: m.Content,
			}
			for _, inv := range m.ToolInvocations {
				args, _ := json.Marshal(inv.Args)
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					ID: inv.ID,
					Function: schema.FunctionCall{
						Name:      inv.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, msg)
		}
	}
	return out
}

// fromSchemaMessage converts a model response into a contract message,
// decoding any tool-call arguments. Calls without an id get a generated one
// so results can always be correlated.
func fromSchemaMessage(msg *schema.Message) (contractx.Message, error) {
	if msg == nil {
		return contractx.Message{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}

	out := contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: strings.TrimSpace(msg.Content),
	}

	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return contractx.Message{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.Message{}, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		id := strings.TrimSpace(call.ID)
		if id == "" {
			id = uuid.NewString()
		}

		out.ToolInvocations = append(out.ToolInvocations, contractx.ToolInvocation{
			ID:   id,
			Name: name,
			Args: args,
		})
	}

	if out.Content == "" && len(out.ToolInvocations) == 0 {
		return contractx.Message{}, fmt.Errorf("%w: model returned neither text nor tool calls", contractx.ErrSchemaViolation)
	}

	return out, nil
}

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// toInputItems converts provider-agnostic messages to the Responses API
// input format. A ToolResult becomes a function_call_output item, a
// ToolCall a function_call item, anything else a role-tagged text item.
func toInputItems(msgs []Message) (responses.ResponseInputParam, error) {
	items := make(responses.ResponseInputParam, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.ToolResult != nil:
			items = append(items, responses.ResponseInputItemUnionParam{
				OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
					CallID: m.ToolResult.CallID,
					Output: responses.ResponseInputItemFunctionCallOutputOutputUnionParam{
						OfString: openai.String(m.ToolResult.Output()),
					},
				},
			})

		case m.ToolCall != nil:
			args, err := encodeArguments(m.ToolCall.Arguments)
			if err != nil {
				return nil, fmt.Errorf("%w: encode arguments for %s: %v", ErrTranslation, m.ToolCall.Name, err)
			}
			items = append(items, responses.ResponseInputItemUnionParam{
				OfFunctionCall: &responses.ResponseFunctionToolCallParam{
					CallID:    m.ToolCall.CallID,
					Name:      m.ToolCall.Name,
					Arguments: args,
				},
			})

		default:
			if m.Content == "" {
				return nil, fmt.Errorf("%w: message content is required", ErrInvalidMessage)
			}
			role, ok := easyInputRole(m.Role)
			if !ok {
				return nil, fmt.Errorf("%w: invalid message role: %q", ErrInvalidMessage, m.Role)
			}
			items = append(items, responses.ResponseInputItemUnionParam{
				OfMessage: &responses.EasyInputMessageParam{
					Role: role,
					Content: responses.EasyInputMessageContentUnionParam{
						OfString: openai.String(m.Content),
					},
				},
			})
		}
	}
	return items, nil
}

// easyInputRole maps our role constants to the SDK's EasyInputMessageRole.
func easyInputRole(role string) (responses.EasyInputMessageRole, bool) {
	switch role {
	case RoleSystem:
		return responses.EasyInputMessageRoleSystem, true
	case RoleUser:
		return responses.EasyInputMessageRoleUser, true
	case RoleAssistant:
		return responses.EasyInputMessageRoleAssistant, true
	default:
		return "", false
	}
}

// encodeArguments serializes a tool-call argument mapping for the wire.
// A nil mapping encodes as "{}", matching what the provider sends for a
// call with no arguments.
func encodeArguments(args map[string]any) (string, error) {
	if args == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeArguments parses a provider-supplied JSON arguments string.
// Empty string decodes to an empty mapping.
func decodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// toFunctionTools converts tool schemas to strict function declarations.
// Each parameter definition is compiled as JSON Schema first so a broken
// declaration fails here instead of as a provider 400.
func toFunctionTools(tools []ToolSchema) ([]responses.ToolUnionParam, error) {
	out := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
				Strict:      openai.Bool(true),
			},
		})
	}
	return out, nil
}

// Validate compiles the parameter definition as a JSON Schema document.
func (t ToolSchema) Validate() error {
	raw, err := json.Marshal(t.Parameters)
	if err != nil {
		return fmt.Errorf("%w: tool %s: parameters not JSON-encodable: %v", ErrTranslation, t.Name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(t.Name+".json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%w: tool %s: %v", ErrTranslation, t.Name, err)
	}
	if _, err := compiler.Compile(t.Name + ".json"); err != nil {
		return fmt.Errorf("%w: tool %s: invalid parameter schema: %v", ErrTranslation, t.Name, err)
	}
	return nil
}

// outputToInputItems converts a response's output blocks back into input
// items so they can be appended to the conversation history. Every block
// is kept, including reasoning and built-in tool items: with store=false
// the provider rejects a resubmitted function_call whose preceding
// reasoning item is missing, so recorded history must be the provider's
// output wholesale, not a subset.
func outputToInputItems(resp *responses.Response) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(resp.Output))
	for _, block := range resp.Output {
		items = append(items, param.Override[responses.ResponseInputItemUnionParam](json.RawMessage(block.RawJSON())))
	}
	return items
}

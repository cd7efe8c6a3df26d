package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the aot-status MCP prompt. It instructs the AI
// to read and present the index state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("aot-status",
		mcp.WithPromptDescription(
			"Check the state of the object index: how many objects are "+
				"indexed, over which packages and types, and whether a "+
				"rebuild is needed.",
		),
	)
}

// Handle processes the aot-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Object index status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `get_index_statistics` to check the object index.\n\n" +
						"Then:\n" +
						"1. Show the totals (objects, packages, types) in a compact summary\n" +
						"2. Point out name conflicts if there are many\n" +
						"3. If the index is empty or missing, run `build_object_index` and report the result\n" +
						"4. List the available object types with `list_object_types` if I ask what can be indexed",
				),
			},
		},
	}, nil
}

// Package prompts implements the MCP prompt handlers for aotnav.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a specific tool sequence. Unlike tools (which
// the AI calls on its own), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ExplorePrompt handles the aot-explore MCP prompt. It walks the AI
// through locating an X++ object and its related artifacts.
type ExplorePrompt struct{}

// NewExplorePrompt creates an ExplorePrompt.
func NewExplorePrompt() *ExplorePrompt {
	return &ExplorePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ExplorePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("aot-explore",
		mcp.WithPromptDescription(
			"Explore an X++ object: locate it across packages, list its "+
				"extensions, and find code that references it.",
		),
		mcp.WithArgument("object",
			mcp.ArgumentDescription("Object name to explore, e.g. CustTable"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("model",
			mcp.ArgumentDescription("Preferred package/model when the name is ambiguous"),
		),
	)
}

// Handle processes the aot-explore prompt request.
func (p *ExplorePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	object := "CustTable"
	model := ""
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["object"]; ok && v != "" {
			object = v
		}
		if v, ok := args["model"]; ok {
			model = v
		}
	}

	modelHint := ""
	if model != "" {
		modelHint = fmt.Sprintf(" Prefer the %s model when the name is ambiguous.", model)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Explore X++ object: %s", object),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to explore the X++ object '%s'.%s\n\n"+
						"Please:\n"+
						"1. Run `find_object` with name='%s' and tell me which package(s) own it\n"+
						"2. Run `search_objects_pattern` with pattern='%s*' to find related objects and extensions\n"+
						"3. Run `search_code` with term='%s' to show where it is referenced\n"+
						"4. Summarize what this object is, where it lives, and what extends or uses it\n\n"+
						"If any tool reports that the index is not built, run `build_object_index` first and retry.",
					object, modelHint, object, object, object,
				)),
			},
		},
	}, nil
}

package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_form",
		mcp.WithPromptDescription("Guide through laying out a data entry form on an application canvas"),
		mcp.WithArgument("appId",
			mcp.ArgumentDescription("Application to build the form in"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("fields",
			mcp.ArgumentDescription("Comma-separated field labels"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildFormPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("create_dashboard",
		mcp.WithPromptDescription("Guide through creating a dashboard of tables and charts"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic or title for the dashboard"),
			mcp.RequiredArgument(),
		),
	), s.handleDashboardPrompt)
}

func (s *Server) handleBuildFormPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	appID := req.Params.Arguments["appId"]
	fields := req.Params.Arguments["fields"]
	return &mcp.GetPromptResult{
		Description: "Lay out a data entry form",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a form in application %s with these fields: %s. Follow these steps:

1. Call open_app to load the application, then list_widgets to see what is already placed
2. For each field, drop a "text" widget as the label and a "textinput" widget to its right (drop_widget with anchorX/anchorY)
3. Keep one grid cell (32px) between rows so the form stays aligned
4. Finish with a "button" widget below the last row to submit the form

Use resize_widget to make the inputs the same width.`, appID, fields),
				},
			},
		},
	}, nil
}

func (s *Server) handleDashboardPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Create a dashboard about %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create a dashboard application about "%s". Follow these steps:

1. Use create_app to create an application named "%s Dashboard"
2. Drop a "text" widget at the top as the title
3. Drop a "chart" and a "table" widget with autoPlace so they do not overlap
4. Add a "dropdown" widget above the chart to filter the data

Check the final layout with list_widgets.`, topic, topic),
				},
			},
		},
	}, nil
}

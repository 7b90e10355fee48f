package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"appbuilder/internal/canvas"
	"appbuilder/internal/domain"
)

const appURIPrefix = "appbuilder://app/"

func (s *Server) registerResources() {
	// ── appbuilder://apps ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"appbuilder://apps",
		"All Applications",
		mcp.WithMIMEType("application/json"),
	), s.handleAppsResource)

	// ── appbuilder://app/{appId}/widgets ───────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			appURIPrefix+"{appId}/widgets",
			"Widgets of an Application",
		),
		s.handleAppWidgetsResource,
	)
}

func (s *Server) handleAppsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	apps, err := s.apps.ListApps(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]appSummary, len(apps))
	for i, a := range apps {
		summaries[i] = appSummary{ID: a.ID, Name: a.Name, Widgets: len(a.Components), Open: s.editor.IsOpen(a.ID)}
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "appbuilder://apps",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleAppWidgetsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	appID := appIDFromURI(uri)
	if appID == "" {
		return nil, fmt.Errorf("could not extract appId from URI: %s", uri)
	}

	// An open canvas is authoritative; otherwise read the stored definition.
	var boxes []domain.Box
	if v, err := s.editor.View(appID); err == nil {
		boxes = v.Boxes
	} else {
		app, err := s.apps.GetApp(ctx, appID)
		if err != nil {
			return nil, err
		}
		boxes = canvas.SortedBoxes(app.Components)
	}

	summaries := make([]widgetSummary, len(boxes))
	for i, b := range boxes {
		summaries[i] = summarizeBox(b)
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// appIDFromURI extracts the app ID from "appbuilder://app/{id}/widgets".
func appIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, appURIPrefix)
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}

package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/server"
	"github.com/teemow/calgate/internal/tools/calendar_tools"
)

// Resource URIs.
const (
	URICatalog    = "calgate://tools"
	URIServerInfo = "calgate://server"
)

const mimeJSON = "application/json"

// CatalogEntry describes one tool and the data it returns.
type CatalogEntry struct {
	server.ToolDescriptor
	Result *jsonschema.Schema `json:"result,omitempty"`
}

// ServerInfo describes how to reach the gateway over HTTP.
type ServerInfo struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Discovery  string   `json:"discovery"`
	Execute    string   `json:"execute"`
	AuthHeader string   `json:"auth_header"`
	Transports []string `json:"transports"`
}

// Catalog returns the tool catalog in registry order.
func Catalog() []CatalogEntry {
	descriptors := server.ToolDescriptors()
	catalog := make([]CatalogEntry, len(descriptors))
	for i, d := range descriptors {
		catalog[i] = CatalogEntry{ToolDescriptor: d}
		if id, ok := calendar_tools.Lookup(d.Name); ok {
			catalog[i].Result = calendar_tools.ResultSchema(id)
		}
	}
	return catalog
}

// RegisterCatalogResources registers the tool catalog and server info resources.
func RegisterCatalogResources(s *mcpserver.MCPServer, version string) {
	catalogResource := mcp.NewResource(
		URICatalog,
		"Tool Catalog",
		mcp.WithResourceDescription("Calendar tools with their parameter and result schemas"),
		mcp.WithMIMEType(mimeJSON),
	)

	s.AddResource(catalogResource, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, Catalog())
	})

	infoResource := mcp.NewResource(
		URIServerInfo,
		"Gateway Info",
		mcp.WithResourceDescription("HTTP endpoints and authentication of the calendar gateway"),
		mcp.WithMIMEType(mimeJSON),
	)

	s.AddResource(infoResource, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, ServerInfo{
			Name:       gateway.ServerName,
			Version:    version,
			Discovery:  "GET " + server.PathDiscovery,
			Execute:    "POST " + server.PathExecute,
			AuthHeader: gateway.HeaderAPIKey,
			Transports: []string{"http", "stdio"},
		})
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(jsonData),
		},
	}, nil
}

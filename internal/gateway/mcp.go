package gateway

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calgate/internal/tools/calendar_tools"
	"github.com/teemow/calgate/internal/tools/common"
)

// ServerName is the name announced to MCP clients.
const ServerName = "calgate"

// NewMCPServer returns an MCP server exposing every calendar tool through d.
// opts are applied after the tool capability and recovery options.
func NewMCPServer(d *Dispatcher, version string, opts ...mcpserver.ServerOption) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(ServerName, version, append([]mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	}, opts...)...)
	RegisterMCPTools(s, d)
	return s
}

// RegisterMCPTools adds the calendar tools to s in registry order.
func RegisterMCPTools(s *mcpserver.MCPServer, d *Dispatcher) {
	for _, id := range calendar_tools.All() {
		s.AddTool(id.Definition(), common.InstrumentedToolHandler(id.Name(), d.obs,
			func(ctx context.Context, args map[string]any) (any, error) {
				return d.Invoke(ctx, id, args)
			}))
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/calgate/internal/calendar"
	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate tool documentation",
		Long: `Render a markdown reference of every tool, built from the same
definitions the gateway announces, including each tool's result schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(stdout, stderr io.Writer, outputFile string) error {
	tools, err := registeredTools()
	if err != nil {
		return err
	}

	markdown := generateToolsMarkdown(tools)
	if outputFile == "" {
		_, err = io.WriteString(stdout, markdown)
		return err
	}

	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	fmt.Fprintf(stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// registeredTools returns the tools an MCP server built by the gateway
// exposes, in registry order.
func registeredTools() ([]mcp.Tool, error) {
	mcpSrv := gateway.NewMCPServer(gateway.NewDispatcher(calendar.NewClient(), nil, nil), version)
	serverTools := mcpSrv.ListTools()

	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, id := range calendar_tools.All() {
		st, ok := serverTools[id.Name()]
		if !ok {
			return nil, fmt.Errorf("tool %s is not registered", id.Name())
		}
		tools = append(tools, st.Tool)
	}
	return tools, nil
}

// categories maps a tool name prefix to its section heading.
var categories = map[string]string{
	"calendar": "Calendar Tools",
}

func toolCategory(name string) string {
	prefix, _, _ := strings.Cut(name, ".")
	if heading, ok := categories[prefix]; ok {
		return heading
	}
	return "Other"
}

const callingSection = `## Calling a tool

Send the tool name and its parameters with the API key:

` + "```http" + `
POST /mcp/message
X-API-Key: <key>
Content-Type: application/json

{"name": "calendar.check_availability", "parameters": {"start_time": "2025-05-10T10:00:00Z", "end_time": "2025-05-10T12:00:00Z"}}
` + "```" + `

Responses are ` + "`{\"success\": true, \"data\": ...}`" + ` or ` + "`{\"success\": false, \"error\": \"...\"}`" + `.
Timestamps are ISO-8601; parameters not listed below are ignored.

`

// generateToolsMarkdown renders the reference. Sections appear in the
// order their first tool is registered.
func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder
	sb.WriteString("# Tools Reference\n\n")
	sb.WriteString("Every tool calgate announces on `GET /mcp-events` and runs on `POST /mcp/message`. ")
	sb.WriteString("Generated from the tool definitions; do not edit by hand.\n\n")
	sb.WriteString(callingSection)

	var order []string
	sections := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		heading := toolCategory(tool.Name)
		if _, seen := sections[heading]; !seen {
			order = append(order, heading)
		}
		sections[heading] = append(sections[heading], tool)
	}

	for _, heading := range order {
		fmt.Fprintf(&sb, "## %s\n\n", heading)
		for _, tool := range sections[heading] {
			writeToolMarkdown(&sb, tool)
		}
	}
	return sb.String()
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	if props := tool.InputSchema.Properties; len(props) > 0 {
		sb.WriteString("**Arguments:**\n")
		for _, name := range slices.Sorted(maps.Keys(props)) {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			presence := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				presence = "required"
			}
			desc, _ := prop["description"].(string)
			fmt.Fprintf(sb, "- `%s` (%s, %s): %s\n", name, propertyType(prop), presence, desc)
		}
		sb.WriteString("\n")
	}

	id, ok := calendar_tools.Lookup(tool.Name)
	if !ok {
		return
	}
	if data, err := json.MarshalIndent(calendar_tools.ResultSchema(id), "", "  "); err == nil && string(data) != "null" {
		fmt.Fprintf(sb, "**Result (`data`):**\n\n```json\n%s\n```\n", data)
	}
	sb.WriteString("\n")
}

// propertyType renders "type" or "type, format".
func propertyType(prop map[string]any) string {
	t, _ := prop["type"].(string)
	if t == "" {
		t = "any"
	}
	if format, ok := prop["format"].(string); ok {
		return t + ", " + format
	}
	return t
}

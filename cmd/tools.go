package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/teemow/calgate/internal/resources"
	"github.com/teemow/calgate/internal/server"
)

var (
	subtle      = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight   = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(highlight).MarginBottom(1)
	borderStyle = lipgloss.NewStyle().Foreground(subtle)
)

func newToolsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Long: `List the tools announced on the discovery stream, with their
required and optional parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeToolsJSON(cmd.OutOrStdout())
			}
			_, err := io.WriteString(cmd.OutOrStdout(), renderToolsTable())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON, including result schemas")

	return cmd
}

func writeToolsJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resources.Catalog()); err != nil {
		return fmt.Errorf("failed to encode tool catalog: %w", err)
	}
	return nil
}

func renderToolsTable() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("TOOL", "REQUIRED", "OPTIONAL", "DESCRIPTION")

	for _, d := range server.ToolDescriptors() {
		required, optional := splitParameters(d.Parameters)
		t.Row(d.Name, strings.Join(required, ", "), strings.Join(optional, ", "), d.Description)
	}

	return titleStyle.Render("calgate tools") + "\n" + t.Render() + "\n"
}

// splitParameters returns the required and optional parameter names, each
// sorted.
func splitParameters(schema server.ParameterSchema) (required, optional []string) {
	isRequired := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		isRequired[name] = true
	}
	for name := range schema.Properties {
		if isRequired[name] {
			required = append(required, name)
		} else {
			optional = append(optional, name)
		}
	}
	sort.Strings(required)
	sort.Strings(optional)
	return required, optional
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// version is injected by main at build time.
var version = "dev"

// SetVersion records the build version reported by --version and the
// version subcommand.
func SetVersion(v string) {
	version = v
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "calgate",
		Short: "Calendar tool gateway with SSE discovery and authenticated execution",
		Long: `calgate lets AI agents discover and run calendar tools.

Tools are announced on a Server-Sent Events stream and executed through
JSON requests carrying an API key. The calendar behind them is mocked.
The same tools are also offered over MCP on stdio.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "calgate version %s\n" .Version}}`)

	root.AddCommand(
		newServeCmd(),
		newToolsCmd(),
		newGenerateDocsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI. Without arguments it starts the gateway.
func Execute() {
	root := newRootCmd()
	if len(os.Args) == 1 {
		root.SetArgs([]string{"serve"})
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

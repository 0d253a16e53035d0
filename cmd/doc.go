// Package cmd implements the command-line interface for calgate.
//
// This package provides the following commands:
//   - serve: Run the gateway over HTTP or the MCP server over stdio
//   - tools: List the available tools
//   - generate-docs: Generate markdown documentation for all tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd

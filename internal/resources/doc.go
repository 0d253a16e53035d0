// Package resources provides read-only MCP resources describing the gateway.
//
// MCP clients on the stdio transport cannot open the discovery stream, so
// the same catalog is offered as a resource, together with the HTTP
// endpoints a remote agent would use.
package resources

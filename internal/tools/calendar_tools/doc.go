// Package calendar_tools defines the gateway's calendar tools.
//
// The tool set is closed: ToolID enumerates the four tools and Lookup is the
// only way to turn a wire name into a ToolID. Each tool is described by an
// mcp.Tool whose input schema drives both discovery and parameter validation,
// so the advertised schema and the enforced schema cannot drift apart.
//
// Tools:
//   - calendar.check_availability: hourly free slots within a time range
//   - calendar.add_event: create an event
//   - calendar.update_event: update an event
//   - calendar.delete_event: delete an event
package calendar_tools

package instrumentation

// Cardinality management helpers for metrics.
//
// Request paths come straight from clients. Recording them verbatim would
// let a scanner create one series per probed URL.

// PathOther is the label recorded for paths the server does not route.
const PathOther = "other"

// NormalizePath returns path if it is one of known, and PathOther otherwise.
//
// Example:
//
//	NormalizePath("/mcp/message", "/mcp/message", "/mcp-events")  // "/mcp/message"
//	NormalizePath("/wp-login.php", "/mcp/message")                // "other"
func NormalizePath(path string, known ...string) string {
	for _, k := range known {
		if path == k {
			return path
		}
	}
	return PathOther
}

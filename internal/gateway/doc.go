// Package gateway implements the request path shared by the HTTP and stdio
// transports: API key authentication, the {success, data|error} envelope,
// and dispatch of a named tool call to its calendar handler.
//
// Every failure that reaches a client is a *Error. Its Kind selects the
// HTTP status:
//
//	unauthorized      401
//	unknown_tool      404
//	validation_error  400
//	internal_error    500
package gateway

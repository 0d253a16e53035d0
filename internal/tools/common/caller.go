package common

import "context"

type callerKey struct{}

type transportKey struct{}

// WithCaller returns a context carrying the remote address of the client
// invoking a tool. It is set by the HTTP transport; stdio has no caller.
func WithCaller(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// CallerFromContext returns the client address stored by WithCaller, or "".
func CallerFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(callerKey{}).(string)
	return addr
}

// WithTransport returns a context recording which transport a tool call
// arrived on.
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey{}, transport)
}

// TransportFromContext returns the transport stored by WithTransport, or "".
func TransportFromContext(ctx context.Context) string {
	transport, _ := ctx.Value(transportKey{}).(string)
	return transport
}

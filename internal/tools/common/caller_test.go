package common

import (
	"context"
	"testing"
)

func TestCallerFromContext(t *testing.T) {
	if got := CallerFromContext(context.Background()); got != "" {
		t.Errorf("CallerFromContext() on empty context = %q, want empty", got)
	}

	ctx := WithCaller(context.Background(), "198.51.100.7:443")
	if got := CallerFromContext(ctx); got != "198.51.100.7:443" {
		t.Errorf("CallerFromContext() = %q, want 198.51.100.7:443", got)
	}
}

func TestTransportFromContext(t *testing.T) {
	if got := TransportFromContext(context.Background()); got != "" {
		t.Errorf("TransportFromContext() on empty context = %q, want empty", got)
	}

	ctx := WithTransport(context.Background(), "stdio")
	if got := TransportFromContext(ctx); got != "stdio" {
		t.Errorf("TransportFromContext() = %q, want stdio", got)
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/instrumentation"
	"github.com/teemow/calgate/internal/logging"
	"github.com/teemow/calgate/internal/tools/calendar_tools"
)

// EventTools is the SSE event name of a tool announcement.
const EventTools = "tools"

// ToolDescriptor is the discovery view of a tool.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema is the JSON schema object describing a tool's parameters.
type ParameterSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// ToolDescriptors returns the descriptors of every tool in registry order.
func ToolDescriptors() []ToolDescriptor {
	ids := calendar_tools.All()
	descriptors := make([]ToolDescriptor, 0, len(ids))
	for _, id := range ids {
		def := id.Definition()
		required := def.InputSchema.Required
		if required == nil {
			required = []string{}
		}
		descriptors = append(descriptors, ToolDescriptor{
			Name:        def.Name,
			Description: def.Description,
			Parameters: ParameterSchema{
				Type:       def.InputSchema.Type,
				Properties: def.InputSchema.Properties,
				Required:   required,
			},
		})
	}
	return descriptors
}

// toolsEvent renders the SSE frame announcing descriptors.
func toolsEvent(descriptors []ToolDescriptor) ([]byte, error) {
	data, err := json.Marshal(struct {
		Tools []ToolDescriptor `json:"tools"`
	}{Tools: descriptors})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\ndata: %s\n\n", EventTools, data)
	return buf.Bytes(), nil
}

// handleDiscovery serves GET /mcp-events. It announces the tools at once,
// then again on every tick until the client leaves or the server shuts down.
func (s *GatewayServer) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	if err := rc.Flush(); err != nil {
		h.Del("Cache-Control")
		h.Del("Connection")
		s.writeError(w, r, gateway.Internal(fmt.Errorf("streaming unsupported: %w", err)))
		return
	}

	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Warn("failed to clear write deadline on discovery stream", logging.Err(err))
	}

	metrics := s.sc.Metrics()
	metrics.IncrementDiscoveryStreams(ctx)
	defer metrics.DecrementDiscoveryStreams(ctx)
	s.health.streamOpened()
	defer s.health.streamClosed()

	logger := logging.WithOperation(s.logger, "discovery").With(logging.Client(r.RemoteAddr))
	logger.Info("discovery stream opened")
	defer logger.Info("discovery stream closed")

	toolCount := attribute.Int(instrumentation.AttrToolCount, len(calendar_tools.All()))
	send := func() error {
		_, span := instrumentation.StartSpan(ctx, "discovery.announce", toolCount)
		defer span.End()

		if _, err := w.Write(s.toolsEvent); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil {
			return err
		}
		metrics.RecordDiscoveryEvent(ctx)
		return nil
	}

	if err := send(); err != nil {
		logger.Debug("failed to write tool announcement", logging.Err(err))
		return
	}

	var tick <-chan time.Time
	if s.config.DiscoveryInterval > 0 {
		ticker := time.NewTicker(s.config.DiscoveryInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if err := send(); err != nil {
				logger.Debug("failed to write tool announcement", logging.Err(err), slog.Duration("interval", s.config.DiscoveryInterval))
				return
			}
		}
	}
}

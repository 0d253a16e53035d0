package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/teemow/calgate/internal/calendar"
	"github.com/teemow/calgate/internal/logging"
	"github.com/teemow/calgate/internal/tools/calendar_tools"
	"github.com/teemow/calgate/internal/tools/common"
)

// Dispatcher routes tool calls to the calendar handlers.
type Dispatcher struct {
	client *calendar.Client
	obs    common.Observer
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. obs may be nil to skip instrumentation.
func NewDispatcher(client *calendar.Client, obs common.Observer, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = calendar.NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		client: client,
		obs:    obs,
		logger: logger,
	}
}

// Dispatch resolves req.Name and runs the tool with instrumentation.
// The returned error is always a *Error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (any, error) {
	id, ok := calendar_tools.Lookup(req.Name)
	if !ok {
		return nil, UnknownTool(req.Name)
	}

	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}

	return common.InstrumentedCall(ctx, id.Name(), d.obs, func(ctx context.Context) (any, error) {
		return d.Invoke(ctx, id, params)
	})
}

// Invoke validates params for id and runs its handler.
// A panicking handler is reported as an internal error.
func (d *Dispatcher) Invoke(ctx context.Context, id calendar_tools.ToolID, params map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("tool handler panicked",
				logging.Tool(id.Name()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			result, err = nil, Internal(fmt.Errorf("panic in %s: %v", id.Name(), rec))
		}
	}()

	args, err := calendar_tools.Validate(id, params)
	if err != nil {
		var ve *calendar_tools.ValidationError
		if errors.As(err, &ve) {
			return nil, Validation(ve.Error(), ve.FieldNames()...)
		}
		return nil, Internal(err)
	}

	data, err := calendar_tools.Execute(ctx, d.client, id, args)
	if err != nil {
		d.logger.Error("tool execution failed", logging.Tool(id.Name()), logging.Err(err))
		return nil, Internal(err)
	}
	return data, nil
}

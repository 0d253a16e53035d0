package server

import (
	"net/http"

	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/instrumentation"
	"github.com/teemow/calgate/internal/tools/common"
)

// handleExecute serves POST /mcp/message. Authentication has already
// passed; the body is decoded, the tool looked up and validated, then run.
func (s *GatewayServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	defer body.Close()

	req, err := gateway.DecodeRequest(body)
	if err != nil {
		s.writeError(w, r, gateway.AsError(err))
		return
	}

	ctx := common.WithCaller(r.Context(), r.RemoteAddr)
	ctx = common.WithTransport(ctx, instrumentation.TransportHTTP)

	data, err := s.config.Dispatcher.Dispatch(ctx, *req)
	if err != nil {
		s.writeError(w, r, gateway.AsError(err))
		return
	}

	gateway.WriteSuccess(w, data)
}

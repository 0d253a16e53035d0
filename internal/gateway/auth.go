package gateway

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/teemow/calgate/internal/instrumentation"
	"github.com/teemow/calgate/internal/logging"
)

// HeaderAPIKey carries the shared secret on execution requests.
const HeaderAPIKey = "X-API-Key"

// ErrEmptyAPIKey is returned by NewAuthenticator when no key is configured.
var ErrEmptyAPIKey = errors.New("API key must not be empty")

// Authenticator checks the request-supplied API key against the configured one.
type Authenticator struct {
	key     []byte
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithAuthMetrics records the outcome of every check.
func WithAuthMetrics(m *instrumentation.Metrics) AuthOption {
	return func(a *Authenticator) { a.metrics = m }
}

// WithAuthLogger sets the logger used for rejected requests.
func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthenticator creates an Authenticator for apiKey.
func NewAuthenticator(apiKey string, opts ...AuthOption) (*Authenticator, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	a := &Authenticator{
		key:    []byte(apiKey),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Authenticate compares header to the configured key. The match is exact
// and case-sensitive.
func (a *Authenticator) Authenticate(header string) error {
	if header == "" {
		return Unauthorized("missing API key")
	}
	if subtle.ConstantTimeCompare([]byte(header), a.key) != 1 {
		return Unauthorized("invalid API key")
	}
	return nil
}

// Middleware rejects requests without a valid X-API-Key before next runs.
// The request body is not read on rejection.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(HeaderAPIKey)

		if err := a.Authenticate(header); err != nil {
			result := instrumentation.AuthResultInvalid
			if header == "" {
				result = instrumentation.AuthResultMissing
			}
			a.metrics.RecordAuth(r.Context(), result)
			a.metrics.RecordGatewayError(r.Context(), string(KindUnauthorized))

			a.logger.Warn("rejected request",
				logging.Client(r.RemoteAddr),
				slog.String("result", result),
			)
			WriteError(w, AsError(err))
			return
		}

		a.metrics.RecordAuth(r.Context(), instrumentation.AuthResultSuccess)
		next.ServeHTTP(w, r)
	})
}

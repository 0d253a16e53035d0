// Package logging holds the slog conventions of calgate: the attribute
// keys, the handler factory used by the serve command, and helpers that
// keep client addresses and API keys out of log output.
//
//	logger, err := logging.New(os.Stderr, slog.LevelInfo, logging.FormatJSON)
//	logger.Warn("rejected request", logging.Client(r.RemoteAddr), logging.ErrorKind("unauthorized"))
//
// Remote addresses are only ever logged through Client, which hashes them.
// Secrets are logged through SanitizeToken, which reveals their length.
package logging

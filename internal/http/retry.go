package http

import (
	nethttp "net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/w3s-cli/w3s/internal/constants"
	"github.com/w3s-cli/w3s/internal/logging"
)

// retryLogger implements the retryablehttp.LeveledLogger interface on top of
// the CLI logger. Request-level info and debug chatter goes to debug.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Error(), msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Warn(), msg, keysAndValues)
}

func (l *retryLogger) emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	ev.Fields(keysAndValues).Msg("[retry] " + msg)
}

// NewRetryClient wraps base with retryablehttp. retryMax is the number of
// retries after the first attempt; connection errors, 429 and 5xx responses
// are retried with exponential backoff.
func NewRetryClient(base *nethttp.Client, retryMax int, logger *logging.Logger) *retryablehttp.Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = retryMax
	rc.RetryWaitMin = constants.RetryWaitMin
	rc.RetryWaitMax = constants.RetryWaitMax
	rc.Logger = &retryLogger{logger: logger}
	// Hand the final response back instead of a generic "giving up" error so
	// callers can report the status and body.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc
}

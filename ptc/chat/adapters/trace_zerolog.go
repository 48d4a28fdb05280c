package adapters

import (
	"context"
	"time"

	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
	"github.com/rs/zerolog"
)

// spanKey carries the span logger through the context.
type spanKey struct{}

// ZerologTracer implements the Tracer port on top of a zerolog.Logger.
type ZerologTracer struct {
	logger zerolog.Logger
}

// NewZerologTracer creates a tracer that writes spans and events to logger.
func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{logger: logger}
}

// StartSpan opens a span, returning a context holding the span logger and a
// finish function that records duration and outcome.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	spanLogger := t.logger.With().Str("span", name).Fields(attrs).Logger()
	ctx = context.WithValue(ctx, spanKey{}, spanLogger)

	start := time.Now()
	spanLogger.Debug().Msg("span start")

	finish := func(err error) {
		event := spanLogger.Debug()
		if err != nil {
			event = spanLogger.Error().Err(err)
		}
		event.Dur("duration", time.Since(start)).Msg("span end")
	}

	return ctx, finish
}

// Event records a point-in-time event against the enclosing span, or against
// the root logger when no span is open.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	logger := t.logger
	if spanLogger, ok := ctx.Value(spanKey{}).(zerolog.Logger); ok {
		logger = spanLogger
	}
	logger.Debug().Fields(attrs).Str("event", name).Msg("trace event")
}

// Ensure ZerologTracer implements the Tracer port.
var _ ports.Tracer = (*ZerologTracer)(nil)

package oteladapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

const badKey = "!BADKEY"

// SlogBridgeLogger implements eventstore.Logger and eventstore.ContextualLogger through the OpenTelemetry slog bridge,
// so log records carry the trace and span IDs of the context.
type SlogBridgeLogger struct {
	*slog.Logger
}

// NewSlogBridgeLogger creates a logger backed by the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string, options ...otelslog.Option) *SlogBridgeLogger {
	return &SlogBridgeLogger{Logger: otelslog.NewLogger(name, options...)}
}

// NewSlogBridgeLoggerWithProvider creates a logger backed by the given LoggerProvider.
func NewSlogBridgeLoggerWithProvider(name string, provider log.LoggerProvider) *SlogBridgeLogger {
	return NewSlogBridgeLogger(name, otelslog.WithLoggerProvider(provider))
}

var (
	_ eventstore.Logger           = (*SlogBridgeLogger)(nil)
	_ eventstore.ContextualLogger = (*SlogBridgeLogger)(nil)
)

// OTelLogger implements eventstore.ContextualLogger by emitting OpenTelemetry log records directly.
// Arguments are slog style key-value pairs, a key without a value is reported under "!BADKEY".
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates an OTelLogger for the given OpenTelemetry logger.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

func (l *OTelLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityDebug, msg, args)
}

func (l *OTelLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityInfo, msg, args)
}

func (l *OTelLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityWarn, msg, args)
}

func (l *OTelLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityError, msg, args)
}

func (l *OTelLogger) emit(ctx context.Context, severity log.Severity, msg string, args []any) {
	var record log.Record
	record.SetTimestamp(time.Now())
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetBody(log.StringValue(msg))

	for len(args) > 0 {
		key, isKey := args[0].(string)

		switch {
		case isKey && len(args) > 1:
			record.AddAttributes(log.KeyValue{Key: key, Value: toLogValue(args[1])})
			args = args[2:]
		default:
			record.AddAttributes(log.KeyValue{Key: badKey, Value: toLogValue(args[0])})
			args = args[1:]
		}
	}

	l.logger.Emit(ctx, record)
}

func toLogValue(v any) log.Value {
	switch value := v.(type) {
	case string:
		return log.StringValue(value)
	case bool:
		return log.BoolValue(value)
	case int:
		return log.IntValue(value)
	case int64:
		return log.Int64Value(value)
	case uint64:
		return log.Int64Value(int64(value)) //nolint:gosec // sequence numbers stay far below math.MaxInt64
	case float64:
		return log.Float64Value(value)
	case time.Duration:
		return log.Int64Value(value.Nanoseconds())
	case error:
		return log.StringValue(value.Error())
	case fmt.Stringer:
		return log.StringValue(value.String())
	default:
		return log.StringValue(slog.AnyValue(v).String())
	}
}

var _ eventstore.ContextualLogger = (*OTelLogger)(nil)

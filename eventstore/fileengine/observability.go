package fileengine

import (
	"context"
	"math"
	"time"
)

// logDuration logs the duration of an operation at debug level if a logger is configured.
func (es *EventStore) logDuration(ctx context.Context, action string, duration time.Duration) {
	msg := logMsgOperationFinished + action

	if es.logger != nil {
		es.logger.Debug(msg, logAttrDurationMS, toMilliseconds(duration))
	}

	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, logAttrDurationMS, toMilliseconds(duration))
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (es *EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (es *EventStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if es.logger != nil {
		es.logger.Error(message, allArgs...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

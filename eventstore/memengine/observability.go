package memengine

import (
	"context"
	"math"
	"time"
)

// logDuration logs the duration of an operation at debug level if a logger is configured.
func (el *EventLog) logDuration(ctx context.Context, action string, duration time.Duration) {
	msg := logMsgOperationFinished + action

	if el.logger != nil {
		el.logger.Debug(msg, logAttrDurationMS, toMilliseconds(duration))
	}

	if el.contextualLogger != nil {
		el.contextualLogger.DebugContext(ctx, msg, logAttrDurationMS, toMilliseconds(duration))
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (el *EventLog) logOperation(ctx context.Context, action string, args ...any) {
	if el.logger != nil {
		el.logger.Info(logMsgOperation+action, args...)
	}

	if el.contextualLogger != nil {
		el.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (el *EventLog) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if el.logger != nil {
		el.logger.Error(message, allArgs...)
	}

	if el.contextualLogger != nil {
		el.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

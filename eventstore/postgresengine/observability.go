package postgresengine

import (
	"context"
	"math"
	"time"
)

// logQueryWithDuration logs SQL statements with their execution time at debug level.
func (es *EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	msg := logMsgSQLExecuted + action

	if es.logger != nil {
		es.logger.Debug(msg, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logDuration logs the duration of a whole operation at debug level.
func (es *EventStore) logDuration(ctx context.Context, action string, duration time.Duration) {
	msg := logMsgOperationFinished + action

	if es.logger != nil {
		es.logger.Debug(msg, logAttrDurationMS, toMilliseconds(duration))
	}

	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, logAttrDurationMS, toMilliseconds(duration))
	}
}

// logOperation logs operational information at info level.
func (es *EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

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

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

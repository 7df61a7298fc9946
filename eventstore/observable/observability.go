package observable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// operationObserver tracks one operation from start to finish,
// so the span, the metrics and the logs of an operation always agree.
type operationObserver struct {
	es        *EventStore
	ctx       context.Context
	span      eventstore.SpanContext
	operation string
}

func (es *EventStore) startOperation(
	ctx context.Context,
	spanName string,
	operation string,
	attrs map[string]string,
) *operationObserver {
	spanCtx := ctx
	var span eventstore.SpanContext

	if es.tracingCollector != nil {
		spanCtx, span = es.tracingCollector.StartSpan(ctx, spanName, attrs)
	}

	op := &operationObserver{
		es:        es,
		ctx:       spanCtx,
		span:      span,
		operation: operation,
	}

	op.logDebug(logMsgOperationStarted + operation)

	return op
}

func (op *operationObserver) finishSuccess(eventCount int, duration time.Duration, durationMetric, countMetric string) {
	if op.span != nil {
		op.span.SetStatus(statusSuccess)
		op.span.AddAttribute(attrEventCount, itoa(eventCount))
		op.span.AddAttribute(attrDurationMS, formatMilliseconds(duration))

		op.es.tracingCollector.FinishSpan(op.span, statusSuccess, map[string]string{
			attrEventCount: itoa(eventCount),
		})
	}

	op.recordDuration(durationMetric, duration, statusSuccess)
	op.recordValue(countMetric, float64(eventCount), statusSuccess)

	op.logInfo(
		logMsgOperationSucceeded+op.operation,
		attrEventCount, eventCount,
		attrDurationMS, toMilliseconds(duration),
	)
}

func (op *operationObserver) finishError(err error, duration time.Duration, durationMetric string) {
	status, errorType := classify(err)

	if op.span != nil {
		op.span.SetStatus(status)
		op.span.AddAttribute(attrErrorType, errorType)
		op.span.AddAttribute(attrDurationMS, formatMilliseconds(duration))

		op.es.tracingCollector.FinishSpan(op.span, status, map[string]string{
			attrErrorType: errorType,
			attrError:     err.Error(),
		})
	}

	op.recordDuration(durationMetric, duration, status)
	op.incrementErrors(status, errorType)

	op.logError(
		logMsgOperationFailed+op.operation,
		attrError, err.Error(),
		attrErrorType, errorType,
		attrDurationMS, toMilliseconds(duration),
	)
}

// classify maps an error to the status and the error_type label.
func classify(err error) (string, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return statusCanceled, errorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return statusTimeout, errorTypeContextDeadlineExceeded
	case errors.Is(err, eventstore.ErrUnknownLastEventID):
		return statusError, errorTypeUnknownLastEventID
	case errors.Is(err, eventstore.ErrNotImplemented):
		return statusError, errorTypeNotImplemented
	default:
		return statusError, errorTypeOther
	}
}

func (op *operationObserver) recordDuration(metric string, duration time.Duration, status string) {
	if op.es.metricsCollector == nil {
		return
	}

	labels := map[string]string{attrOperation: op.operation, attrStatus: status}

	if contextual, ok := op.es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(op.ctx, metric, duration, labels)
		return
	}

	op.es.metricsCollector.RecordDuration(metric, duration, labels)
}

func (op *operationObserver) recordValue(metric string, value float64, status string) {
	if op.es.metricsCollector == nil {
		return
	}

	labels := map[string]string{attrOperation: op.operation, attrStatus: status}

	if contextual, ok := op.es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(op.ctx, metric, value, labels)
		return
	}

	op.es.metricsCollector.RecordValue(metric, value, labels)
}

func (op *operationObserver) incrementErrors(status, errorType string) {
	if op.es.metricsCollector == nil {
		return
	}

	labels := map[string]string{attrOperation: op.operation, attrStatus: status, attrErrorType: errorType}

	if contextual, ok := op.es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(op.ctx, metricErrors, labels)
		return
	}

	op.es.metricsCollector.IncrementCounter(metricErrors, labels)
}

func (op *operationObserver) logDebug(msg string, args ...any) {
	if op.es.logger != nil {
		op.es.logger.Debug(msg, args...)
	}

	if op.es.contextualLogger != nil {
		op.es.contextualLogger.DebugContext(op.ctx, msg, args...)
	}
}

func (op *operationObserver) logInfo(msg string, args ...any) {
	if op.es.logger != nil {
		op.es.logger.Info(msg, args...)
	}

	if op.es.contextualLogger != nil {
		op.es.contextualLogger.InfoContext(op.ctx, msg, args...)
	}
}

func (op *operationObserver) logError(msg string, args ...any) {
	if op.es.logger != nil {
		op.es.logger.Error(msg, args...)
	}

	if op.es.contextualLogger != nil {
		op.es.contextualLogger.ErrorContext(op.ctx, msg, args...)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", toMilliseconds(d))
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

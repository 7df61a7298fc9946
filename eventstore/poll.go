package eventstore

import (
	"context"
	"errors"
	"time"
)

const (
	defaultPollInterval = 50 * time.Millisecond
	defaultPollTimeout  = 10 * time.Second
)

var (
	// ErrInvalidPollInterval is returned when the poll interval is not positive.
	ErrInvalidPollInterval = errors.New("poll interval must be positive")

	// ErrInvalidPollTimeout is returned when the poll timeout is not positive.
	ErrInvalidPollTimeout = errors.New("poll timeout must be positive")
)

type pollConfig struct {
	interval time.Duration
	timeout  time.Duration
}

// PollOption configures PollForEvent using the functional options pattern.
type PollOption func(*pollConfig) error

// WithPollInterval sets the fixed delay between two queries.
func WithPollInterval(interval time.Duration) PollOption {
	return func(config *pollConfig) error {
		if interval <= 0 {
			return ErrInvalidPollInterval
		}

		config.interval = interval

		return nil
	}
}

// WithPollTimeout sets the duration after which PollForEvent gives up.
func WithPollTimeout(timeout time.Duration) PollOption {
	return func(config *pollConfig) error {
		if timeout <= 0 {
			return ErrInvalidPollTimeout
		}

		config.timeout = timeout

		return nil
	}
}

// PollForEvent blocks until at least one event matching the query exists.
//
// It queries the reader with a fixed delay (default 50 ms) until the timeout (default 10 s) elapsed
// and then fails with ErrPollTimeout. Errors of the reader are returned immediately.
// As it actively polls, it should be used with care outside of tests and tooling.
func PollForEvent(ctx context.Context, reader EventReader, query Query, options ...PollOption) error {
	config := &pollConfig{
		interval: defaultPollInterval,
		timeout:  defaultPollTimeout,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return err
		}
	}

	deadline := time.NewTimer(config.timeout)
	defer deadline.Stop()

	for {
		events, err := reader.Query(ctx, query)
		if err != nil {
			return err
		}

		if len(events) > 0 {
			return nil
		}

		select {
		case <-time.After(config.interval):
			// poll again
		case <-deadline.C:
			return ErrPollTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/fileengine"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/observable"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/promadapters"
)

var (
	errNoEventLog        = errors.New("either --dir or --dsn must be given")
	errAmbiguousEventLog = errors.New("only one of --dir and --dsn may be given")
)

type globalFlags struct {
	dir     string
	dsn     string
	table   string
	verbose bool
	metrics bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "eventlog",
		Short:         "inspect and extend an event log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.dir, "dir", "", "root directory of a file based event log")
	rootCmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "PostgreSQL connection string of a database backed event log")
	rootCmd.PersistentFlags().StringVar(&flags.table, "table", "events", "table of the database backed event log")
	rootCmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "write JSON logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "write Prometheus metrics to stderr when done")

	rootCmd.AddCommand(
		dumpCommand(flags),
		appendCommand(flags),
		countCommand(flags),
	)

	return rootCmd
}

// session is an opened event log plus the metrics registry its operations report to.
type session struct {
	store    eventstore.EventStore
	registry *prometheus.Registry
	flags    *globalFlags
	pool     *pgxpool.Pool
}

func openSession(cmd *cobra.Command, flags *globalFlags) (*session, error) {
	registry := prometheus.NewRegistry()

	if flags.dir != "" && flags.dsn != "" {
		return nil, errAmbiguousEventLog
	}

	s := &session{registry: registry, flags: flags}

	var logger *slog.Logger
	observableOptions := []observable.Option{observable.WithMetrics(promadapters.NewMetricsCollector(registry))}

	if flags.verbose {
		logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		observableOptions = append(observableOptions, observable.WithLogger(logger))
	}

	var inner eventstore.EventStore

	switch {
	case flags.dsn != "":
		pool, err := pgxpool.New(cmd.Context(), flags.dsn)
		if err != nil {
			return nil, err
		}

		s.pool = pool

		options := []postgresengine.Option{postgresengine.WithTableName(flags.table)}
		if logger != nil {
			options = append(options, postgresengine.WithLogger(logger))
		}

		pgStore, err := postgresengine.NewEventStoreFromPGXPool(cmd.Context(), pool, options...)
		if err != nil {
			pool.Close()
			return nil, err
		}

		inner = pgStore

	case flags.dir != "":
		var options []fileengine.Option
		if logger != nil {
			options = append(options, fileengine.WithLogger(logger))
		}

		fileStore, err := fileengine.NewEventStore(flags.dir, options...)
		if err != nil {
			return nil, err
		}

		inner = fileStore

	default:
		return nil, errNoEventLog
	}

	store, err := observable.NewEventStore(inner, observableOptions...)
	if err != nil {
		s.release()
		return nil, err
	}

	s.store = store

	return s, nil
}

// release closes the database connections, if any.
func (s *session) release() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// writeMetrics writes the gathered metrics in the Prometheus text format if they were requested.
func (s *session) writeMetrics(w io.Writer) error {
	if !s.flags.metrics {
		return nil
	}

	families, err := s.registry.Gather()
	if err != nil {
		return err
	}

	for _, family := range families {
		if _, err = expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}

	return nil
}

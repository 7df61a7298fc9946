package main

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errInvalidPayload = errors.New("payload is not valid JSON")

type dumpedEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	AggregateID string `json:"aggregateId,omitempty"`
	Payload     any    `json:"payload,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

func dumpCommand(flags *globalFlags) *cobra.Command {
	var eventType, aggregateID, likePattern, afterID string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "print matching events as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.release()

			var queries []eventstore.Query

			if eventType != "" {
				queries = append(queries, eventstore.ByEventType(eventType))
			}

			if aggregateID != "" {
				queries = append(queries, eventstore.ByAggregateID(aggregateID))
			}

			if likePattern != "" {
				queries = append(queries, eventstore.LikeEventType(likePattern))
			}

			if afterID != "" {
				queries = append(queries, eventstore.AfterEventID(eventstore.EventIDFromString(afterID)))
			}

			events, err := s.store.Query(cmd.Context(), combine(queries))
			if err != nil {
				return err
			}

			if err = writeEvents(cmd.OutOrStdout(), events); err != nil {
				return err
			}

			return s.writeMetrics(cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "only events of this type")
	cmd.Flags().StringVar(&aggregateID, "aggregate", "", "only events of this aggregate")
	cmd.Flags().StringVar(&likePattern, "like", "", "only events whose type matches this pattern, % and * match any run, _ and ? one character")
	cmd.Flags().StringVar(&afterID, "after", "", "only events appended after the event with this id")

	return cmd
}

func appendCommand(flags *globalFlags) *cobra.Command {
	var eventType, aggregateID, creator, payload string

	cmd := &cobra.Command{
		Use:   "append",
		Short: "append one event and print its id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := []eventstore.EventOption{
				eventstore.WithAggregateID(aggregateID),
				eventstore.WithCreator(creator),
			}

			if payload != "" {
				var decoded any
				if err := json.UnmarshalFromString(payload, &decoded); err != nil {
					return errors.Join(errInvalidPayload, err)
				}

				options = append(options, eventstore.WithPayload(decoded))
			}

			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.release()

			event := eventstore.BuildEvent(eventType, options...)

			if err = s.store.Append(cmd.Context(), event); err != nil {
				return err
			}

			if _, err = fmt.Fprintln(cmd.OutOrStdout(), event.ID.String()); err != nil {
				return err
			}

			return s.writeMetrics(cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "type of the event")
	cmd.Flags().StringVar(&aggregateID, "aggregate", "", "aggregate the event relates to")
	cmd.Flags().StringVar(&creator, "creator", "", "creator of the event")
	cmd.Flags().StringVar(&payload, "payload", "", "payload as JSON, e.g. '{\"amount\":3}'")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func countCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "print the number of events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.release()

			events, err := s.store.Query(cmd.Context(), eventstore.Everything())
			if err != nil {
				return err
			}

			if _, err = fmt.Fprintln(cmd.OutOrStdout(), len(events)); err != nil {
				return err
			}

			return s.writeMetrics(cmd.ErrOrStderr())
		},
	}
}

func combine(queries []eventstore.Query) eventstore.Query {
	switch len(queries) {
	case 0:
		return eventstore.Everything()
	case 1:
		return queries[0]
	default:
		return eventstore.AllOf(queries...)
	}
}

func writeEvents(w io.Writer, events eventstore.Events) error {
	stream := json.BorrowStream(w)
	defer json.ReturnStream(stream)

	for _, event := range events {
		stream.WriteVal(dumpedEvent{
			ID:          event.ID.String(),
			Type:        event.Type,
			AggregateID: event.AggregateID,
			Payload:     event.Payload,
			Creator:     event.Creator,
			Timestamp:   event.Timestamp,
		})
		stream.WriteRaw("\n")

		if err := stream.Flush(); err != nil {
			return err
		}

		if stream.Error != nil {
			return stream.Error
		}
	}

	return nil
}

package fileengine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/jsonpayload"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/memengine"
)

const (
	defaultFileMode         os.FileMode = 0o644
	defaultDirectoryMode    os.FileMode = 0o755
	logMsgReplayCompleted               = "replay completed"
	logMsgReplayFailed                  = "replay failed"
	logMsgEventsPersisted               = "events persisted"
	logMsgPersistFailed                 = "persisting events failed"
	logMsgAppendRejected                = "append rejected"
	logMsgRollbackFailed                = "removing event file after failed append failed"
	logMsgOperation                     = "eventstore operation: "
	logAttrError                        = "error"
	logAttrRootDirectory                = "root_directory"
	logAttrEventCount                   = "event_count"
	logAttrFileName                     = "file_name"
	logAttrSequence                     = "sequence"
	logAttrOperation                    = "operation"
	logAttrDurationMS                   = "duration_ms"
	logActionReplay                     = "replay"
	logActionAppend                     = "append"
	logActionAppendChecked              = "append_with_checks"
	logMsgOperationFinished             = "finished "
)

// EventStore is the durable engine: every event is persisted as one JSON file in the root directory,
// named after its sequence number, and all events are kept in an in-memory EventLog for querying.
//
// On construction all event files are replayed in sequence order.
// Only one EventStore may use a root directory at a time.
type EventStore struct {
	mu               sync.Mutex
	rootDirectory    string
	sequence         uint64
	eventLog         *memengine.EventLog
	serializer       eventstore.PayloadSerializer
	fileMode         os.FileMode
	clock            func() time.Time
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
}

// NewEventStore creates the root directory if needed and replays all event files found in it.
//
// Files that are not named like event files are ignored.
// A file that can not be decoded fails the construction with eventstore.ErrReplayingEventsFailed.
func NewEventStore(rootDirectory string, options ...Option) (*EventStore, error) {
	if rootDirectory == "" {
		return nil, eventstore.ErrEmptyRootDirectory
	}

	es := &EventStore{
		rootDirectory: rootDirectory,
		serializer:    jsonpayload.New(),
		fileMode:      defaultFileMode,
		clock:         time.Now,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	eventLog, err := memengine.NewEventLog(
		memengine.WithClock(es.clock),
		memengine.WithLogger(es.logger),
		memengine.WithContextualLogger(es.contextualLogger),
	)
	if err != nil {
		return nil, err
	}

	es.eventLog = eventLog

	if err = os.MkdirAll(rootDirectory, defaultDirectoryMode); err != nil {
		return nil, errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	if err = es.replay(context.Background()); err != nil {
		return nil, err
	}

	return es, nil
}

type eventFile struct {
	sequence uint64
	name     string
}

func (es *EventStore) replay(ctx context.Context) error {
	start := time.Now()

	files, err := es.listEventFiles()
	if err != nil {
		es.logError(ctx, logMsgReplayFailed, err, logAttrRootDirectory, es.rootDirectory)
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	events := make(eventstore.Events, 0, len(files))

	for _, file := range files {
		data, readErr := os.ReadFile(filepath.Join(es.rootDirectory, file.name))
		if readErr == nil {
			var event eventstore.Event

			event, readErr = decodeEvent(data, es.serializer)
			if readErr == nil {
				events = append(events, event)
				continue
			}
		}

		es.logError(ctx, logMsgReplayFailed, readErr, logAttrFileName, file.name)

		return errors.Join(eventstore.ErrReplayingEventsFailed, fmt.Errorf("file %s: %w", file.name, readErr))
	}

	if err = es.eventLog.Restore(ctx, events); err != nil {
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	if len(files) > 0 {
		es.sequence = files[len(files)-1].sequence
	}

	duration := time.Since(start)
	es.logDuration(ctx, logActionReplay, duration)
	es.logOperation(
		ctx,
		logMsgReplayCompleted,
		logAttrRootDirectory, es.rootDirectory,
		logAttrEventCount, len(events),
		logAttrSequence, es.sequence,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

func (es *EventStore) listEventFiles() ([]eventFile, error) {
	entries, err := os.ReadDir(es.rootDirectory)
	if err != nil {
		return nil, err
	}

	files := make([]eventFile, 0, len(entries))

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		sequence, ok := parseEventFileName(entry.Name())
		if !ok {
			continue
		}

		files = append(files, eventFile{sequence: sequence, name: entry.Name()})
	}

	slices.SortFunc(files, func(a, b eventFile) int {
		return cmp.Compare(a.sequence, b.sequence)
	})

	return files, nil
}

// Query returns all events matching the query in append order, see memengine.EventLog.Query.
func (es *EventStore) Query(ctx context.Context, query eventstore.Query) (eventstore.Events, error) {
	return es.eventLog.Query(ctx, query)
}

// Append persists one or multiple events in the given order and then makes them visible to queries.
//
// The batch is atomic: if any file can not be written, the files already written for the batch
// are removed, the sequence counter is left unchanged, and no event of the batch becomes visible.
//
// Existing files are never overwritten. A file placed at the next sequence number by someone else
// makes every append fail with ErrEventFileExists until it is removed, and it is replayed as an
// event on the next open if it decodes as one.
func (es *EventStore) Append(ctx context.Context, event eventstore.Event, additionalEvents ...eventstore.Event) error {
	allEvents := eventstore.Events{event}
	allEvents = append(allEvents, additionalEvents...)

	return es.AppendBatch(ctx, allEvents)
}

// AppendBatch is Append for an already assembled batch, an empty batch is a no-op.
// It fails with ErrEventFileExists for as long as a foreign file occupies the next sequence number.
func (es *EventStore) AppendBatch(ctx context.Context, events eventstore.Events) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		es.logError(ctx, logMsgAppendRejected, err, logAttrEventCount, len(events))
		return err
	}

	if err := eventstore.ValidateEvents(events); err != nil {
		es.logError(ctx, logMsgAppendRejected, err, logAttrEventCount, len(events))
		return err
	}

	if len(events) == 0 {
		return nil
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	sequence := es.sequence
	persisted := make(eventstore.Events, 0, len(events))
	written := make([]string, 0, len(events))

	for _, event := range events {
		if event.Timestamp == 0 {
			event.Timestamp = es.clock().UnixMilli()
		}

		sequence++
		fileName := eventFileName(sequence)

		if err := es.persist(fileName, event); err != nil {
			es.rollback(ctx, written)
			es.logError(ctx, logMsgPersistFailed, err, logAttrFileName, fileName, logAttrEventCount, len(events))

			return errors.Join(
				eventstore.ErrPersistingEventFailed,
				fmt.Errorf("event %s into %s: %w", event.ID, fileName, err),
			)
		}

		written = append(written, fileName)
		persisted = append(persisted, event)
	}

	// Once all files exist the batch must reach memory, even if the caller gave up meanwhile.
	if err := es.eventLog.AppendBatch(context.WithoutCancel(ctx), persisted); err != nil {
		es.rollback(ctx, written)
		es.logError(ctx, logMsgPersistFailed, err, logAttrEventCount, len(events))

		return errors.Join(eventstore.ErrPersistingEventFailed, err)
	}

	es.sequence = sequence

	duration := time.Since(start)
	es.logDuration(ctx, logActionAppend, duration)
	es.logOperation(
		ctx,
		logMsgEventsPersisted,
		logAttrEventCount, len(persisted),
		logAttrSequence, sequence,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

// persist writes the event into a temporary file and renames it to fileName once it is synced.
func (es *EventStore) persist(fileName string, event eventstore.Event) error {
	data, err := encodeEvent(event, es.serializer)
	if err != nil {
		return err
	}

	target := filepath.Join(es.rootDirectory, fileName)

	if _, statErr := os.Lstat(target); statErr == nil {
		return eventstore.ErrEventFileExists
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}

	tmp, err := os.CreateTemp(es.rootDirectory, pendingFilePattern)
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}

	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmpName, es.fileMode)
	}

	if err == nil {
		err = os.Rename(tmpName, target)
	}

	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}

func (es *EventStore) rollback(ctx context.Context, fileNames []string) {
	for _, fileName := range fileNames {
		if err := os.Remove(filepath.Join(es.rootDirectory, fileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
			es.logError(ctx, logMsgRollbackFailed, err, logAttrFileName, fileName)
		}
	}
}

// AppendWithChecks is reserved for an append with integrity checks, which are not defined yet.
func (es *EventStore) AppendWithChecks(ctx context.Context, events ...eventstore.Event) error {
	es.logError(ctx, logMsgAppendRejected, eventstore.ErrNotImplemented,
		logAttrEventCount, len(events), logAttrOperation, logActionAppendChecked)

	return eventstore.ErrNotImplemented
}

// Sequence returns the sequence number of the last persisted event, 0 if there is none.
func (es *EventStore) Sequence() uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	return es.sequence
}

// Len returns the number of events in the store.
func (es *EventStore) Len() int {
	return es.eventLog.Len()
}

// RootDirectory returns the directory the event files are stored in.
func (es *EventStore) RootDirectory() string {
	return es.rootDirectory
}

var _ eventstore.EventStore = (*EventStore)(nil)

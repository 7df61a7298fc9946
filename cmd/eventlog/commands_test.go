package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), stderr.String(), err
}

func dumpLines(t *testing.T, args ...string) []dumpedEvent {
	t.Helper()

	stdout, _, err := run(t, append([]string{"dump"}, args...)...)
	require.NoError(t, err)

	var events []dumpedEvent
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}

		var event dumpedEvent
		require.NoError(t, json.UnmarshalFromString(line, &event))
		events = append(events, event)
	}

	return events
}

func Test_AppendDumpAndCount(t *testing.T) {
	// setup
	dir := t.TempDir()

	// act
	firstID, _, err := run(t, "append", "--dir", dir, "--type", "com.example.OrderPlaced",
		"--aggregate", "order-1", "--creator", "checkout", "--payload", `{"amount":3}`)
	require.NoError(t, err)

	_, _, err = run(t, "append", "--dir", dir, "--type", "com.example.OrderShipped", "--aggregate", "order-1")
	require.NoError(t, err)

	_, _, err = run(t, "append", "--dir", dir, "--type", "com.example.billing.InvoiceIssued")
	require.NoError(t, err)

	count, _, err := run(t, "count", "--dir", dir)
	require.NoError(t, err)

	// assert
	assert.Equal(t, "3\n", count)

	all := dumpLines(t, "--dir", dir)
	require.Len(t, all, 3)
	assert.Equal(t, strings.TrimSpace(firstID), all[0].ID)
	assert.Equal(t, "com.example.OrderPlaced", all[0].Type)
	assert.Equal(t, "order-1", all[0].AggregateID)
	assert.Equal(t, "checkout", all[0].Creator)
	assert.Equal(t, map[string]any{"amount": float64(3)}, all[0].Payload)
	assert.NotZero(t, all[0].Timestamp)
	assert.Nil(t, all[1].Payload)
	assert.Empty(t, all[2].AggregateID)

	orderEvents := dumpLines(t, "--dir", dir, "--aggregate", "order-1", "--like", "com.example.Order%")
	require.Len(t, orderEvents, 2)
	assert.Equal(t, "com.example.OrderShipped", orderEvents[1].Type)

	afterFirst := dumpLines(t, "--dir", dir, "--after", all[0].ID, "--type", "com.example.billing.InvoiceIssued")
	require.Len(t, afterFirst, 1)
	assert.Equal(t, all[2].ID, afterFirst[0].ID)
}

func Test_Dump_After_UnknownEventID_Fails(t *testing.T) {
	// setup
	dir := t.TempDir()

	// act
	_, _, err := run(t, "dump", "--dir", dir, "--after", "missing")

	// assert
	assert.ErrorIs(t, err, eventstore.ErrUnknownLastEventID)
}

func Test_Append_InvalidPayload_Fails(t *testing.T) {
	// setup
	dir := t.TempDir()

	// act
	_, _, err := run(t, "append", "--dir", dir, "--type", "com.example.OrderPlaced", "--payload", "{not json")

	// assert
	assert.ErrorIs(t, err, errInvalidPayload)

	count, _, countErr := run(t, "count", "--dir", dir)
	require.NoError(t, countErr)
	assert.Equal(t, "0\n", count)
}

func Test_Commands_RequireExactlyOneEventLog(t *testing.T) {
	// act
	_, _, missingErr := run(t, "count")
	_, _, ambiguousErr := run(t, "count", "--dir", t.TempDir(), "--dsn", "postgres://localhost/eventstore")

	// assert
	assert.ErrorIs(t, missingErr, errNoEventLog)
	assert.ErrorIs(t, ambiguousErr, errAmbiguousEventLog)
}

func Test_Metrics_AreWrittenToStderr(t *testing.T) {
	// setup
	dir := t.TempDir()

	// act
	_, stderr, err := run(t, "append", "--dir", dir, "--type", "com.example.OrderPlaced", "--metrics")
	require.NoError(t, err)

	// assert
	assert.Contains(t, stderr, "# TYPE eventstore_append_duration_seconds histogram")
	assert.Contains(t, stderr, `eventstore_events_appended_total{operation="append",status="success"} 1`)
}

func Test_Verbose_WritesJSONLogsToStderr(t *testing.T) {
	// setup
	dir := t.TempDir()

	// act
	_, stderr, err := run(t, "count", "--dir", dir, "--verbose")
	require.NoError(t, err)

	// assert
	assert.Contains(t, stderr, `"msg":"eventstore operation: replay completed"`)
}

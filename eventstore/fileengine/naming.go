package fileengine

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	eventFileSuffix    = "-event.json"
	minSequenceDigits  = 5
	pendingFilePattern = ".pending-*.tmp"
)

// eventFileName derives the file name for a sequence number, zero padded to at least five digits.
func eventFileName(sequence uint64) string {
	return fmt.Sprintf("%05d%s", sequence, eventFileSuffix)
}

// parseEventFileName returns the sequence number of a file name produced by eventFileName.
// Any other name, including non-canonical paddings like "000001-event.json", is rejected.
func parseEventFileName(name string) (uint64, bool) {
	digits, found := strings.CutSuffix(name, eventFileSuffix)
	if !found || len(digits) < minSequenceDigits {
		return 0, false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	sequence, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	if eventFileName(sequence) != name {
		return 0, false
	}

	return sequence, true
}

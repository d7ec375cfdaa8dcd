package cliutil

import (
	"fmt"
	"strconv"
)

// ParseRecordingID parses a positive recording id argument.
func ParseRecordingID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid recording id %q: must be a positive integer", s)
	}
	return id, nil
}

// ParseRecordingIDs parses every argument with ParseRecordingID.
func ParseRecordingIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := ParseRecordingID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

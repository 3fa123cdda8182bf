package common

import (
	"github.com/google/uuid"
)

// ListPolicy controls how the read path returns measurements.
//
// The legacy configuration is {Sorted: false, Limit: 0}: the unsorted,
// unbounded set. The current default sorts by measurementDate descending
// and caps the result at the 20 most recent documents.
type ListPolicy struct {
	Sorted bool
	Limit  int64
}

// DefaultListLimit is the page cap applied when no explicit limit is configured.
const DefaultListLimit int64 = 20

// IsValidUUID check if the uuid is valid
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

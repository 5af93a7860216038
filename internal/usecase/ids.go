package usecase

import (
	"hash/fnv"
	"time"

	"github.com/oklog/ulid/v2"
)

// nowFn is swappable in tests.
var nowFn = time.Now

// newID mints a lexicographically sortable row ID.
func newID() string {
	return ulid.Make().String()
}

// hashToInt64 derives an advisory lock key from a string. Locks taken this
// way serialize creation of rows that do not exist yet and therefore cannot
// be row-locked.
func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

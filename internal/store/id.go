package store

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropy   = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyMu sync.Mutex
)

// NewID returns a time-ordered ULID, prefixed with prefix and "_" when given.
func NewID(prefix ...string) string {
	ulidEntropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
	ulidEntropyMu.Unlock()
	if len(prefix) > 0 && prefix[0] != "" {
		return prefix[0] + "_" + id
	}
	return id
}

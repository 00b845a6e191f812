// Package id hands out time-sortable identifiers for orders, trades and
// backtest runs.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// ulid.Monotonic keeps IDs minted within the same millisecond
	// lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string stamped with the current wall clock.
func New() string {
	return At(time.Now())
}

// At returns a ULID whose timestamp component is t. Orders and trades use the
// simulated bar time so their IDs sort in simulation order.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	ms := ulid.Timestamp(t.UTC())
	if t.IsZero() || t.Before(time.Unix(0, 0)) {
		ms = ulid.Timestamp(time.Now().UTC())
	}

	id, err := ulid.New(ms, mono)
	if err != nil {
		// Monotonic entropy overflows only after 2^80 IDs in one millisecond.
		panic(err)
	}
	return id.String()
}

// Time extracts the timestamp encoded in a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}

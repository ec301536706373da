package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func NewID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	codeRand   = rand.New(rand.NewSource(time.Now().UnixNano() ^ 0x5eed))
	codeRandMu sync.Mutex
)

// NewSessionCode returns a 6-character uppercase alphanumeric room
// code. Uniqueness is enforced by the primary key; creators retry on
// the rare collision.
func NewSessionCode() string {
	codeRandMu.Lock()
	defer codeRandMu.Unlock()
	b := make([]byte, 6)
	for i := range b {
		b[i] = codeAlphabet[codeRand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Package id generates identifiers for broker sessions.
//
// Session ids are prefixed ULIDs ("sess_01H..."): sortable by accept time and
// readable in logs. They never leave the broker process.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one accepted client connection
type SessionID string

// SessionPrefix tags session ids in logs
const SessionPrefix = "sess"

func (id SessionID) String() string { return string(id) }

// Time returns the accept time encoded in the id.
func (id SessionID) Time() (time.Time, error) {
	raw, ok := strings.CutPrefix(string(id), SessionPrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("session id %q lacks prefix", id)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// Generator produces ULIDs; safe for concurrent use
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator creates a generator backed by crypto/rand with monotonic
// ordering inside the same millisecond
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// NewSessionID generates a prefixed session id
func (g *Generator) NewSessionID() SessionID {
	return SessionID(SessionPrefix + "_" + g.Generate().String())
}

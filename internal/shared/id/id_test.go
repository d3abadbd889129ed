package id

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	gen := NewGenerator()

	sid := gen.NewSessionID()
	assert.True(t, strings.HasPrefix(sid.String(), "sess_"))
	assert.Len(t, sid.String(), len("sess_")+26)

	ts, err := sid.Time()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
}

func TestSessionIDsSortable(t *testing.T) {
	gen := NewGenerator()

	prev := gen.NewSessionID()
	for i := 0; i < 100; i++ {
		next := gen.NewSessionID()
		assert.Less(t, prev.String(), next.String())
		prev = next
	}
}

func TestConcurrentUniqueness(t *testing.T) {
	gen := NewGenerator()

	var mu sync.Mutex
	seen := make(map[SessionID]bool)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				sid := gen.NewSessionID()
				mu.Lock()
				seen[sid] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}

func TestSessionIDTimeErrors(t *testing.T) {
	_, err := SessionID("01ARZ3NDEKTSV4RRFFQ69G5FAV").Time()
	assert.Error(t, err)

	_, err = SessionID("sess_not-a-ulid").Time()
	assert.Error(t, err)
}

func TestDeterministicEntropy(t *testing.T) {
	gen := NewGeneratorWithEntropy(bytes.NewReader(bytes.Repeat([]byte{0}, 64)))
	id := gen.Generate()
	assert.Equal(t, make([]byte, 10), id.Entropy())
}

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDial = errors.New("dial failed")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := New("test", Settings{Threshold: threshold, Cooldown: cooldown})
	b.now = clock.now
	return b, clock
}

func fail() error    { return errDial }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		calls         []func() error
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			calls:         []func() error{succeed, succeed, succeed},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			calls:         []func() error{fail, fail, fail},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			calls:         []func() error{fail, fail, succeed, fail, fail},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(3, time.Minute)
			for _, call := range tt.calls {
				_ = b.Do(call)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestOpenBreakerFailsFast(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)
	_ = b.Do(fail)
	_ = b.Do(fail)

	called := false
	err := b.Do(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestHalfOpenProbe(t *testing.T) {
	b, clock := newTestBreaker(1, time.Second)
	require.ErrorIs(t, b.Do(fail), errDial)
	require.Equal(t, StateOpen, b.State())

	clock.advance(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	// failed probe reopens
	assert.ErrorIs(t, b.Do(fail), errDial)
	assert.Equal(t, StateOpen, b.State())

	clock.advance(time.Second)
	assert.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	b, clock := newTestBreaker(1, time.Second)
	_ = b.Do(fail)
	clock.advance(time.Second)

	release := make(chan struct{})
	probeDone := make(chan error)
	go func() {
		probeDone <- b.Do(func() error {
			<-release
			return nil
		})
	}()

	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.probing
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)
	close(release)
	assert.NoError(t, <-probeDone)
	assert.Equal(t, StateClosed, b.State())
}

func TestOnStateChange(t *testing.T) {
	var transitions []string
	b := New("broker", Settings{
		Threshold: 1,
		Cooldown:  time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = b.Do(fail)
	assert.Equal(t, []string{"broker:closed->open"}, transitions)
	assert.Equal(t, "broker", b.Name())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}

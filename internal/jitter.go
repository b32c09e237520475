package internal

import (
	"math/rand"
	"sync"
	"time"
)

// Default jitter window applied before mutating requests, chosen to look like
// a human pausing between reading and replying.
const (
	DefaultJitterMin = 2 * time.Second
	DefaultJitterMax = 5 * time.Second
)

// WriteScheduler produces the randomized delay imposed before state-mutating
// requests. It holds no persisted state; the delay is a pure function of the
// configured window and the random source.
type WriteScheduler struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWriteScheduler creates a scheduler with the given window. Non-positive
// or inverted bounds fall back to the defaults. A nil source seeds a new one
// from the current time.
func NewWriteScheduler(min, max time.Duration, src rand.Source) *WriteScheduler {
	if min <= 0 || max <= min {
		min = DefaultJitterMin
		max = DefaultJitterMax
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &WriteScheduler{min: min, max: max, rng: rand.New(src)}
}

// JitterDelay returns a uniformly random duration within the configured
// window, or zero when override is set.
func (s *WriteScheduler) JitterDelay(override bool) time.Duration {
	if override {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min + time.Duration(s.rng.Int63n(int64(s.max-s.min)))
}

// Window returns the configured jitter bounds.
func (s *WriteScheduler) Window() (min, max time.Duration) {
	return s.min, s.max
}

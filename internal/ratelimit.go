package internal

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

const (
	// DefaultRateLowWater is the remaining-budget threshold below which the
	// governor starts pausing before the next request.
	DefaultRateLowWater = 5.0

	// maxRatePause caps how long a single rate pause may last, so a bogus
	// reset header can never stall the client for minutes.
	maxRatePause = 120 * time.Second

	parseFloatBitSize = 64
)

// Rate limit headers sent by the remote with every JSON response.
const (
	headerRateRemaining = "x-ratelimit-remaining"
	headerRateUsed      = "x-ratelimit-used"
	headerRateReset     = "x-ratelimit-reset"
	headerRetryAfter    = "Retry-After"
)

// RateBudget is a point-in-time view of the remote's reported budget.
type RateBudget struct {
	// Known is false until the first response carrying rate headers.
	Known bool
	// Remaining is the reported remaining request budget.
	Remaining float64
	// Used is the reported used count.
	Used int
	// ResetAfter is the time until the budget resets, measured from ObservedAt.
	ResetAfter time.Duration
	// ObservedAt is when the budget was last reported.
	ObservedAt time.Time
}

// RateState tracks the remote rate limiter's reported budget and decides how
// long to pause before the next request. With no observations the state is
// unknown and never penalized: RequiredDelay returns zero.
type RateState struct {
	lowWater float64
	logger   *slog.Logger

	mu     sync.Mutex
	budget RateBudget
}

// NewRateState creates a governor with the given low-water threshold.
// A non-positive threshold uses DefaultRateLowWater.
func NewRateState(lowWater float64, logger *slog.Logger) *RateState {
	if lowWater <= 0 {
		lowWater = DefaultRateLowWater
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RateState{lowWater: lowWater, logger: logger}
}

// Observe updates the tracked budget from response headers. Headers that are
// absent or unparseable leave the corresponding field untouched.
func (r *RateState) Observe(header http.Header, now time.Time) {
	remainingHeader := header.Get(headerRateRemaining)
	usedHeader := header.Get(headerRateUsed)
	resetHeader := header.Get(headerRateReset)
	if remainingHeader == "" && usedHeader == "" && resetHeader == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remainingHeader != "" {
		if remaining, err := strconv.ParseFloat(remainingHeader, parseFloatBitSize); err == nil {
			r.budget.Remaining = remaining
			r.budget.Known = true
		}
	}
	if usedHeader != "" {
		if used, err := strconv.Atoi(usedHeader); err == nil {
			r.budget.Used = used
		}
	}
	if resetHeader != "" {
		if resetSeconds, err := strconv.ParseFloat(resetHeader, parseFloatBitSize); err == nil && resetSeconds >= 0 {
			r.budget.ResetAfter = time.Duration(resetSeconds * float64(time.Second))
		} else {
			r.logger.Warn("malformed rate limit reset header", "value", resetHeader)
			r.budget.ResetAfter = 0
		}
	}
	r.budget.ObservedAt = now
}

// RequiredDelay returns how long to pause before the next request. It is zero
// unless the remaining budget has dropped below the low-water threshold and a
// usable reset time is known; a reset already in the past fails open.
func (r *RateState) RequiredDelay(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.budget.Known || r.budget.Remaining >= r.lowWater {
		return 0
	}

	if r.budget.ResetAfter <= 0 {
		// Budget is low but the remote gave no usable reset time. Fail open
		// rather than guessing a pause.
		r.logger.Warn("rate budget low with unknown reset, not throttling",
			"remaining", r.budget.Remaining)
		return 0
	}

	resetAt := r.budget.ObservedAt.Add(r.budget.ResetAfter + time.Second)
	delay := resetAt.Sub(now)
	if delay <= 0 {
		r.logger.Warn("rate limit reset is in the past, not throttling",
			"reset_after", r.budget.ResetAfter, "observed_at", r.budget.ObservedAt)
		return 0
	}
	if delay > maxRatePause {
		delay = maxRatePause
	}
	return delay
}

// Snapshot returns the current budget view for error reporting.
func (r *RateState) Snapshot() RateBudget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.budget
}

// retryAfter parses a Retry-After header into a duration, returning zero for
// absent or malformed values.
func retryAfter(header http.Header) time.Duration {
	v := header.Get(headerRetryAfter)
	if v == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(v, parseFloatBitSize)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

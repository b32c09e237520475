package internal

import (
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

func rateHeaders(remaining, used, reset string) http.Header {
	h := http.Header{}
	if remaining != "" {
		h.Set(headerRateRemaining, remaining)
	}
	if used != "" {
		h.Set(headerRateUsed, used)
	}
	if reset != "" {
		h.Set(headerRateReset, reset)
	}
	return h
}

func TestRateStateUnknownBudgetNeverDelays(t *testing.T) {
	state := NewRateState(5, nil)

	if delay := state.RequiredDelay(time.Now()); delay != 0 {
		t.Errorf("RequiredDelay with no observations = %v, want 0", delay)
	}
}

func TestRateStateAboveThresholdNoDelay(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("57", "43", "445"), now)

	if delay := state.RequiredDelay(now); delay != 0 {
		t.Errorf("RequiredDelay above threshold = %v, want 0", delay)
	}
}

func TestRateStateLowBudgetDelaysUntilReset(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("2", "98", "30"), now)

	delay := state.RequiredDelay(now)
	if want := 31 * time.Second; delay != want {
		t.Errorf("RequiredDelay = %v, want %v", delay, want)
	}

	// Part of the window has already elapsed.
	delay = state.RequiredDelay(now.Add(10 * time.Second))
	if want := 21 * time.Second; delay != want {
		t.Errorf("RequiredDelay after 10s = %v, want %v", delay, want)
	}
}

func TestRateStateLowBudgetUnknownResetFailsOpen(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("1", "99", ""), now)

	if delay := state.RequiredDelay(now); delay != 0 {
		t.Errorf("RequiredDelay with unknown reset = %v, want 0", delay)
	}
}

func TestRateStatePastResetFailsOpen(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("0", "100", "10"), now)

	if delay := state.RequiredDelay(now.Add(time.Minute)); delay != 0 {
		t.Errorf("RequiredDelay past reset = %v, want 0", delay)
	}
}

func TestRateStateDelayIsCapped(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("0", "100", "86400"), now)

	if delay := state.RequiredDelay(now); delay != maxRatePause {
		t.Errorf("RequiredDelay = %v, want cap %v", delay, maxRatePause)
	}
}

func TestRateStateMalformedHeadersIgnored(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("not-a-number", "also-bad", "nope"), now)

	budget := state.Snapshot()
	if budget.Known {
		t.Error("malformed remaining header marked budget as known")
	}
	if delay := state.RequiredDelay(now); delay != 0 {
		t.Errorf("RequiredDelay = %v, want 0", delay)
	}
}

func TestRateStateFractionalRemaining(t *testing.T) {
	state := NewRateState(5, nil)
	now := time.Now()

	state.Observe(rateHeaders("4.0", "96", "120"), now)

	budget := state.Snapshot()
	if !budget.Known || budget.Remaining != 4.0 {
		t.Errorf("Snapshot() = %+v, want known remaining 4.0", budget)
	}
	if delay := state.RequiredDelay(now); delay == 0 {
		t.Error("RequiredDelay = 0, want positive delay below threshold")
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "absent", value: "", want: 0},
		{name: "seconds", value: "30", want: 30 * time.Second},
		{name: "fractional", value: "1.5", want: 1500 * time.Millisecond},
		{name: "malformed", value: "soon", want: 0},
		{name: "negative", value: "-5", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set(headerRetryAfter, tt.value)
			}
			if got := retryAfter(h); got != tt.want {
				t.Errorf("retryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

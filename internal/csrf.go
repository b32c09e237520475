package internal

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CsrfToken is the per-session anti-forgery value (Reddit's modhash)
// required on state-mutating requests.
type CsrfToken struct {
	Value     string
	FetchedAt time.Time
}

// TokenFetcher retrieves a fresh anti-forgery token from the remote.
// The transport supplies an implementation backed by its own request path.
type TokenFetcher func(ctx context.Context) (string, error)

// CsrfManager caches the session's anti-forgery token and refreshes it after
// invalidation. Overlapping Token calls during a fetch share a single
// in-flight request instead of issuing duplicates.
type CsrfManager struct {
	fetch TokenFetcher
	now   func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	token CsrfToken
	valid bool
}

// NewCsrfManager creates a manager that refreshes tokens via fetch.
// A nil now func uses time.Now.
func NewCsrfManager(fetch TokenFetcher, now func() time.Time) *CsrfManager {
	if now == nil {
		now = time.Now
	}
	return &CsrfManager{fetch: fetch, now: now}
}

// Token returns the cached token, fetching one first if the cache is empty or
// was invalidated. Concurrent callers during a fetch all resolve to the same
// result.
func (m *CsrfManager) Token(ctx context.Context) (CsrfToken, error) {
	m.mu.Lock()
	if m.valid {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do("token", func() (any, error) {
		value, err := m.fetch(ctx)
		if err != nil {
			return CsrfToken{}, err
		}

		token := CsrfToken{Value: value, FetchedAt: m.now()}

		m.mu.Lock()
		m.token = token
		m.valid = true
		m.mu.Unlock()

		return token, nil
	})
	if err != nil {
		return CsrfToken{}, err
	}
	return v.(CsrfToken), nil
}

// Invalidate clears the cached token. The next Token call triggers exactly
// one fetch.
func (m *CsrfManager) Invalidate() {
	m.mu.Lock()
	m.token = CsrfToken{}
	m.valid = false
	m.mu.Unlock()
}

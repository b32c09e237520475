package internal

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

// sessionCookieName is the externally supplied credential cookie. It is never
// persisted to the jar file; the live value is appended to the Cookie header
// on every request instead.
const sessionCookieName = "reddit_session"

// Cookie is a single tracked cookie. Cookies are keyed by (name, domain,
// path); the jar holds at most one value per key.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"` // zero means session-scoped
	Secure  bool      `json:"secure,omitempty"`
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

type cookieKey struct {
	Name   string
	Domain string
	Path   string
}

// Jar is an insertion-ordered cookie collection persisted to a JSON file.
// Merging the same Set-Cookie sequence twice yields the same jar state as
// merging it once; a Set-Cookie that is already expired removes the key.
type Jar struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	order       []cookieKey
	cookies     map[cookieKey]Cookie
	collectedAt time.Time
}

// NewJar creates a jar backed by the given file path. A nil now func uses
// time.Now; a nil logger disables diagnostics.
func NewJar(path string, logger *slog.Logger, now func() time.Time) *Jar {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Jar{
		path:    path,
		logger:  logger,
		now:     now,
		cookies: make(map[cookieKey]Cookie),
	}
}

// Merge parses each Set-Cookie line and applies it to the jar. An existing
// (name, domain, path) key is overwritten in place, keeping its insertion
// position; an expired cookie removes the key.
func (j *Jar) Merge(setCookie []string) {
	if len(setCookie) == 0 {
		return
	}

	// http.Response.Cookies carries the full Set-Cookie grammar, including
	// Expires vs Max-Age precedence, so the jar does not reimplement it.
	resp := &http.Response{Header: http.Header{"Set-Cookie": setCookie}}
	parsed := resp.Cookies()

	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range parsed {
		// The session credential stays out of the jar entirely; CookieHeader
		// appends the configured value instead.
		if c.Name == "" || c.Name == sessionCookieName {
			continue
		}

		cookie := Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: strings.TrimPrefix(c.Domain, "."),
			Path:   c.Path,
			Secure: c.Secure,
		}
		switch {
		case c.MaxAge < 0:
			cookie.Expires = now.Add(-time.Second)
		case c.MaxAge > 0:
			cookie.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			cookie.Expires = c.Expires
		}

		key := cookieKey{Name: cookie.Name, Domain: cookie.Domain, Path: cookie.Path}
		if cookie.expired(now) {
			j.removeLocked(key)
			continue
		}

		if _, exists := j.cookies[key]; !exists {
			j.order = append(j.order, key)
		}
		j.cookies[key] = cookie
	}

	j.collectedAt = now
}

func (j *Jar) removeLocked(key cookieKey) {
	if _, exists := j.cookies[key]; !exists {
		return
	}
	delete(j.cookies, key)
	for i, k := range j.order {
		if k == key {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}

// CookieHeader renders all non-expired cookies in insertion order as a single
// Cookie header value. The session credential is appended last and shadows
// any persisted cookie of the same name.
func (j *Jar) CookieHeader(session string) string {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var b strings.Builder
	for _, key := range j.order {
		c := j.cookies[key]
		if c.expired(now) || c.Name == sessionCookieName {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
	}

	if session != "" {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(sessionCookieName)
		b.WriteByte('=')
		b.WriteString(session)
	}

	return b.String()
}

// Get returns the value of the first non-expired cookie with the given name,
// regardless of domain and path.
func (j *Jar) Get(name string) string {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, key := range j.order {
		if key.Name != name {
			continue
		}
		if c := j.cookies[key]; !c.expired(now) {
			return c.Value
		}
	}
	return ""
}

// Len returns the number of cookies currently held, expired ones included.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

// Fresh reports whether the jar holds cookies collected within maxAge.
// A stale or empty jar signals that the transport should re-seed it with a
// bootstrap navigation fetch.
func (j *Jar) Fresh(maxAge time.Duration) bool {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.cookies) > 0 && !j.collectedAt.IsZero() && now.Sub(j.collectedAt) < maxAge
}

// jarFile is the on-disk representation. Cookies keep their insertion order.
type jarFile struct {
	CollectedAt time.Time `json:"collected_at"`
	Cookies     []Cookie  `json:"cookies"`
}

// Load replaces the jar contents with the persisted state. A missing file is
// an empty jar; a corrupt file degrades to an empty jar with a warning rather
// than failing the run.
func (j *Jar) Load() {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("unreadable cookie file, starting with empty jar", "path", j.path, "error", err)
		}
		return
	}

	var file jarFile
	if err := json.Unmarshal(data, &file); err != nil {
		j.logger.Warn("corrupt cookie file, starting with empty jar", "path", j.path, "error", err)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.order = j.order[:0]
	j.cookies = make(map[cookieKey]Cookie, len(file.Cookies))
	for _, c := range file.Cookies {
		key := cookieKey{Name: c.Name, Domain: c.Domain, Path: c.Path}
		if _, exists := j.cookies[key]; !exists {
			j.order = append(j.order, key)
		}
		j.cookies[key] = c
	}
	j.collectedAt = file.CollectedAt
}

// Save persists the jar atomically, pruning cookies that have expired.
func (j *Jar) Save() error {
	now := j.now()

	j.mu.Lock()
	file := jarFile{CollectedAt: j.collectedAt}
	for _, key := range j.order {
		if c := j.cookies[key]; !c.expired(now) {
			file.Cookies = append(file.Cookies, c)
		}
	}
	j.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(j.path, append(data, '\n'))
}

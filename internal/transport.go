package internal

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	http "github.com/bogdanfinn/fhttp"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/time/rate"

	pkgerrs "github.com/birdcli/bird/pkg/errors"
)

const (
	// DefaultRequestsPerMinute caps steady-state throughput toward the remote.
	DefaultRequestsPerMinute = 60
	// DefaultRateLimitBurst allows short spikes above the steady-state rate.
	DefaultRateLimitBurst = 10

	secondsPerMinute = 60.0

	// cookieMaxAge is how long bootstrap cookies stay fresh before the
	// transport re-seeds the jar with a new navigation fetch.
	cookieMaxAge = 24 * time.Hour

	csrfTokenCookie = "csrf_token"
	loidCookie      = "loid"
)

// HTTPDoer is the slice of the fingerprinted client the transport needs.
// tls_client.HttpClient satisfies it; tests substitute a fake.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestIntent describes one logical request built by the session facade.
// It lives only for the duration of a single Send call.
type RequestIntent struct {
	Method  string
	Path    string
	Query   url.Values
	Form    url.Values
	Referer string

	// IsWrite marks state-mutating requests, which receive jitter and the
	// anti-forgery token.
	IsWrite bool

	// SkipJitter suppresses the pre-write delay (the --no-jitter override).
	SkipJitter bool
}

// RateLimitConfig controls the local pacing limiter applied before every
// request, independent of the remote's reported budget.
type RateLimitConfig struct {
	// RequestsPerMinute caps steady-state throughput. Defaults to 60 if zero.
	RequestsPerMinute float64
	// Burst allows short spikes above the steady-state rate. Defaults to 10 if zero.
	Burst int
}

// TransportConfig wires the transport's collaborators. All state objects are
// injected so each can be faked in tests.
type TransportConfig struct {
	// BaseURL is the scheme+host of the target service.
	BaseURL string
	// Session is the externally supplied session cookie value.
	Session string
	// Profile fixes the browser fingerprint. Required.
	Profile *BrowserProfile
	// Client overrides the fingerprinted HTTP client, used by tests.
	Client HTTPDoer

	Jar       *Jar
	Rate      *RateState
	Scheduler *WriteScheduler

	RateLimit *RateLimitConfig
	Timeout   time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

// Transport issues HTTP requests with a browser-faithful TLS and header
// fingerprint, threading every call through the rate governor, write
// scheduler, CSRF manager, and cookie jar.
type Transport struct {
	client    HTTPDoer
	baseURL   *url.URL
	profile   *BrowserProfile
	session   string
	jar       *Jar
	rateState *RateState
	scheduler *WriteScheduler
	csrf      *CsrfManager
	limiter   *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time
}

// NewTransport creates a transport from the given configuration.
func NewTransport(cfg TransportConfig) (*Transport, error) {
	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "BaseURL", Message: err.Error()}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client, err = NewFingerprintedClient(cfg.Profile, int(cfg.Timeout.Seconds()))
		if err != nil {
			return nil, &pkgerrs.ConfigError{Field: "Profile", Message: err.Error()}
		}
	}

	t := &Transport{
		client:    client,
		baseURL:   parsedURL,
		profile:   cfg.Profile,
		session:   cfg.Session,
		jar:       cfg.Jar,
		rateState: cfg.Rate,
		scheduler: cfg.Scheduler,
		limiter:   buildLimiter(cfg.RateLimit),
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	t.csrf = NewCsrfManager(t.fetchModhash, cfg.Now)

	return t, nil
}

func buildLimiter(cfg *RateLimitConfig) *rate.Limiter {
	if cfg == nil {
		cfg = &RateLimitConfig{}
	}

	requestsPerMinute := cfg.RequestsPerMinute
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultRateLimitBurst
	}

	limitPerSecond := rate.Limit(requestsPerMinute / secondsPerMinute)
	if limitPerSecond <= 0 {
		limitPerSecond = rate.Limit(1)
	}

	return rate.NewLimiter(limitPerSecond, burst)
}

// Csrf exposes the token manager so the facade can prime it during warm-up.
func (t *Transport) Csrf() *CsrfManager {
	return t.csrf
}

// sendState models the bounded retry machine for CSRF-rejected writes:
// a rejection in stateNormal refreshes the token and moves to stateCSRFRetry;
// a rejection in stateCSRFRetry surfaces an error. No third attempt exists.
type sendState int

const (
	stateNormal sendState = iota
	stateCSRFRetry
)

// Send issues the request described by intent and returns the response body.
// Response headers feed the rate governor and cookie jar before the body is
// returned.
func (t *Transport) Send(ctx context.Context, intent *RequestIntent) ([]byte, error) {
	state := stateNormal
	for {
		body, resp, err := t.roundTrip(ctx, intent, state)
		if err != nil {
			return nil, err
		}

		status := resp.StatusCode
		switch {
		case status >= 200 && status < 300:
			return body, nil

		case status == http.StatusUnauthorized:
			return nil, &pkgerrs.AuthExpiredError{StatusCode: status}

		case status == http.StatusForbidden && intent.IsWrite:
			if state == stateNormal {
				t.logger.Debug("write rejected, refreshing csrf token and retrying once",
					"path", intent.Path)
				t.csrf.Invalidate()
				state = stateCSRFRetry
				continue
			}
			return nil, &pkgerrs.CSRFRejectedError{StatusCode: status, Body: string(body)}

		case status == http.StatusForbidden:
			return nil, &pkgerrs.AuthExpiredError{
				StatusCode: status,
				Message:    "the service blocked this request; the session cookie may be expired or the account may need verification",
			}

		case status == http.StatusTooManyRequests:
			budget := t.rateState.Snapshot()
			rlErr := &pkgerrs.RateLimitError{
				Remaining:  -1,
				RetryAfter: retryAfter(resp.Header),
			}
			if budget.Known {
				rlErr.Remaining = budget.Remaining
				rlErr.ResetAfter = budget.ResetAfter
			}
			return nil, rlErr

		default:
			return nil, &pkgerrs.UnexpectedStatusError{StatusCode: status, Body: string(body)}
		}
	}
}

// roundTrip performs one wire exchange: governor delay, pacing, jitter and
// token for writes, cookie attachment, the network call, and state updates
// from the response headers.
func (t *Transport) roundTrip(ctx context.Context, intent *RequestIntent, state sendState) ([]byte, *http.Response, error) {
	if delay := t.rateState.RequiredDelay(t.now()); delay > 0 {
		t.logger.Warn("rate budget low, pausing before request", "delay", delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, nil, &pkgerrs.TimeoutError{Operation: intent.Path, Err: err}
		}
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, nil, &pkgerrs.TimeoutError{Operation: intent.Path, Err: err}
	}

	var token string
	if intent.IsWrite {
		// Jitter applies to the first attempt only; the CSRF retry resends
		// immediately.
		if state == stateNormal {
			if delay := t.scheduler.JitterDelay(intent.SkipJitter); delay > 0 {
				t.logger.Debug("jitter before write", "delay", delay)
				if err := sleepCtx(ctx, delay); err != nil {
					return nil, nil, &pkgerrs.TimeoutError{Operation: intent.Path, Err: err}
				}
			}
		}

		tok, err := t.csrf.Token(ctx)
		if err != nil {
			return nil, nil, err
		}
		token = tok.Value
	}

	req, err := t.buildRequest(ctx, intent, token)
	if err != nil {
		return nil, nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, nil, classifyNetErr(intent.Path, req.URL.String(), ctx, err)
	}

	body, err := readBody(resp)

	now := t.now()
	t.rateState.Observe(resp.Header, now)
	if setCookie := resp.Header.Values("Set-Cookie"); len(setCookie) > 0 {
		t.jar.Merge(setCookie)
		if saveErr := t.jar.Save(); saveErr != nil {
			t.logger.Warn("failed to persist cookie jar", "error", saveErr)
		}
	}

	if err != nil {
		return nil, nil, classifyNetErr(intent.Path, req.URL.String(), ctx, err)
	}

	t.logger.Debug("request complete",
		"method", intent.Method, "path", intent.Path, "status", resp.StatusCode)

	return body, resp, nil
}

func (t *Transport) buildRequest(ctx context.Context, intent *RequestIntent, token string) (*http.Request, error) {
	u := *t.baseURL
	u.Path = intent.Path
	if intent.Query != nil {
		u.RawQuery = intent.Query.Encode()
	}

	var body io.Reader
	if intent.IsWrite {
		form := url.Values{}
		for k, vs := range intent.Form {
			form[k] = vs
		}
		if token != "" {
			form.Set("uh", token)
		}
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, intent.Method, u.String(), body)
	if err != nil {
		return nil, &pkgerrs.StateError{Operation: intent.Path, Message: err.Error()}
	}

	for _, h := range t.profile.BaseHeaders {
		req.Header.Set(h.Name, h.Value)
	}

	referer := intent.Referer
	if referer == "" {
		referer = t.baseURL.String() + "/"
	}
	req.Header.Set("referer", referer)

	if intent.IsWrite {
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		if token != "" {
			req.Header.Set("x-modhash", token)
		}
	}

	// Identity headers mirror the cookies the remote issued to this session.
	if csrf := t.jar.Get(csrfTokenCookie); csrf != "" {
		req.Header.Set("x-csrf-token", csrf)
	}
	if loid := t.jar.Get(loidCookie); loid != "" {
		req.Header.Set("x-reddit-loid", loid)
	}

	req.Header.Set("cookie", t.jar.CookieHeader(t.session))

	req.Header[http.HeaderOrderKey] = t.profile.HeaderOrder
	req.Header[http.PHeaderOrderKey] = t.profile.PseudoHeaderOrder

	return req, nil
}

// Bootstrap performs one browser-like navigation fetch of the site root to
// seed the jar with first-visit cookies. It is a no-op while the jar is
// fresh.
func (t *Transport) Bootstrap(ctx context.Context) error {
	if t.jar.Fresh(cookieMaxAge) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL.String()+"/", nil)
	if err != nil {
		return &pkgerrs.StateError{Operation: "bootstrap", Message: err.Error()}
	}

	for _, h := range t.profile.NavigationHeaders {
		req.Header.Set(h.Name, h.Value)
	}
	req.Header[http.HeaderOrderKey] = t.profile.NavigationOrder
	req.Header[http.PHeaderOrderKey] = t.profile.PseudoHeaderOrder

	resp, err := t.client.Do(req)
	if err != nil {
		return classifyNetErr("bootstrap", req.URL.String(), ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if setCookie := resp.Header.Values("Set-Cookie"); len(setCookie) > 0 {
		t.jar.Merge(setCookie)
		if err := t.jar.Save(); err != nil {
			t.logger.Warn("failed to persist bootstrap cookies", "error", err)
		}
	}

	t.logger.Debug("bootstrap fetch complete", "status", resp.StatusCode, "cookies", t.jar.Len())
	return nil
}

// meEnvelope covers both shapes /api/me.json returns the modhash in.
type meEnvelope struct {
	Modhash string `json:"modhash"`
	Data    struct {
		Modhash string `json:"modhash"`
	} `json:"data"`
}

// fetchModhash retrieves the anti-forgery token from the identity endpoint.
// This is the CsrfManager's fetch path; the nested request is sequential with
// the outer call.
func (t *Transport) fetchModhash(ctx context.Context) (string, error) {
	body, err := t.Send(ctx, &RequestIntent{
		Method: http.MethodGet,
		Path:   "/api/me.json",
	})
	if err != nil {
		return "", err
	}

	var me meEnvelope
	if err := json.Unmarshal(body, &me); err != nil {
		return "", &pkgerrs.MalformedError{Operation: "fetch csrf token", Body: string(body), Err: err}
	}

	if me.Data.Modhash != "" {
		return me.Data.Modhash, nil
	}
	return me.Modhash, nil
}

// sleepCtx blocks for d or until the context is done, whichever comes first.
// Delays are suspension points, not spin waits.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classifyNetErr maps a wire-level failure to the typed taxonomy: deadline
// and cancellation become TimeoutError, everything else NetworkError.
func classifyNetErr(op, rawURL string, ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &pkgerrs.TimeoutError{Operation: op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &pkgerrs.TimeoutError{Operation: op, Err: err}
	}

	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return &pkgerrs.TimeoutError{Operation: op, Err: err}
	}

	return &pkgerrs.NetworkError{Operation: op, URL: rawURL, Err: err}
}

// readBody drains and decodes a response body according to its
// Content-Encoding. Browsers advertise gzip, deflate, br, and zstd, so the
// transport must handle all four.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("content-encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	}

	return io.ReadAll(reader)
}

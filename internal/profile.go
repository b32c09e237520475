package internal

import (
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// Header is an ordered name-value pair.
type Header struct {
	Name  string
	Value string
}

// BrowserProfile bundles the correlated fingerprint signals: the TLS/HTTP2
// ClientHello shape (via tls-client's profile), the User-Agent, the static
// client-hint headers, and the exact header order a real browser emits.
// A mismatch between any of these is a reliable automation indicator, so they
// are kept together and swapped as a unit.
type BrowserProfile struct {
	// Name identifies the profile in logs.
	Name string

	// ClientProfile controls the TLS ClientHello and HTTP/2 fingerprint.
	ClientProfile profiles.ClientProfile

	// UserAgent matches the browser version ClientProfile impersonates.
	UserAgent string

	// BaseHeaders are the static headers sent with every JSON request,
	// in order.
	BaseHeaders []Header

	// HeaderOrder lists the full lowercase header order for JSON requests,
	// including headers attached per request (cookie, referer, tokens).
	HeaderOrder []string

	// NavigationHeaders are the headers for a document navigation request
	// (the cookie bootstrap fetch), in order.
	NavigationHeaders []Header

	// NavigationOrder lists the header order for navigation requests.
	NavigationOrder []string

	// PseudoHeaderOrder is the HTTP/2 pseudo-header order.
	PseudoHeaderOrder []string
}

// ChromeMacProfile returns the profile for Chrome 131 on macOS, matching the
// TLS fingerprint produced by profiles.Chrome_131.
func ChromeMacProfile() *BrowserProfile {
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	secChUa := `"Chromium";v="131", "Not_A Brand";v="24"`

	return &BrowserProfile{
		Name:          "chrome-131-mac",
		ClientProfile: profiles.Chrome_131,
		UserAgent:     ua,
		BaseHeaders: []Header{
			{"accept", "application/json"},
			{"accept-encoding", "gzip, deflate, br, zstd"},
			{"accept-language", "en-US,en;q=0.9"},
			{"dnt", "1"},
			{"user-agent", ua},
			{"origin", "https://www.reddit.com"},
			{"sec-ch-ua", secChUa},
			{"sec-ch-ua-mobile", "?0"},
			{"sec-ch-ua-platform", `"macOS"`},
			{"sec-fetch-dest", "empty"},
			{"sec-fetch-mode", "cors"},
			{"sec-fetch-site", "same-origin"},
		},
		HeaderOrder: []string{
			"accept",
			"accept-encoding",
			"accept-language",
			"content-type",
			"dnt",
			"origin",
			"referer",
			"sec-ch-ua",
			"sec-ch-ua-mobile",
			"sec-ch-ua-platform",
			"sec-fetch-dest",
			"sec-fetch-mode",
			"sec-fetch-site",
			"user-agent",
			"x-csrf-token",
			"x-modhash",
			"x-reddit-loid",
			"cookie",
		},
		NavigationHeaders: []Header{
			{"accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"},
			{"accept-encoding", "gzip, deflate, br, zstd"},
			{"accept-language", "en-US,en;q=0.9"},
			{"dnt", "1"},
			{"user-agent", ua},
			{"sec-ch-ua", secChUa},
			{"sec-ch-ua-mobile", "?0"},
			{"sec-ch-ua-platform", `"macOS"`},
			{"sec-fetch-dest", "document"},
			{"sec-fetch-mode", "navigate"},
			{"sec-fetch-site", "none"},
			{"sec-fetch-user", "?1"},
			{"upgrade-insecure-requests", "1"},
		},
		NavigationOrder: []string{
			"accept",
			"accept-encoding",
			"accept-language",
			"dnt",
			"sec-ch-ua",
			"sec-ch-ua-mobile",
			"sec-ch-ua-platform",
			"sec-fetch-dest",
			"sec-fetch-mode",
			"sec-fetch-site",
			"sec-fetch-user",
			"upgrade-insecure-requests",
			"user-agent",
			"cookie",
		},
		PseudoHeaderOrder: []string{":method", ":authority", ":scheme", ":path"},
	}
}

// NewFingerprintedClient builds a tls-client whose wire signature matches the
// profile. Redirects are followed so the bootstrap navigation behaves like a
// real browser landing on the site.
func NewFingerprintedClient(p *BrowserProfile, timeoutSeconds int) (tls_client.HttpClient, error) {
	opts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(p.ClientProfile),
	}
	return tls_client.NewHttpClient(tls_client.NewNoopLogger(), opts...)
}

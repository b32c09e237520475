package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testJar(t *testing.T, now func() time.Time) *Jar {
	t.Helper()
	return NewJar(filepath.Join(t.TempDir(), "cookies.json"), nil, now)
}

func TestJarMergeIsIdempotent(t *testing.T) {
	jar := testJar(t, nil)

	setCookie := []string{
		"token_v2=abc; Path=/; Domain=.reddit.com; Secure",
		"loid=xyz; Path=/; Max-Age=63072000",
	}

	jar.Merge(setCookie)
	first := jar.CookieHeader("")

	jar.Merge(setCookie)
	second := jar.CookieHeader("")

	if first != second {
		t.Errorf("repeated merge changed jar state: %q vs %q", first, second)
	}
	if jar.Len() != 2 {
		t.Errorf("expected 2 cookies, got %d", jar.Len())
	}
}

func TestJarLastWriteWinsKeepsPosition(t *testing.T) {
	jar := testJar(t, nil)

	jar.Merge([]string{"first=1; Path=/", "second=2; Path=/"})
	jar.Merge([]string{"first=updated; Path=/"})

	if got := jar.Get("first"); got != "updated" {
		t.Errorf("Get(first) = %q, want %q", got, "updated")
	}

	header := jar.CookieHeader("")
	if want := "first=updated; second=2"; header != want {
		t.Errorf("CookieHeader() = %q, want %q", header, want)
	}
}

func TestJarExpiredSetCookieRemovesKey(t *testing.T) {
	jar := testJar(t, nil)

	jar.Merge([]string{"tracker=abc; Path=/"})
	if jar.Len() != 1 {
		t.Fatalf("expected 1 cookie after merge, got %d", jar.Len())
	}

	// Max-Age=0 is the deletion form of Set-Cookie.
	jar.Merge([]string{"tracker=; Path=/; Max-Age=0"})
	if jar.Len() != 0 {
		t.Errorf("expected expired cookie to be removed, jar has %d", jar.Len())
	}
	if got := jar.Get("tracker"); got != "" {
		t.Errorf("Get(tracker) = %q, want empty", got)
	}
}

func TestJarExpiryPruning(t *testing.T) {
	current := time.Now()
	jar := testJar(t, func() time.Time { return current })

	jar.Merge([]string{"shortlived=1; Max-Age=60", "longlived=2; Max-Age=3600"})

	current = current.Add(2 * time.Minute)

	header := jar.CookieHeader("")
	if strings.Contains(header, "shortlived") {
		t.Errorf("expired cookie still rendered: %q", header)
	}
	if !strings.Contains(header, "longlived=2") {
		t.Errorf("live cookie missing: %q", header)
	}
}

func TestJarSessionCookieNeverStored(t *testing.T) {
	jar := testJar(t, nil)

	jar.Merge([]string{"reddit_session=from-server; Path=/", "other=1; Path=/"})

	if jar.Len() != 1 {
		t.Fatalf("session cookie was stored, jar has %d cookies", jar.Len())
	}

	// The configured live value is appended last instead.
	header := jar.CookieHeader("live-value")
	if want := "other=1; reddit_session=live-value"; header != want {
		t.Errorf("CookieHeader() = %q, want %q", header, want)
	}
}

func TestJarCookieHeaderInsertionOrder(t *testing.T) {
	jar := testJar(t, nil)

	jar.Merge([]string{"csrf_token=c1"})
	jar.Merge([]string{"loid=l1"})
	jar.Merge([]string{"token_v2=t1"})

	if got, want := jar.CookieHeader(""), "csrf_token=c1; loid=l1; token_v2=t1"; got != want {
		t.Errorf("CookieHeader() = %q, want %q", got, want)
	}
}

func TestJarSaveLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		setCookie []string
	}{
		{name: "empty jar"},
		{name: "one cookie", setCookie: []string{"loid=abc; Max-Age=3600"}},
		{name: "several cookies", setCookie: []string{
			"csrf_token=c; Max-Age=3600",
			"loid=l; Max-Age=3600",
			"session_tracker=s; Max-Age=3600",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cookies.json")

			jar := NewJar(path, nil, nil)
			jar.Merge(tt.setCookie)
			if err := jar.Save(); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}

			loaded := NewJar(path, nil, nil)
			loaded.Load()

			if got, want := loaded.CookieHeader(""), jar.CookieHeader(""); got != want {
				t.Errorf("round trip changed header: %q vs %q", got, want)
			}
			if loaded.Len() != jar.Len() {
				t.Errorf("round trip changed count: %d vs %d", loaded.Len(), jar.Len())
			}
		})
	}
}

func TestJarLoadCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	jar := NewJar(path, nil, nil)
	jar.Load()

	if jar.Len() != 0 {
		t.Errorf("corrupt file should load as empty jar, got %d cookies", jar.Len())
	}
}

func TestJarFresh(t *testing.T) {
	current := time.Now()
	jar := testJar(t, func() time.Time { return current })

	if jar.Fresh(24 * time.Hour) {
		t.Error("empty jar reported fresh")
	}

	jar.Merge([]string{"loid=abc; Max-Age=63072000"})
	if !jar.Fresh(24 * time.Hour) {
		t.Error("jar not fresh immediately after merge")
	}

	current = current.Add(25 * time.Hour)
	if jar.Fresh(24 * time.Hour) {
		t.Error("jar still fresh after max age elapsed")
	}
}

// Package bird provides a browser-faithful session layer for Reddit's
// undocumented JSON endpoints, authenticated with a session cookie copied
// from a logged-in browser.
//
// Unlike OAuth API wrappers, this client never negotiates credentials. It
// presents the reddit_session cookie the user supplies, and everything else
// it does exists to make that cookie keep working: the TLS handshake, HTTP/2
// fingerprint, and header order match a real Chrome browser; a stable device
// identity and the cookies the site issues are persisted across runs; writes
// are delayed by a randomized interval; and the remote rate limiter's
// reported budget is respected before it starts rejecting.
//
// # Getting Started
//
// Copy the reddit_session cookie from a logged-in browser session and export
// it as REDDIT_SESSION (a .env file in the working directory or any parent
// also works). Then:
//
//	config, err := bird.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := bird.NewClient(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	results, err := client.Search(ctx, &types.SearchRequest{
//		Query:     "generics",
//		Subreddit: "golang",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, post := range results.Posts {
//		fmt.Println(post.Title)
//	}
//
// The session is initialized lazily on the first call, or eagerly with
// Connect. Initialization loads the persisted device identity and cookie
// jar, seeds the jar with a first-visit fetch when it is stale, and primes
// the anti-forgery token used by writes.
//
// # Reading
//
// Search, SubredditPosts, ReadPost, UserAbout, Me, and Mentions are read
// operations. They are paced by a local request limiter and by the remote's
// reported rate budget, but carry no artificial delay.
//
// # Writing
//
// Reply and SubmitPost mutate state. Each write waits a uniformly random
// 2-5 seconds first (disable with Config.NoJitter), and carries the
// session's anti-forgery token both as the "uh" form field and the
// x-modhash header. A write rejected with 403 refreshes the token and
// retries exactly once; a second rejection surfaces as
// *errors.CSRFRejectedError.
//
// # Errors
//
// Every failure mode has a distinct type in pkg/errors, so callers branch
// with errors.As instead of matching strings:
//
//	_, err := client.Reply(ctx, req)
//	var authErr *errors.AuthExpiredError
//	if errors.As(err, &authErr) {
//		// the cookie expired; ask the user for a fresh one
//	}
//
// AuthExpiredError is terminal: the session layer cannot refresh the
// browser cookie, so the user must supply a new one.
//
// # Persistent State
//
// The device identity and cookie jar live under Config.StateDir, which
// defaults to the platform config directory (for example
// ~/.config/bird-reddit on Linux). Files are written atomically with
// owner-only permissions. The reddit_session credential itself is never
// written to disk.
//
// # Concurrency
//
// A Client is safe for concurrent use. Overlapping writes that need a token
// refresh share a single in-flight fetch.
package bird

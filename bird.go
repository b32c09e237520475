package bird

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"

	http "github.com/bogdanfinn/fhttp"

	"github.com/birdcli/bird/internal"
	pkgerrs "github.com/birdcli/bird/pkg/errors"
	"github.com/birdcli/bird/pkg/types"
	"github.com/birdcli/bird/pkg/validation"
)

// Client is the session facade. Each method translates typed parameters into
// a request intent, sends it through the fingerprinted transport, and decodes
// the JSON body into a typed result.
//
// A Client is safe for concurrent use. The first request lazily initializes
// the session: loading the device identity and cookie jar, seeding the jar
// with a bootstrap fetch when stale, and priming the anti-forgery token.
type Client struct {
	config    *Config
	logger    *slog.Logger
	parser    *internal.Parser
	transport *internal.Transport

	connectOnce sync.Once
	connectErr  error
}

// NewClient creates a client with the provided configuration. The function
// validates the configuration but performs no network calls; the session is
// initialized on first use or by an explicit Connect.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, &pkgerrs.ConfigError{Message: "config cannot be nil"}
	}
	if config.RedditSession == "" {
		return nil, &pkgerrs.ConfigError{Field: "RedditSession", Message: "session cookie is required"}
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.StateDir == "" {
		config.StateDir = defaultStateDir()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		config: config,
		logger: config.Logger,
		parser: internal.NewParser(),
	}, nil
}

// Connect initializes the session. It is safe to call multiple times;
// initialization happens once and its result is shared by all callers.
func (c *Client) Connect(ctx context.Context) error {
	c.connectOnce.Do(func() {
		c.connectErr = c.initialize(ctx)
	})
	return c.connectErr
}

// initialize performs the underlying session setup work.
func (c *Client) initialize(ctx context.Context) error {
	identityStore := internal.NewIdentityStore(
		filepath.Join(c.config.StateDir, "session.json"), c.logger)
	identity, err := identityStore.Load()
	if err != nil {
		return &pkgerrs.StateError{Operation: "connect", Message: err.Error()}
	}

	// The jar is keyed by device identity so repeated runs present the same
	// tracking cookies alongside the same device ID.
	jar := internal.NewJar(
		filepath.Join(c.config.StateDir, "cookies-"+identity.ID+".json"), c.logger, nil)
	jar.Load()

	transport, err := internal.NewTransport(internal.TransportConfig{
		BaseURL:   c.config.BaseURL,
		Session:   c.config.RedditSession,
		Profile:   internal.ChromeMacProfile(),
		Jar:       jar,
		Rate:      internal.NewRateState(c.config.RateLowWater, c.logger),
		Scheduler: internal.NewWriteScheduler(c.config.JitterMin, c.config.JitterMax, nil),
		Timeout:   c.config.Timeout,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.transport = transport

	// Seed first-visit cookies when the jar is stale. A failed bootstrap is
	// not fatal: requests still carry the session credential.
	if err := transport.Bootstrap(ctx); err != nil {
		c.logger.Warn("cookie bootstrap failed, continuing with existing jar", "error", err)
	}

	// Warm-up: prime the anti-forgery token the way a browser session would
	// land on its own profile before interacting. Failure is deferred to the
	// first operation that actually needs the session.
	if _, err := transport.Csrf().Token(ctx); err != nil {
		c.logger.Warn("session warm-up failed", "error", err)
	}

	c.logger.Debug("session initialized", "device_id", identity.ID)
	return nil
}

// ensureConnected lazily initializes the session before handling a request.
func (c *Client) ensureConnected(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	if c.transport == nil {
		return &pkgerrs.StateError{Operation: "request", Message: "client not connected"}
	}
	return nil
}

func (c *Client) refererURL(path string) string {
	return c.config.BaseURL + path
}

// Search retrieves posts matching a query, optionally restricted to one
// subreddit.
func (c *Client) Search(ctx context.Context, request *types.SearchRequest) (*types.PostsResponse, error) {
	if request == nil || request.Query == "" {
		return nil, &pkgerrs.ConfigError{Field: "Query", Message: "search query is required"}
	}
	if request.Subreddit != "" && !validation.IsValidSubreddit(request.Subreddit) {
		return nil, &pkgerrs.ConfigError{Field: "Subreddit", Message: "invalid subreddit name"}
	}
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	sub := request.Subreddit
	restrict := "on"
	if sub == "" {
		sub = "all"
		restrict = "off"
	}
	sort := request.Sort
	if sort == "" {
		sort = "new"
	}
	timeFilter := request.TimeFilter
	if timeFilter == "" {
		timeFilter = "week"
	}

	q := url.Values{
		"q":           {request.Query},
		"sort":        {sort},
		"t":           {timeFilter},
		"restrict_sr": {restrict},
		"type":        {"link"},
		"raw_json":    {"1"},
	}
	applyPagination(q, request.Pagination)

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method:  http.MethodGet,
		Path:    "/r/" + sub + "/search.json",
		Query:   q,
		Referer: c.refererURL("/r/" + sub + "/search/?q=" + url.QueryEscape(request.Query)),
	})
	if err != nil {
		return nil, err
	}

	posts, err := c.parser.ExtractPosts(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "search", Body: string(body), Err: err}
	}
	return posts, nil
}

// SubredditPosts retrieves a subreddit's post listing in the given sort
// order.
func (c *Client) SubredditPosts(ctx context.Context, request *types.SubredditRequest) (*types.PostsResponse, error) {
	if request == nil || !validation.IsValidSubreddit(request.Subreddit) {
		return nil, &pkgerrs.ConfigError{Field: "Subreddit", Message: "invalid subreddit name"}
	}
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	sort := request.Sort
	if sort == "" {
		sort = "hot"
	}

	q := url.Values{"raw_json": {"1"}}
	if sort == "top" {
		timeFilter := request.TimeFilter
		if timeFilter == "" {
			timeFilter = "week"
		}
		q.Set("t", timeFilter)
	}
	applyPagination(q, request.Pagination)

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method:  http.MethodGet,
		Path:    "/r/" + request.Subreddit + "/" + sort + ".json",
		Query:   q,
		Referer: c.refererURL("/r/" + request.Subreddit + "/"),
	})
	if err != nil {
		return nil, err
	}

	posts, err := c.parser.ExtractPosts(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "subreddit posts", Body: string(body), Err: err}
	}
	return posts, nil
}

// ReadPost retrieves a post and its top-level comments.
func (c *Client) ReadPost(ctx context.Context, request *types.ReadPostRequest) (*types.PostWithComments, error) {
	if request == nil || request.PostID == "" {
		return nil, &pkgerrs.ConfigError{Field: "PostID", Message: "post ID is required"}
	}
	postID := validation.StripFullnamePrefix(request.PostID)
	if !validation.IsValidBase36(postID) {
		return nil, &pkgerrs.ConfigError{Field: "PostID", Message: "invalid post ID"}
	}
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	limit := request.CommentLimit
	if limit <= 0 {
		limit = 20
	}
	sort := request.CommentSort
	if sort == "" {
		sort = "confidence"
	}

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method: http.MethodGet,
		Path:   "/comments/" + postID + ".json",
		Query: url.Values{
			"limit":    {strconv.Itoa(limit)},
			"sort":     {sort},
			"raw_json": {"1"},
		},
		Referer: c.refererURL("/comments/" + postID + "/"),
	})
	if err != nil {
		return nil, err
	}

	result, err := c.parser.ExtractPostWithComments(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "read post", Body: string(body), Err: err}
	}
	return result, nil
}

// replyThing is the data object for a created comment inside the write
// endpoint's envelope.
type replyThing struct {
	Things []struct {
		Kind string `json:"kind"`
		Data struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Permalink string `json:"permalink"`
		} `json:"data"`
	} `json:"things"`
}

// Reply posts a comment in reply to a post or another comment. This is a
// write operation: it is jittered unless Config.NoJitter is set, and carries
// the session's anti-forgery token.
func (c *Client) Reply(ctx context.Context, request *types.ReplyRequest) (*types.ReplyResult, error) {
	if request == nil || request.ThingID == "" {
		return nil, &pkgerrs.ConfigError{Field: "ThingID", Message: "thing ID is required"}
	}
	if request.Text == "" {
		return nil, &pkgerrs.ConfigError{Field: "Text", Message: "reply text is required"}
	}
	thingID := validation.NormalizeFullname(request.ThingID)
	if !validation.IsValidFullname(thingID) {
		return nil, &pkgerrs.ConfigError{Field: "ThingID", Message: "invalid thing ID"}
	}
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method: http.MethodPost,
		Path:   "/api/comment",
		Form: url.Values{
			"thing_id": {thingID},
			"text":     {request.Text},
			"api_type": {"json"},
		},
		Referer:    c.refererURL("/comments/" + validation.StripFullnamePrefix(thingID) + "/"),
		IsWrite:    true,
		SkipJitter: c.config.NoJitter,
	})
	if err != nil {
		return nil, err
	}

	apiResult, err := c.parser.ParseAPIResponse(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "reply", Body: string(body), Err: err}
	}
	if len(apiResult.Errors) > 0 {
		return nil, &pkgerrs.APIError{Errors: apiResult.Errors}
	}

	result := &types.ReplyResult{}
	var data replyThing
	if len(apiResult.Data) > 0 {
		if err := json.Unmarshal(apiResult.Data, &data); err == nil && len(data.Things) > 0 {
			result.CommentID = data.Things[0].Data.ID
			result.Fullname = data.Things[0].Data.Name
			result.Permalink = data.Things[0].Data.Permalink
		}
	}
	return result, nil
}

// submitData is the data object the submit endpoint returns for a created
// post.
type submitData struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SubmitPost creates a new post in a subreddit: a link post when URL is set,
// a self post otherwise. This is a write operation.
func (c *Client) SubmitPost(ctx context.Context, request *types.SubmitRequest) (*types.SubmitResult, error) {
	if request == nil || !validation.IsValidSubreddit(request.Subreddit) {
		return nil, &pkgerrs.ConfigError{Field: "Subreddit", Message: "invalid subreddit name"}
	}
	if request.Title == "" {
		return nil, &pkgerrs.ConfigError{Field: "Title", Message: "title is required"}
	}
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	form := url.Values{
		"sr":       {request.Subreddit},
		"title":    {request.Title},
		"api_type": {"json"},
		"resubmit": {"true"},
	}
	if request.URL != "" {
		form.Set("kind", "link")
		form.Set("url", request.URL)
	} else {
		form.Set("kind", "self")
		form.Set("text", request.Body)
	}

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method:     http.MethodPost,
		Path:       "/api/submit",
		Form:       form,
		Referer:    c.refererURL("/r/" + request.Subreddit + "/submit/"),
		IsWrite:    true,
		SkipJitter: c.config.NoJitter,
	})
	if err != nil {
		return nil, err
	}

	apiResult, err := c.parser.ParseAPIResponse(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "submit", Body: string(body), Err: err}
	}
	if len(apiResult.Errors) > 0 {
		return nil, &pkgerrs.APIError{Errors: apiResult.Errors}
	}

	var data submitData
	if len(apiResult.Data) > 0 {
		_ = json.Unmarshal(apiResult.Data, &data)
	}
	return &types.SubmitResult{PostID: data.ID, URL: data.URL}, nil
}

// Me returns the authenticated user's account. It doubles as the
// authentication check: an expired credential surfaces as AuthExpiredError.
func (c *Client) Me(ctx context.Context) (*types.AccountData, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method: http.MethodGet,
		Path:   "/api/me.json",
	})
	if err != nil {
		return nil, err
	}

	account, err := c.parser.ParseAccount(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "me", Body: string(body), Err: err}
	}
	return account, nil
}

// UserAbout returns public information about a user.
func (c *Client) UserAbout(ctx context.Context, username string) (*types.AccountData, error) {
	if !validation.IsValidUsername(username) {
		return nil, &pkgerrs.ConfigError{Field: "username", Message: "invalid username"}
	}
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method:  http.MethodGet,
		Path:    "/user/" + username + "/about.json",
		Referer: c.refererURL("/user/" + username + "/"),
	})
	if err != nil {
		return nil, err
	}

	account, err := c.parser.ParseAccount(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "user about", Body: string(body), Err: err}
	}
	return account, nil
}

// Mentions returns recent comments mentioning the authenticated user.
func (c *Client) Mentions(ctx context.Context, request *types.MentionsRequest) ([]*types.Comment, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	q := url.Values{"raw_json": {"1"}}
	if request != nil {
		applyPagination(q, request.Pagination)
	}

	body, err := c.transport.Send(ctx, &internal.RequestIntent{
		Method:  http.MethodGet,
		Path:    "/message/mentions.json",
		Query:   q,
		Referer: c.refererURL("/message/mentions/"),
	})
	if err != nil {
		return nil, err
	}

	comments, err := c.parser.ExtractComments(body)
	if err != nil {
		return nil, &pkgerrs.MalformedError{Operation: "mentions", Body: string(body), Err: err}
	}
	return comments, nil
}

// applyPagination copies listing pagination parameters into a query.
func applyPagination(q url.Values, p types.Pagination) {
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", p.Limit))
	} else {
		q.Set("limit", "25")
	}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Before != "" {
		q.Set("before", p.Before)
	}
}

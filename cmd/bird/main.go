// Command bird searches, reads, and replies on Reddit from the terminal,
// authenticated with a browser session cookie.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	bird "github.com/birdcli/bird"
	pkgerrs "github.com/birdcli/bird/pkg/errors"
	"github.com/birdcli/bird/pkg/types"
)

const usage = `Usage: bird [flags] <command> [args]

Commands:
  search <query>          Search for posts
  subreddit <name>        Browse a subreddit
  read <post-id>          Read a post and its comments
  reply <thing-id> <text> Reply to a post (t3_xxx) or comment (t1_xxx)
  post <subreddit> <title> Create a new post
  whoami                  Show current authenticated user
  check                   Check authentication status
  about <username>        Show info about a Reddit user
  mentions                Show recent mentions of your username

Flags:
  --json        Output as JSON
  --no-jitter   Disable random delay before writes
  --verbose     Log session activity to stderr
`

// app carries the state shared by all subcommands.
type app struct {
	useJSON  bool
	noJitter bool
	verbose  bool

	client *bird.Client
}

func main() {
	a := &app{}
	flag.BoolVar(&a.useJSON, "json", false, "output as JSON")
	flag.BoolVar(&a.noJitter, "no-jitter", false, "disable random delay before writes")
	flag.BoolVar(&a.verbose, "verbose", false, "log session activity to stderr")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := a.run(context.Background(), args[0], args[1:]); err != nil {
		printError(os.Stderr, "%s", errorMessage(err))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "search":
		return a.search(ctx, args)
	case "subreddit":
		return a.subreddit(ctx, args)
	case "read":
		return a.read(ctx, args)
	case "reply":
		return a.reply(ctx, args)
	case "post":
		return a.post(ctx, args)
	case "whoami":
		return a.whoami(ctx)
	case "check":
		return a.check(ctx)
	case "about":
		return a.about(ctx, args)
	case "mentions":
		return a.mentions(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// getClient resolves credentials only when a command actually runs, so that
// usage errors never require a configured session.
func (a *app) getClient() (*bird.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	config, err := bird.LoadConfig()
	if err != nil {
		return nil, err
	}
	config.NoJitter = config.NoJitter || a.noJitter
	if a.verbose {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	client, err := bird.NewClient(config)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	subreddit := fs.String("s", "", "limit to a specific subreddit")
	count := fs.Int("n", 25, "number of results")
	sort := fs.String("sort", "new", "relevance, new, hot, top, comments")
	timeFilter := fs.String("time", "week", "all, day, week, month, year")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: bird search [flags] <query>")
	}
	query := fs.Arg(0)

	client, err := a.getClient()
	if err != nil {
		return err
	}

	result, err := client.Search(ctx, &types.SearchRequest{
		Query:      query,
		Subreddit:  *subreddit,
		Sort:       *sort,
		TimeFilter: *timeFilter,
		Pagination: types.Pagination{Limit: *count},
	})
	if err != nil {
		return err
	}

	if a.useJSON {
		out := make([]postJSON, 0, len(result.Posts))
		for _, p := range result.Posts {
			out = append(out, postToJSON(p))
		}
		printJSON(os.Stdout, out)
		return nil
	}

	fmt.Printf("Found %d results for '%s'\n", len(result.Posts), query)
	printRule(os.Stdout)
	for _, p := range result.Posts {
		printPost(os.Stdout, p)
	}
	return nil
}

func (a *app) subreddit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("subreddit", flag.ExitOnError)
	count := fs.Int("n", 25, "number of posts")
	sort := fs.String("sort", "hot", "hot, new, top, rising")
	timeFilter := fs.String("time", "week", "all, day, week, month, year")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: bird subreddit [flags] <name>")
	}
	name := fs.Arg(0)

	client, err := a.getClient()
	if err != nil {
		return err
	}

	result, err := client.SubredditPosts(ctx, &types.SubredditRequest{
		Subreddit:  name,
		Sort:       *sort,
		TimeFilter: *timeFilter,
		Pagination: types.Pagination{Limit: *count},
	})
	if err != nil {
		return err
	}

	if a.useJSON {
		out := make([]postJSON, 0, len(result.Posts))
		for _, p := range result.Posts {
			out = append(out, postToJSON(p))
		}
		printJSON(os.Stdout, out)
		return nil
	}

	fmt.Printf("r/%s - %s (%d posts)\n", name, *sort, len(result.Posts))
	printRule(os.Stdout)
	for _, p := range result.Posts {
		printPost(os.Stdout, p)
	}
	return nil
}

func (a *app) read(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	commentCount := fs.Int("n", 20, "number of top comments")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: bird read [flags] <post-id>")
	}

	client, err := a.getClient()
	if err != nil {
		return err
	}

	result, err := client.ReadPost(ctx, &types.ReadPostRequest{
		PostID:       fs.Arg(0),
		CommentLimit: *commentCount,
	})
	if err != nil {
		return err
	}

	if a.useJSON {
		out := struct {
			postJSON
			Comments []commentJSON `json:"comments"`
		}{}
		if result.Post != nil {
			out.postJSON = postToJSON(result.Post)
		}
		out.Comments = make([]commentJSON, 0, len(result.Comments))
		for _, c := range result.Comments {
			out.Comments = append(out.Comments, commentToJSON(c))
		}
		printJSON(os.Stdout, out)
		return nil
	}

	if result.Post != nil {
		printPost(os.Stdout, result.Post)
	}
	if len(result.Comments) > 0 {
		fmt.Printf("─── Comments (%d) ───\n\n", len(result.Comments))
		for _, c := range result.Comments {
			printComment(os.Stdout, c)
		}
	}
	return nil
}

func (a *app) reply(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: bird reply <thing-id> <text>")
	}

	client, err := a.getClient()
	if err != nil {
		return err
	}

	result, err := client.Reply(ctx, &types.ReplyRequest{
		ThingID: args[0],
		Text:    args[1],
	})
	if err != nil {
		return err
	}

	if a.useJSON {
		out := map[string]string{"status": "ok", "thing_id": args[0]}
		if result.CommentID != "" {
			out["comment_id"] = result.CommentID
			out["url"] = publicBase + result.Permalink
		}
		printJSON(os.Stdout, out)
		return nil
	}

	if result.Permalink != "" {
		printSuccess(os.Stdout, "Reply posted: %s%s", publicBase, result.Permalink)
	} else {
		printSuccess(os.Stdout, "Reply posted")
	}
	return nil
}

func (a *app) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	body := fs.String("b", "", "post body text")
	linkURL := fs.String("u", "", "link URL (creates link post)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return errors.New("usage: bird post [flags] <subreddit> <title>")
	}

	client, err := a.getClient()
	if err != nil {
		return err
	}

	result, err := client.SubmitPost(ctx, &types.SubmitRequest{
		Subreddit: fs.Arg(0),
		Title:     fs.Arg(1),
		Body:      *body,
		URL:       *linkURL,
	})
	if err != nil {
		return err
	}

	if a.useJSON {
		printJSON(os.Stdout, map[string]string{
			"status":  "ok",
			"post_id": result.PostID,
			"url":     result.URL,
		})
		return nil
	}

	printSuccess(os.Stdout, "Post created: %s", result.URL)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	client, err := a.getClient()
	if err != nil {
		return err
	}

	account, err := client.Me(ctx)
	if err != nil {
		return err
	}

	if a.useJSON {
		printJSON(os.Stdout, map[string]any{
			"name":          account.Name,
			"id":            account.ID,
			"comment_karma": account.CommentKarma,
			"link_karma":    account.LinkKarma,
			"created":       formatUTC(account.CreatedUTC),
		})
		return nil
	}

	fmt.Printf("%s%s%s\n", ansiBold, account.Name, ansiReset)
	fmt.Printf("  comment karma: %d\n", account.CommentKarma)
	fmt.Printf("  link karma: %d\n", account.LinkKarma)
	return nil
}

func (a *app) check(ctx context.Context) error {
	client, err := a.getClient()
	if err != nil {
		return err
	}

	account, err := client.Me(ctx)
	if err == nil && account.Name == "" {
		err = errors.New("no user data returned, cookie may be invalid")
	}
	if err != nil {
		if a.useJSON {
			printJSON(os.Stdout, map[string]string{"status": "error", "error": errorMessage(err)})
			os.Exit(1)
		}
		return fmt.Errorf("auth failed: %w", err)
	}

	if a.useJSON {
		printJSON(os.Stdout, map[string]string{"status": "ok", "user": account.Name})
		return nil
	}
	printSuccess(os.Stdout, "Authenticated as u/%s", account.Name)
	return nil
}

func (a *app) about(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bird about <username>")
	}

	client, err := a.getClient()
	if err != nil {
		return err
	}

	account, err := client.UserAbout(ctx, args[0])
	if err != nil {
		return err
	}

	if a.useJSON {
		printJSON(os.Stdout, map[string]any{
			"name":          account.Name,
			"id":            account.ID,
			"comment_karma": account.CommentKarma,
			"link_karma":    account.LinkKarma,
			"is_mod":        account.IsMod,
			"created":       formatUTC(account.CreatedUTC),
		})
		return nil
	}

	fmt.Printf("%s%s%s\n", ansiBold, account.Name, ansiReset)
	fmt.Printf("  comment karma: %d\n", account.CommentKarma)
	fmt.Printf("  link karma: %d\n", account.LinkKarma)
	fmt.Printf("  moderator: %v\n", account.IsMod)
	return nil
}

func (a *app) mentions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mentions", flag.ExitOnError)
	count := fs.Int("n", 25, "number of mentions")
	fs.Parse(args)

	client, err := a.getClient()
	if err != nil {
		return err
	}

	comments, err := client.Mentions(ctx, &types.MentionsRequest{
		Pagination: types.Pagination{Limit: *count},
	})
	if err != nil {
		return err
	}

	if a.useJSON {
		out := make([]commentJSON, 0, len(comments))
		for _, c := range comments {
			out = append(out, commentToJSON(c))
		}
		printJSON(os.Stdout, out)
		return nil
	}

	fmt.Printf("Recent mentions (%d)\n", len(comments))
	printRule(os.Stdout)
	for _, c := range comments {
		printComment(os.Stdout, c)
	}
	return nil
}

// errorMessage adds actionable guidance to the errors a user can fix.
func errorMessage(err error) string {
	var authErr *pkgerrs.AuthExpiredError
	if errors.As(err, &authErr) {
		return fmt.Sprintf("%v\nCopy a fresh reddit_session cookie from your browser and set REDDIT_SESSION.", authErr)
	}
	var rateErr *pkgerrs.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Sprintf("%v\nWait a bit before retrying.", rateErr)
	}
	var apiErr *pkgerrs.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Reddit error: %v", apiErr)
	}
	return err.Error()
}

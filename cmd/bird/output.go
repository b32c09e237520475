package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/birdcli/bird/pkg/types"
)

// ANSI escape codes for text mode output.
const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
	ansiCyan  = "\033[36m"
	ansiBlue  = "\033[34m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiDim   = "\033[2m"
)

const publicBase = "https://reddit.com"

func formatUTC(ts float64) string {
	if ts == 0 {
		return "?"
	}
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04 UTC")
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func author(name string) string {
	if name == "" {
		return "[deleted]"
	}
	return name
}

// postJSON is the --json shape for a post, matching the text renderer's
// field set rather than the raw listing payload.
type postJSON struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	Created     string  `json:"created"`
	URL         string  `json:"url"`
	SelfText    string  `json:"selftext"`
	LinkURL     *string `json:"link_url"`
	Flair       *string `json:"flair"`
}

type commentJSON struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Score       int    `json:"score"`
	Created     string `json:"created"`
	Body        string `json:"body"`
	ParentID    string `json:"parent_id"`
	IsSubmitter bool   `json:"is_submitter"`
}

func postToJSON(p *types.Post) postJSON {
	var linkURL *string
	if !p.IsSelf && p.URL != "" {
		linkURL = &p.URL
	}
	return postJSON{
		ID:          p.ID,
		Subreddit:   p.Subreddit,
		Title:       p.Title,
		Author:      author(p.Author),
		Score:       p.Score,
		UpvoteRatio: p.UpvoteRatio,
		NumComments: p.NumComments,
		Created:     formatUTC(p.CreatedUTC),
		URL:         publicBase + p.Permalink,
		SelfText:    p.SelfText,
		LinkURL:     linkURL,
		Flair:       p.LinkFlairText,
	}
}

func commentToJSON(c *types.Comment) commentJSON {
	return commentJSON{
		ID:          c.ID,
		Author:      author(c.Author),
		Score:       c.Score,
		Created:     formatUTC(c.CreatedUTC),
		Body:        c.Body,
		ParentID:    c.ParentID,
		IsSubmitter: c.IsSubmitter,
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func printPost(w io.Writer, p *types.Post) {
	fmt.Fprintf(w, "%s%s%s\n", ansiBold, p.Title, ansiReset)
	fmt.Fprintf(w, "  r/%s | %s | %d pts | %d comments | %s\n",
		p.Subreddit, author(p.Author), p.Score, p.NumComments, formatUTC(p.CreatedUTC))
	if p.SelfText != "" {
		fmt.Fprintf(w, "  %s\n", truncate(p.SelfText, 500))
	}
	if !p.IsSelf && p.URL != "" {
		fmt.Fprintf(w, "  %s%s%s\n", ansiCyan, p.URL, ansiReset)
	}
	fmt.Fprintf(w, "  %s%s%s\n", ansiBlue, publicBase+p.Permalink, ansiReset)
	fmt.Fprintf(w, "  id: %s\n\n", p.ID)
}

func printComment(w io.Writer, c *types.Comment) {
	opTag := ""
	if c.IsSubmitter {
		opTag = " [OP]"
	}
	fmt.Fprintf(w, "  %s%s%s%s | %d pts | %s\n",
		ansiBold, author(c.Author), opTag, ansiReset, c.Score, formatUTC(c.CreatedUTC))
	for _, line := range strings.Split(truncate(c.Body, 400), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintf(w, "    id: %s\n\n", c.ID)
}

func printRule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", 60))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ansiGreen+format+ansiReset+"\n", args...)
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ansiRed+format+ansiReset+"\n", args...)
}

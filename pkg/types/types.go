package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RedditObject defines the common behavior for all Reddit API objects like
// Posts, Comments, and Accounts.
type RedditObject interface {
	GetID() string
	GetName() string
}

// ThingData holds the common fields for Reddit objects.
// It can be embedded into specific types like Post and Comment.
type ThingData struct {
	ID   string `json:"id"`   // ID (without prefix)
	Name string `json:"name"` // Full name (e.g., "t3_abc123")
}

// GetID returns the object's ID.
func (td ThingData) GetID() string {
	return td.ID
}

// GetName returns the object's full name.
func (td ThingData) GetName() string {
	return td.Name
}

// Thing is the base envelope for all Reddit API objects. It provides a common
// structure for different types of content like comments, links, and accounts.
type Thing struct {
	ThingData
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Votable is an embeddable struct for things that can be voted on.
type Votable struct {
	Ups   int `json:"ups"`
	Downs int `json:"downs"`
	// Likes indicates the user's vote: true for upvote, false for downvote, null for no vote.
	Likes *bool `json:"likes"`
}

// Created is an embeddable struct for things that have a creation time.
type Created struct {
	Created    float64 `json:"created"`
	CreatedUTC float64 `json:"created_utc"`
}

// Edited represents a field that can be a boolean or a timestamp.
// If IsEdited is true and Timestamp is 0, it was an old edit marked as `true`.
// If IsEdited is true and Timestamp is non-zero, it's a modern edit with a timestamp.
// If IsEdited is false, the item was not edited.
type Edited struct {
	IsEdited  bool
	Timestamp float64
}

// UnmarshalJSON implements json.Unmarshaler to handle mixed types for the "edited" field.
func (e *Edited) UnmarshalJSON(data []byte) error {
	s := string(data)
	// It can be a boolean `false`.
	if strings.ToLower(s) == "false" {
		e.IsEdited = false
		e.Timestamp = 0
		return nil
	}

	// It can be a boolean `true` for old edits.
	if strings.ToLower(s) == "true" {
		e.IsEdited = true
		e.Timestamp = 0
		return nil
	}

	// It could be null, which we treat as not edited.
	if strings.ToLower(s) == "null" {
		e.IsEdited = false
		e.Timestamp = 0
		return nil
	}

	// It can be a float timestamp.
	var timestamp float64
	if err := json.Unmarshal(data, &timestamp); err == nil {
		e.IsEdited = true
		e.Timestamp = timestamp
		return nil
	}

	return fmt.Errorf("unrecognized type for 'edited' field: %s", s)
}

// ListingData contains the data for a Listing, which is used for pagination.
type ListingData struct {
	BeforeFullname string   `json:"before"` // Reddit fullname for pagination (previous page)
	AfterFullname  string   `json:"after"`  // Reddit fullname for pagination (next page)
	Modhash        string   `json:"modhash"`
	Children       []*Thing `json:"children"` // Raw Things with kind+data, parsed by caller
}

// AccountData contains the data for a user Account.
type AccountData struct {
	ThingData
	Created
	CommentKarma     int    `json:"comment_karma"`
	HasMail          *bool  `json:"has_mail"`
	HasVerifiedEmail *bool  `json:"has_verified_email"`
	InboxCount       int    `json:"inbox_count,omitempty"`
	IsFriend         bool   `json:"is_friend"`
	IsGold           bool   `json:"is_gold"`
	IsMod            bool   `json:"is_mod"`
	LinkKarma        int    `json:"link_karma"`
	Modhash          string `json:"modhash,omitempty"`
	Over18           bool   `json:"over_18"`
}

// Post represents a Reddit post.
type Post struct {
	ThingData
	Votable
	Created
	Author          string  `json:"author"`
	Domain          string  `json:"domain"`
	IsSelf          bool    `json:"is_self"`
	LinkFlairText   *string `json:"link_flair_text"`
	Locked          bool    `json:"locked"`
	NumComments     int     `json:"num_comments"`
	Over18          bool    `json:"over_18"`
	Permalink       string  `json:"permalink"`
	Score           int     `json:"score"`
	SelfText        string  `json:"selftext"`
	Subreddit       string  `json:"subreddit"`
	SubredditID     string  `json:"subreddit_id"`
	Title           string  `json:"title"`
	UpvoteRatio     float64 `json:"upvote_ratio"`
	URL             string  `json:"url"`
	Edited          Edited  `json:"edited"` // Can be a boolean or a float64 timestamp
	Distinguished   *string `json:"distinguished"`
	Stickied        bool    `json:"stickied"`
}

// Comment represents a Reddit comment.
type Comment struct {
	ThingData
	Votable
	Created
	Author        string  `json:"author"`
	Body          string  `json:"body"`
	BodyHTML      string  `json:"body_html"`
	Edited        Edited  `json:"edited"` // Can be a boolean (for old comments) or a float64 timestamp
	IsSubmitter   bool    `json:"is_submitter"`
	LinkID        string  `json:"link_id"`
	LinkTitle     string  `json:"link_title,omitempty"`
	ParentID      string  `json:"parent_id"`
	Permalink     string  `json:"permalink"`
	Score         int     `json:"score"`
	ScoreHidden   bool    `json:"score_hidden"`
	Subreddit     string  `json:"subreddit"`
	Distinguished *string `json:"distinguished"`
}

// Pagination captures the shared pagination behaviour for Reddit listing endpoints.
// Reddit uses "fullnames" for pagination, which are strings like "t3_abc123" where
// "t3" indicates the type (link/post) and "abc123" is the item ID.
type Pagination struct {
	// Limit specifies the number of items to retrieve.
	// Reddit enforces a maximum of 100 items per request.
	// If 0 or not specified, Reddit's default limit (usually 25) is used.
	Limit int

	// After specifies the Reddit fullname after which to get items.
	// Cannot be used together with Before.
	After string

	// Before specifies the Reddit fullname before which to get items.
	// Cannot be used together with After.
	Before string
}

// SearchRequest describes a post search against a subreddit or all of Reddit.
type SearchRequest struct {
	// Query is the search text. Required.
	Query string

	// Subreddit restricts the search to one subreddit. Empty searches all of Reddit.
	Subreddit string

	// Sort is one of "relevance", "new", "hot", "top", "comments". Defaults to "new".
	Sort string

	// TimeFilter is one of "all", "day", "week", "month", "year". Defaults to "week".
	TimeFilter string

	Pagination
}

// SubredditRequest describes a request for a subreddit's post listing.
type SubredditRequest struct {
	// Subreddit is the target subreddit name without the "r/" prefix. Required.
	Subreddit string

	// Sort is one of "hot", "new", "top", "rising". Defaults to "hot".
	Sort string

	// TimeFilter applies when Sort is "top". Defaults to "week".
	TimeFilter string

	Pagination
}

// ReadPostRequest describes a request for a post and its top comments.
type ReadPostRequest struct {
	// PostID is the post identifier, with or without the "t3_" prefix. Required.
	PostID string

	// CommentLimit caps the number of top-level comments returned. Defaults to 20.
	CommentLimit int

	// CommentSort is the comment sort order. Defaults to "confidence".
	CommentSort string
}

// ReplyRequest describes a comment reply to a post or another comment.
type ReplyRequest struct {
	// ThingID is the fullname of the parent, e.g. "t3_abc123" for a post or
	// "t1_def456" for a comment. A bare ID is treated as a post ID. Required.
	ThingID string

	// Text is the markdown body of the reply. Required.
	Text string
}

// SubmitRequest describes a new post submission.
type SubmitRequest struct {
	// Subreddit is the target subreddit name without the "r/" prefix. Required.
	Subreddit string

	// Title is the post title. Required.
	Title string

	// Body is the self-text body. Ignored when URL is set.
	Body string

	// URL creates a link post instead of a self post when non-empty.
	URL string
}

// MentionsRequest describes a request for the authenticated user's mentions.
type MentionsRequest struct {
	Pagination
}

// PostsResponse represents a collection of posts with pagination info.
type PostsResponse struct {
	Posts          []*Post
	AfterFullname  string // Reddit fullname (e.g. "t3_abc123") of last item for next page
	BeforeFullname string // Reddit fullname (e.g. "t3_abc123") of first item for prev page
}

// PostWithComments represents a post together with its top-level comments.
type PostWithComments struct {
	Post     *Post
	Comments []*Comment
}

// ReplyResult describes a successfully created comment.
type ReplyResult struct {
	CommentID string
	Fullname  string
	Permalink string
}

// SubmitResult describes a successfully created post.
type SubmitResult struct {
	PostID string
	URL    string
}

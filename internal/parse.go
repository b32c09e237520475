package internal

import (
	"encoding/json"
	"fmt"

	"github.com/birdcli/bird/pkg/types"
)

// Parser handles parsing of the remote's JSON response envelopes.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseListing extracts a ListingData from a Thing of kind "Listing".
func (p *Parser) ParseListing(thing *types.Thing) (*types.ListingData, error) {
	if thing == nil {
		return nil, fmt.Errorf("thing is nil")
	}
	if thing.Kind != "Listing" {
		return nil, fmt.Errorf("expected Listing, got %s", thing.Kind)
	}

	var listing types.ListingData
	if err := json.Unmarshal(thing.Data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse Listing data: %w", err)
	}
	return &listing, nil
}

// ParsePost extracts a Post from a Thing of kind "t3".
func (p *Parser) ParsePost(thing *types.Thing) (*types.Post, error) {
	if thing == nil {
		return nil, fmt.Errorf("thing is nil")
	}
	if thing.Kind != "t3" {
		return nil, fmt.Errorf("expected t3, got %s", thing.Kind)
	}

	var post types.Post
	if err := json.Unmarshal(thing.Data, &post); err != nil {
		return nil, fmt.Errorf("failed to parse post data: %w", err)
	}
	return &post, nil
}

// ParseComment extracts a Comment from a Thing of kind "t1".
func (p *Parser) ParseComment(thing *types.Thing) (*types.Comment, error) {
	if thing == nil {
		return nil, fmt.Errorf("thing is nil")
	}
	if thing.Kind != "t1" {
		return nil, fmt.Errorf("expected t1, got %s", thing.Kind)
	}

	var comment types.Comment
	if err := json.Unmarshal(thing.Data, &comment); err != nil {
		return nil, fmt.Errorf("failed to parse comment data: %w", err)
	}
	return &comment, nil
}

// ParseAccount extracts an AccountData from a Thing of kind "t2", or from a
// bare account object without the kind envelope (as /api/me.json returns for
// cookie-authenticated sessions).
func (p *Parser) ParseAccount(data []byte) (*types.AccountData, error) {
	var thing types.Thing
	if err := json.Unmarshal(data, &thing); err == nil && len(thing.Data) > 0 {
		var account types.AccountData
		if err := json.Unmarshal(thing.Data, &account); err != nil {
			return nil, fmt.Errorf("failed to parse account data: %w", err)
		}
		return &account, nil
	}

	var account types.AccountData
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to parse account data: %w", err)
	}
	return &account, nil
}

// ExtractPosts decodes a listing body into its posts plus pagination
// fullnames. Non-post children are skipped.
func (p *Parser) ExtractPosts(body []byte) (*types.PostsResponse, error) {
	var thing types.Thing
	if err := json.Unmarshal(body, &thing); err != nil {
		return nil, fmt.Errorf("failed to parse listing envelope: %w", err)
	}

	listing, err := p.ParseListing(&thing)
	if err != nil {
		return nil, err
	}

	posts := make([]*types.Post, 0, len(listing.Children))
	for _, child := range listing.Children {
		if child.Kind != "t3" {
			continue
		}
		post, err := p.ParsePost(child)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return &types.PostsResponse{
		Posts:          posts,
		AfterFullname:  listing.AfterFullname,
		BeforeFullname: listing.BeforeFullname,
	}, nil
}

// ExtractComments decodes a listing body into its top-level comments.
// "more" markers and other kinds are skipped.
func (p *Parser) ExtractComments(body []byte) ([]*types.Comment, error) {
	var thing types.Thing
	if err := json.Unmarshal(body, &thing); err != nil {
		return nil, fmt.Errorf("failed to parse listing envelope: %w", err)
	}

	listing, err := p.ParseListing(&thing)
	if err != nil {
		return nil, err
	}

	comments := make([]*types.Comment, 0, len(listing.Children))
	for _, child := range listing.Children {
		if child.Kind != "t1" {
			continue
		}
		comment, err := p.ParseComment(child)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// ExtractPostWithComments decodes the two-listing array the comments endpoint
// returns: [post listing, comment listing].
func (p *Parser) ExtractPostWithComments(body []byte) (*types.PostWithComments, error) {
	var listings []json.RawMessage
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("failed to parse comments response: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("comments response is empty")
	}

	result := &types.PostWithComments{}

	posts, err := p.ExtractPosts(listings[0])
	if err != nil {
		return nil, err
	}
	if len(posts.Posts) > 0 {
		result.Post = posts.Posts[0]
	}

	if len(listings) >= 2 {
		comments, err := p.ExtractComments(listings[1])
		if err != nil {
			return nil, err
		}
		result.Comments = comments
	}

	return result, nil
}

// apiEnvelope is the {"json": {"errors": [...], "data": {...}}} wrapper the
// write endpoints return.
type apiEnvelope struct {
	JSON struct {
		Errors [][]json.RawMessage `json:"errors"`
		Data   json.RawMessage     `json:"data"`
	} `json:"json"`
}

// APIResult is the decoded payload of a write endpoint response.
type APIResult struct {
	// Errors holds the remote's error tuples, each a [code, message, field]
	// triple rendered as strings.
	Errors [][]string
	// Data is the raw data object for further decoding by the caller.
	Data json.RawMessage
}

// ParseAPIResponse decodes a write endpoint's json envelope.
func (p *Parser) ParseAPIResponse(body []byte) (*APIResult, error) {
	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse api response: %w", err)
	}

	result := &APIResult{Data: envelope.JSON.Data}
	for _, tuple := range envelope.JSON.Errors {
		parts := make([]string, 0, len(tuple))
		for _, raw := range tuple {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				s = string(raw)
			}
			parts = append(parts, s)
		}
		result.Errors = append(result.Errors, parts)
	}
	return result, nil
}

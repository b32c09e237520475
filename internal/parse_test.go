package internal

import (
	"encoding/json"
	"testing"

	"github.com/birdcli/bird/pkg/types"
)

const listingBody = `{
	"kind": "Listing",
	"data": {
		"after": "t3_second",
		"before": null,
		"children": [
			{"kind": "t3", "data": {"id": "first", "title": "First post", "subreddit": "golang", "score": 42, "num_comments": 7, "is_self": true, "selftext": "body text", "permalink": "/r/golang/comments/first/first_post/"}},
			{"kind": "t3", "data": {"id": "second", "title": "Second post", "subreddit": "golang", "score": 1, "url": "https://example.com", "permalink": "/r/golang/comments/second/second_post/"}}
		]
	}
}`

func TestExtractPosts(t *testing.T) {
	parser := NewParser()

	result, err := parser.ExtractPosts([]byte(listingBody))
	if err != nil {
		t.Fatalf("ExtractPosts() failed: %v", err)
	}

	if len(result.Posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(result.Posts))
	}
	if result.Posts[0].Title != "First post" {
		t.Errorf("Posts[0].Title = %q", result.Posts[0].Title)
	}
	if result.Posts[0].Score != 42 {
		t.Errorf("Posts[0].Score = %d, want 42", result.Posts[0].Score)
	}
	if result.AfterFullname != "t3_second" {
		t.Errorf("AfterFullname = %q, want %q", result.AfterFullname, "t3_second")
	}
}

func TestExtractPostsSkipsNonPostChildren(t *testing.T) {
	parser := NewParser()

	body := `{"kind": "Listing", "data": {"children": [
		{"kind": "t3", "data": {"id": "a", "title": "Post"}},
		{"kind": "t5", "data": {"display_name": "golang"}}
	]}}`

	result, err := parser.ExtractPosts([]byte(body))
	if err != nil {
		t.Fatalf("ExtractPosts() failed: %v", err)
	}
	if len(result.Posts) != 1 {
		t.Errorf("got %d posts, want 1", len(result.Posts))
	}
}

func TestExtractPostsRejectsNonListing(t *testing.T) {
	parser := NewParser()

	if _, err := parser.ExtractPosts([]byte(`{"kind": "t3", "data": {}}`)); err == nil {
		t.Error("ExtractPosts() accepted a non-Listing envelope")
	}
	if _, err := parser.ExtractPosts([]byte(`not json`)); err == nil {
		t.Error("ExtractPosts() accepted malformed JSON")
	}
}

func TestExtractCommentsSkipsMoreMarkers(t *testing.T) {
	parser := NewParser()

	body := `{"kind": "Listing", "data": {"children": [
		{"kind": "t1", "data": {"id": "c1", "author": "alice", "body": "nice", "score": 3, "is_submitter": true}},
		{"kind": "t1", "data": {"id": "c2", "author": "bob", "body": "agreed", "score": 1}},
		{"kind": "more", "data": {"count": 17, "children": ["c3", "c4"]}}
	]}}`

	comments, err := parser.ExtractComments([]byte(body))
	if err != nil {
		t.Fatalf("ExtractComments() failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].Author != "alice" || !comments[0].IsSubmitter {
		t.Errorf("comments[0] = %+v", comments[0])
	}
}

func TestExtractPostWithComments(t *testing.T) {
	parser := NewParser()

	body := `[
		{"kind": "Listing", "data": {"children": [
			{"kind": "t3", "data": {"id": "abc", "title": "The post", "num_comments": 2}}
		]}},
		{"kind": "Listing", "data": {"children": [
			{"kind": "t1", "data": {"id": "c1", "body": "top comment"}},
			{"kind": "t1", "data": {"id": "c2", "body": "another"}}
		]}}
	]`

	result, err := parser.ExtractPostWithComments([]byte(body))
	if err != nil {
		t.Fatalf("ExtractPostWithComments() failed: %v", err)
	}
	if result.Post == nil || result.Post.Title != "The post" {
		t.Fatalf("Post = %+v, want title %q", result.Post, "The post")
	}
	if len(result.Comments) != 2 {
		t.Errorf("got %d comments, want 2", len(result.Comments))
	}
}

func TestExtractPostWithCommentsEdgeCases(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{name: "empty array", body: `[]`, expectError: true},
		{name: "not an array", body: `{"kind": "Listing"}`, expectError: true},
		{
			name: "post only, no comment listing",
			body: `[{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "x"}}]}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ExtractPostWithComments([]byte(tt.body))
			if tt.expectError && err == nil {
				t.Error("expected error, got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseAccount(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		body     string
		wantName string
		wantHash string
	}{
		{
			name:     "kind envelope",
			body:     `{"kind": "t2", "data": {"name": "gopher", "modhash": "abc123", "link_karma": 10}}`,
			wantName: "gopher",
			wantHash: "abc123",
		},
		{
			name:     "bare object",
			body:     `{"name": "gopher", "modhash": "abc123", "comment_karma": 5}`,
			wantName: "gopher",
			wantHash: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := parser.ParseAccount([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseAccount() failed: %v", err)
			}
			if account.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", account.Name, tt.wantName)
			}
			if account.Modhash != tt.wantHash {
				t.Errorf("Modhash = %q, want %q", account.Modhash, tt.wantHash)
			}
		})
	}
}

func TestParseAPIResponse(t *testing.T) {
	parser := NewParser()

	t.Run("success with data", func(t *testing.T) {
		body := `{"json": {"errors": [], "data": {"things": [{"kind": "t1", "data": {"id": "newc", "name": "t1_newc", "permalink": "/r/golang/comments/x/y/newc/"}}]}}}`

		result, err := parser.ParseAPIResponse([]byte(body))
		if err != nil {
			t.Fatalf("ParseAPIResponse() failed: %v", err)
		}
		if len(result.Errors) != 0 {
			t.Errorf("Errors = %v, want none", result.Errors)
		}
		if len(result.Data) == 0 {
			t.Error("Data is empty, want raw payload")
		}
	})

	t.Run("error tuples", func(t *testing.T) {
		body := `{"json": {"errors": [["RATELIMIT", "you are doing that too much", "ratelimit"]]}}`

		result, err := parser.ParseAPIResponse([]byte(body))
		if err != nil {
			t.Fatalf("ParseAPIResponse() failed: %v", err)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("got %d error tuples, want 1", len(result.Errors))
		}
		want := []string{"RATELIMIT", "you are doing that too much", "ratelimit"}
		for i, part := range want {
			if result.Errors[0][i] != part {
				t.Errorf("Errors[0][%d] = %q, want %q", i, result.Errors[0][i], part)
			}
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := parser.ParseAPIResponse([]byte(`<html>`)); err == nil {
			t.Error("ParseAPIResponse() accepted non-JSON body")
		}
	})
}

func TestParsePostRejectsWrongKind(t *testing.T) {
	parser := NewParser()

	thing := &types.Thing{Kind: "t1", Data: json.RawMessage(`{}`)}
	if _, err := parser.ParsePost(thing); err == nil {
		t.Error("ParsePost() accepted a t1 thing")
	}
	if _, err := parser.ParsePost(nil); err == nil {
		t.Error("ParsePost() accepted nil")
	}
}

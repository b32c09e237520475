package types

import (
	"encoding/json"
	"testing"
)

func TestEditedUnmarshal(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantEdited    bool
		wantTimestamp float64
		expectError   bool
	}{
		{name: "false", input: `false`, wantEdited: false},
		{name: "true legacy edit", input: `true`, wantEdited: true},
		{name: "null", input: `null`, wantEdited: false},
		{name: "timestamp", input: `1700000000.0`, wantEdited: true, wantTimestamp: 1700000000.0},
		{name: "garbage", input: `"soon"`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Edited
			err := json.Unmarshal([]byte(tt.input), &e)
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tt.input, err)
			}
			if e.IsEdited != tt.wantEdited || e.Timestamp != tt.wantTimestamp {
				t.Errorf("Edited = %+v, want edited=%v timestamp=%v", e, tt.wantEdited, tt.wantTimestamp)
			}
		})
	}
}

func TestPostUnmarshalMixedEditedField(t *testing.T) {
	body := `{
		"id": "abc",
		"title": "Test",
		"score": 10,
		"edited": 1700000000.0,
		"link_flair_text": null
	}`

	var post Post
	if err := json.Unmarshal([]byte(body), &post); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !post.Edited.IsEdited {
		t.Error("Edited.IsEdited = false, want true")
	}
	if post.LinkFlairText != nil {
		t.Errorf("LinkFlairText = %v, want nil", post.LinkFlairText)
	}
}

func TestThingCarriesRawData(t *testing.T) {
	body := `{"kind": "t3", "data": {"id": "abc", "title": "Hello"}}`

	var thing Thing
	if err := json.Unmarshal([]byte(body), &thing); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if thing.Kind != "t3" {
		t.Errorf("Kind = %q, want t3", thing.Kind)
	}

	var post Post
	if err := json.Unmarshal(thing.Data, &post); err != nil {
		t.Fatalf("Unmarshal data failed: %v", err)
	}
	if post.Title != "Hello" {
		t.Errorf("Title = %q, want Hello", post.Title)
	}
}

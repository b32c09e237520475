package validation

import "testing"

func TestIsValidBase36(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc123", true},
		{"1h4xyz", true},
		{"", false},
		{"ABC", false},
		{"has space", false},
		{"t3_abc", false},
	}

	for _, tt := range tests {
		if got := IsValidBase36(tt.input); got != tt.want {
			t.Errorf("IsValidBase36(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsValidSubreddit(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"golang", true},
		{"Ask_Reddit", true},
		{"abc", true},
		{"ab", false},
		{"", false},
		{"has space", false},
		{"r/golang", false},
		{"waytoolongsubredditname1", false},
	}

	for _, tt := range tests {
		if got := IsValidSubreddit(tt.input); got != tt.want {
			t.Errorf("IsValidSubreddit(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"spez", true},
		{"user-name_1", true},
		{"ab", false},
		{"u/spez", false},
		{"twentyonecharacters12", false},
	}

	for _, tt := range tests {
		if got := IsValidUsername(tt.input); got != tt.want {
			t.Errorf("IsValidUsername(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsValidFullname(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"t1_abc123", true},
		{"t3_1h4xyz", true},
		{"t6_a", true},
		{"t7_abc", false},
		{"abc123", false},
		{"t3_", false},
		{"t3_ABC", false},
	}

	for _, tt := range tests {
		if got := IsValidFullname(tt.input); got != tt.want {
			t.Errorf("IsValidFullname(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeFullname(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc123", "t3_abc123"},
		{"t3_abc123", "t3_abc123"},
		{"t1_def456", "t1_def456"},
	}

	for _, tt := range tests {
		if got := NormalizeFullname(tt.input); got != tt.want {
			t.Errorf("NormalizeFullname(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStripFullnamePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"t3_abc123", "abc123"},
		{"t1_def", "def"},
		{"abc123", "abc123"},
		{"under_score_late", "under_score_late"},
	}

	for _, tt := range tests {
		if got := StripFullnamePrefix(tt.input); got != tt.want {
			t.Errorf("StripFullnamePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

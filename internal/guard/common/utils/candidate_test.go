package utils

import "testing"

func TestCanonicalCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/Path", "https://example.com/path"},
		{"  Linewize.com  ", "linewize.com"},
		{"", ""},
		{"   ", ""},
		{"chrome-extension://ABC", "chrome-extension://abc"},
	}
	for _, tt := range tests {
		if got := CanonicalCandidate(tt.in); got != tt.want {
			t.Errorf("CanonicalCandidate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsMalformed(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{" \t ", true},
		{"https://example.com", false},
		{"ext-toolbar", false},
		{"not a url at all", false},
		{"http://exa\x00mple.com", false},
		{"line\nbreak", false},
		{"\n\r\t", true},
		{"del\x7f", false},
		{string([]byte{0xff, 0xfe, 'a'}), false},
		{"https://例え.jp/", false},
	}
	for _, tt := range tests {
		if got := IsMalformed(tt.in); got != tt.want {
			t.Errorf("IsMalformed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

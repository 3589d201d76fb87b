package llmcoord

import "testing"

func TestTitleCaseFallback(t *testing.T) {
	cases := []struct{ in, want string }{
		{"discussing the quarterly budget review", "The Quarterly Budget Review"},
		{"discussion on new hiring plans", "New Hiring Plans"},
		{"a plan for the future", "A Plan for the Future"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := TitleCaseFallback(tc.in); got != tc.want {
			t.Errorf("TitleCaseFallback(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

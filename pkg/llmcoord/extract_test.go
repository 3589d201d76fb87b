package llmcoord

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"fenced json", "here you go:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"fenced js", "```js\n{\"a\":1}\n```", `{"a":1}`},
		{"unfenced block", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"trailing fence only", "{\"a\":1}\n```", `{"a":1}`},
		{"raw", `{"a":1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"category": "IDEAS"}`,
			want: `{"category": "IDEAS"}`,
		},
		{
			name: "code fence",
			in:   "```json\n{\"category\": \"IDEAS\"}\n```",
			want: `{"category": "IDEAS"}`,
		},
		{
			name: "leading prose",
			in:   `Sure! Here is the classification: {"category": "ADMIN"} Hope that helps.`,
			want: `{"category": "ADMIN"}`,
		},
		{
			name: "nested object",
			in:   `{"fields": {"title": "x"}, "n": 1} trailing`,
			want: `{"fields": {"title": "x"}, "n": 1}`,
		},
		{
			name: "braces inside strings",
			in:   `{"title": "use {curly} braces", "note": "a \"quoted\" thing"} tail`,
			want: `{"title": "use {curly} braces", "note": "a \"quoted\" thing"}`,
		},
		{
			name: "no object at all",
			in:   "I cannot classify that.",
			want: "I cannot classify that.",
		},
		{
			name: "unbalanced object returned as-is",
			in:   `{"category": "IDEAS"`,
			want: `{"category": "IDEAS"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tp := New()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "line breaks kept",
			input:    "first line\nsecond line",
			contains: []string{"first line<br>", "second line"},
		},
		{
			name:     "emphasis",
			input:    "some *stress* and ~~gone~~",
			contains: []string{"<em>stress</em>", "<del>gone</del>"},
		},
		{
			name:     "raw html escaped",
			input:    "<script>alert(1)</script><b>bold</b>",
			contains: []string{"&lt;b&gt;bold&lt;/b&gt;"},
			excludes: []string{"<script>", "<b>"},
		},
		{
			name:     "javascript links dropped",
			input:    "[click](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "links get nofollow",
			input:    "see https://example.com",
			contains: []string{`href="https://example.com"`, `rel="nofollow`},
		},
		{
			name:     "code block",
			input:    "```\nfmt.Println(1)\n```",
			contains: []string{"<pre><code>fmt.Println(1)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(tp.Render(tt.input))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	tp := New()
	assert.Equal(t, tp.Render("short"), tp.Excerpt("short", 100))

	got := string(tp.Excerpt("one two three four", 9))
	assert.Contains(t, got, "one two…")
	assert.NotContains(t, got, "three")
}

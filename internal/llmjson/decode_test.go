package llmjson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	IsDuplicate  bool `json:"is_duplicate"`
	MatchedIndex *int `json:"matched_index"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain", `{"is_duplicate": true, "matched_index": 2}`},
		{"json fence", "```json\n{\"is_duplicate\": true, \"matched_index\": 2}\n```"},
		{"bare fence", "```\n{\"is_duplicate\": true, \"matched_index\": 2}\n```"},
		{"surrounding prose", "Sure! Here you go: {\"is_duplicate\": true, \"matched_index\": 2} Hope that helps."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v verdict
			require.NoError(t, Decode(tt.content, &v))
			assert.True(t, v.IsDuplicate)
			require.NotNil(t, v.MatchedIndex)
			assert.Equal(t, 2, *v.MatchedIndex)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	var v verdict
	assert.ErrorIs(t, Decode("   ", &v), ErrEmpty)

	err := Decode("I could not decide.", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload snippet")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```JSON\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1}  `))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "<empty>", Snippet(" \n\t"))
	assert.Equal(t, "a b c", Snippet("a\n b\t\tc"))

	long := Snippet(strings.Repeat("x", 500))
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Len(t, []rune(long), 163)
}

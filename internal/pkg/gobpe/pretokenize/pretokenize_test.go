package pretokenize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexSplit(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		input   string
		want    []string
	}{
		{"gpt2 words", GPT2Pattern, "Hello world", []string{"Hello", " world"}},
		{"gpt4 words", GPT4Pattern, "Hello world", []string{"Hello", " world"}},
		{"gpt2 contraction", GPT2Pattern, "I'm 12345", []string{"I", "'m", " 12345"}},
		{"gpt4 contraction and digits", GPT4Pattern, "I'm 12345", []string{"I", "'m", " ", "123", "45"}},
		{"gpt2 trailing space stays with next word", GPT2Pattern, "hello  world", []string{"hello", " ", " world"}},
		{"gpt2 final whitespace", GPT2Pattern, "end   ", []string{"end", "   "}},
		{"gpt4 punctuation keeps newline", GPT4Pattern, "hello!!!\nworld", []string{"hello", "!!!\n", "world"}},
		{"gpt4 contraction suffixes", GPT4Pattern, "we'll they've", []string{"we", "'ll", " they", "'ve"}},
		{"gpt4 leading symbol joins letters", GPT4Pattern, "(word", []string{"(word"}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			re, err := NewRegex(tt.pattern)
			require.NoError(t, err)
			got, err := re.Split(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCoversInput(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"plain",
		"Über naïve café — 東京 は 晴れ です 🙂🙂",
		"\ttabs\tand  spaces \r\n\r\n  end  ",
		"numbers 1234567 and 3.14159",
		"bad utf-8 \xff\xfe here \xc3",
	}

	for _, pattern := range []string{GPT2Pattern, GPT4Pattern} {
		re, err := NewRegex(pattern)
		require.NoError(t, err)
		for _, in := range inputs {
			chunks, err := re.Split(in)
			require.NoError(t, err)
			assert.Equal(t, in, strings.Join(chunks, ""))
			for _, c := range chunks {
				assert.NotEmpty(t, c)
			}
		}
	}
}

func TestSplitKeepsUnmatchedText(t *testing.T) {
	re, err := NewRegex(`\d+`)
	require.NoError(t, err)
	got, err := re.Split("ab12cd3")
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "12", "cd", "3"}, got)
}

func TestIdentity(t *testing.T) {
	got, err := Identity{}.Split("a b, c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a b, c"}, got)

	got, err = Identity{}.Split("")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, Identity{}.Pattern())
}

func TestFromPattern(t *testing.T) {
	s, err := FromPattern("")
	require.NoError(t, err)
	assert.Equal(t, Identity{}, s)

	s, err = FromPattern(GPT2Pattern)
	require.NoError(t, err)
	assert.Equal(t, GPT2Pattern, s.Pattern())

	s, err = FromPattern(possessiveGPT4Pattern)
	require.NoError(t, err)
	assert.Equal(t, GPT4Pattern, s.Pattern())

	_, err = FromPattern("(unclosed")
	require.Error(t, err)
}

func TestNamed(t *testing.T) {
	p, err := Named("gpt2")
	require.NoError(t, err)
	assert.Equal(t, GPT2Pattern, p)

	p, err = Named("gpt4")
	require.NoError(t, err)
	assert.Equal(t, GPT4Pattern, p)

	_, err = Named("gpt5")
	require.Error(t, err)
}

package pretokenize

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Legacy (GPT-2) and current (GPT-4) split patterns. regexp2 has no possessive
// quantifiers, so the current pattern spells them as atomic groups.
const (
	GPT2Pattern = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`
	GPT4Pattern = `'(?:[sdmt]|ll|ve|re)|(?>[^\r\n\p{L}\p{N}]?)\p{L}+|\p{N}{1,3}| ?(?>[^\s\p{L}\p{N}]+)[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`
)

// possessiveGPT4Pattern is GPT4Pattern as written for PCRE-style engines. Model
// files carrying it are read as GPT4Pattern.
const possessiveGPT4Pattern = `'(?:[sdmt]|ll|ve|re)|[^\r\n\p{L}\p{N}]?+\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]++[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`

var named = map[string]string{
	"gpt2": GPT2Pattern,
	"gpt4": GPT4Pattern,
}

type Splitter interface {
	Pattern() string
	Split(text string) ([]string, error)
}

// Named returns the split pattern registered under name.
func Named(name string) (string, error) {
	p, ok := named[name]
	if !ok {
		return "", fmt.Errorf("unknown split pattern %q (want gpt2 or gpt4)", name)
	}
	return p, nil
}

// FromPattern returns the splitter a persisted pattern string describes. The
// empty pattern means no splitting.
func FromPattern(pattern string) (Splitter, error) {
	if pattern == "" {
		return Identity{}, nil
	}
	if pattern == possessiveGPT4Pattern {
		pattern = GPT4Pattern
	}
	return NewRegex(pattern)
}

// Identity treats the whole input as one chunk.
type Identity struct{}

func (Identity) Pattern() string { return "" }

func (Identity) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

type Regex struct {
	pattern string
	re      *regexp2.Regexp
}

func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile split pattern: %w", err)
	}
	return &Regex{pattern: pattern, re: re}, nil
}

func (r *Regex) Pattern() string {
	return r.pattern
}

// Split returns the matches of the pattern in order. Text the pattern skips
// over is kept as its own chunk, so the chunks always concatenate back to
// text byte for byte.
func (r *Regex) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	// regexp2 reports rune positions; offsets maps them back to bytes. Ranging
	// over a string and converting it to []rune agree on invalid bytes, which
	// both count as one rune each.
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	runes := []rune(text)

	var chunks []string
	var offset int
	m, err := r.re.FindRunesMatch(runes)
	for ; m != nil; m, err = r.re.FindNextMatch(m) {
		if m.Index > offset {
			chunks = append(chunks, text[offsets[offset]:offsets[m.Index]])
		}
		if m.Length > 0 {
			chunks = append(chunks, text[offsets[m.Index]:offsets[m.Index+m.Length]])
		}
		offset = m.Index + m.Length
	}
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	if offset < len(runes) {
		chunks = append(chunks, text[offsets[offset]:])
	}
	return chunks, nil
}

package bpe

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// EncodeOrdinary encodes text ignoring special tokens.
func (t *Tokenizer) EncodeOrdinary(text string) ([]int, error) {
	chunks, err := t.splitter.Split(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	ids := make([]int, 0, len(text))
	for _, chunk := range chunks {
		ids = append(ids, t.encodeChunk(chunk)...)
	}
	return ids, nil
}

// encodeChunk repeatedly merges the present pair with the lowest rank until no
// present pair has a rule.
func (t *Tokenizer) encodeChunk(chunk string) []int {
	if t.cache != nil {
		if ids, ok := t.cache.Get(chunk); ok {
			return ids
		}
	}

	ids := bytesToIDs([]byte(chunk))
	for len(ids) >= 2 {
		best, bestID := Pair{}, -1
		for i := 0; i+1 < len(ids); i++ {
			p := Pair{ids[i], ids[i+1]}
			if id, ok := t.rank(p); ok && (bestID < 0 || id < bestID) {
				best, bestID = p, id
			}
		}
		if bestID < 0 {
			break
		}
		ids = ApplyMerge(ids, best, bestID)
	}

	if t.cache != nil {
		t.cache.Add(chunk, ids)
	}
	return ids
}

// Encode encodes text, emitting reserved ids for the special tokens the policy
// allows.
func (t *Tokenizer) Encode(text string, policy SpecialPolicy) ([]int, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: nil special token policy", ErrInvalidArgument)
	}

	allowed, err := policy.allowed(text, t.specials)
	if err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return t.EncodeOrdinary(text)
	}

	var ids []int
	for _, frag := range splitSpecialTokens(text, allowed) {
		if frag.special {
			ids = append(ids, frag.id)
			continue
		}

		part, err := t.EncodeOrdinary(frag.value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, part...)
	}
	return ids, nil
}

// fragment is a span of input that is either a special token or ordinary text.
type fragment struct {
	value   string
	id      int
	special bool
}

// splitSpecialTokens cuts s around special tokens, scanning left to right.
// The earliest occurrence wins; among tokens starting at the same offset the
// longest wins, then the lexically smallest.
func splitSpecialTokens(s string, specials map[string]int) []fragment {
	order := make([]string, 0, len(specials))
	for special := range specials {
		order = append(order, special)
	}
	slices.SortFunc(order, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	// next[i] is the offset of the next occurrence of order[i] at or after
	// pos, or -1 once it no longer occurs.
	next := make([]int, len(order))
	for i, special := range order {
		next[i] = strings.Index(s, special)
	}

	var fragments []fragment
	pos := 0
	for {
		best := -1
		for i, special := range order {
			if next[i] >= 0 && next[i] < pos {
				if idx := strings.Index(s[pos:], special); idx >= 0 {
					next[i] = pos + idx
				} else {
					next[i] = -1
				}
			}
			if next[i] >= 0 && (best < 0 || next[i] < next[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}

		start := next[best]
		if start > pos {
			fragments = append(fragments, fragment{value: s[pos:start]})
		}
		special := order[best]
		fragments = append(fragments, fragment{value: special, id: specials[special], special: true})
		pos = start + len(special)
	}
	if pos < len(s) {
		fragments = append(fragments, fragment{value: s[pos:]})
	}

	return fragments
}

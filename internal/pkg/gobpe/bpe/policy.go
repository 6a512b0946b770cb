package bpe

import (
	"fmt"
	"strings"
)

// SpecialPolicy selects which registered special tokens Encode recognizes in
// its input. It is one of AllowAll, AllowNone, AllowNoneRaise or AllowSubset.
type SpecialPolicy interface {
	allowed(text string, specials map[string]int) (map[string]int, error)
}

// AllowAll recognizes every registered special token.
type AllowAll struct{}

// AllowNone encodes special strings as ordinary text.
type AllowNone struct{}

// AllowNoneRaise fails if any registered special string occurs in the input.
type AllowNoneRaise struct{}

// AllowSubset recognizes only the listed special tokens; the rest are
// ordinary text. Listed strings that are not registered are ignored.
type AllowSubset map[string]struct{}

func AllowOnly(tokens ...string) AllowSubset {
	s := make(AllowSubset, len(tokens))
	for _, tok := range tokens {
		s[tok] = struct{}{}
	}
	return s
}

func (AllowAll) allowed(_ string, specials map[string]int) (map[string]int, error) {
	return specials, nil
}

func (AllowNone) allowed(string, map[string]int) (map[string]int, error) {
	return nil, nil
}

func (AllowNoneRaise) allowed(text string, specials map[string]int) (map[string]int, error) {
	for s := range specials {
		if strings.Contains(text, s) {
			return nil, fmt.Errorf("%w: %q found in input", ErrDisallowedSpecialToken, s)
		}
	}
	return nil, nil
}

func (a AllowSubset) allowed(_ string, specials map[string]int) (map[string]int, error) {
	out := make(map[string]int, len(a))
	for s := range a {
		if id, ok := specials[s]; ok {
			out[s] = id
		}
	}
	return out, nil
}

const (
	PolicyAll       = "all"
	PolicyNone      = "none"
	PolicyNoneRaise = "none_raise"
	PolicySubset    = "subset"
)

// ParsePolicy maps a policy name to a SpecialPolicy. subset is only consulted
// for PolicySubset.
func ParsePolicy(kind string, subset []string) (SpecialPolicy, error) {
	switch kind {
	case PolicyAll:
		return AllowAll{}, nil
	case PolicyNone:
		return AllowNone{}, nil
	case PolicyNoneRaise:
		return AllowNoneRaise{}, nil
	case PolicySubset:
		return AllowOnly(subset...), nil
	default:
		return nil, fmt.Errorf("%w: allowed special %q not understood (want all, none, none_raise or subset)", ErrInvalidArgument, kind)
	}
}

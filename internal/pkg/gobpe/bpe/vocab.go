package bpe

import (
	"fmt"
	"slices"
)

// NumBytes is the count of leaf ids; merge-derived ids start here.
const NumBytes = 256

type MergeRule struct {
	Pair Pair
	ID   int
}

type Vocabulary map[int][]byte

// BuildVocab derives the id -> bytes mapping from the merge rules and the
// special-token table. Rules must be in rank order so that both children of a
// rule are defined before it.
func BuildVocab(rules []MergeRule, specials map[string]int) (Vocabulary, error) {
	vocab := make(Vocabulary, NumBytes+len(rules)+len(specials))
	for i := range NumBytes {
		vocab[i] = []byte{byte(i)}
	}

	for _, r := range rules {
		a, ok := vocab[r.Pair.A]
		if !ok {
			return nil, fmt.Errorf("%w: rule %d references undefined id %d", ErrInvalidArgument, r.ID, r.Pair.A)
		}
		b, ok := vocab[r.Pair.B]
		if !ok {
			return nil, fmt.Errorf("%w: rule %d references undefined id %d", ErrInvalidArgument, r.ID, r.Pair.B)
		}
		if r.ID <= r.Pair.A || r.ID <= r.Pair.B {
			return nil, fmt.Errorf("%w: rule id %d must exceed both children (%d, %d)", ErrInvalidArgument, r.ID, r.Pair.A, r.Pair.B)
		}
		if _, dup := vocab[r.ID]; dup {
			return nil, fmt.Errorf("%w: id %d assigned twice", ErrInvalidArgument, r.ID)
		}
		vocab[r.ID] = slices.Concat(a, b)
	}

	for special, id := range specials {
		if _, clash := vocab[id]; clash || id < 0 {
			return nil, fmt.Errorf("%w: special token %q id %d collides with an existing id", ErrInvalidArgument, special, id)
		}
		vocab[id] = []byte(special)
	}

	return vocab, nil
}

// IDs returns the vocabulary ids in ascending order.
func (v Vocabulary) IDs() []int {
	ids := make([]int, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

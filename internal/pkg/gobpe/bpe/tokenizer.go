package bpe

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Splitter partitions text into chunks that merges never cross.
type Splitter interface {
	Pattern() string
	Split(text string) ([]string, error)
}

type Tokenizer struct {
	splitter Splitter
	rules    []MergeRule
	ranks    map[Pair]int
	specials map[string]int
	vocab    Vocabulary
	cache    *lru.Cache[string, []int]
}

type Option func(*Tokenizer) error

// WithCacheSize memoizes up to size encoded chunks. A size of zero disables
// the cache.
func WithCacheSize(size int) Option {
	return func(t *Tokenizer) error {
		if size < 0 {
			return fmt.Errorf("%w: cache size %d", ErrInvalidConfiguration, size)
		}
		if size == 0 {
			t.cache = nil
			return nil
		}
		cache, err := lru.New[string, []int](size)
		if err != nil {
			return fmt.Errorf("failed to create chunk cache: %w", err)
		}
		t.cache = cache
		return nil
	}
}

func New(splitter Splitter, opts ...Option) (*Tokenizer, error) {
	if splitter == nil {
		return nil, fmt.Errorf("%w: nil splitter", ErrInvalidArgument)
	}

	t := &Tokenizer{
		splitter: splitter,
		ranks:    make(map[Pair]int),
		specials: make(map[string]int),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	vocab, err := BuildVocab(nil, nil)
	if err != nil {
		return nil, err
	}
	t.vocab = vocab
	return t, nil
}

// Restore rebuilds a tokenizer from persisted state. Pairs are in rank order;
// the i-th pair defines id 256+i.
func Restore(splitter Splitter, pairs []Pair, specials map[string]int, opts ...Option) (*Tokenizer, error) {
	t, err := New(splitter, opts...)
	if err != nil {
		return nil, err
	}

	rules := make([]MergeRule, len(pairs))
	for i, p := range pairs {
		rules[i] = MergeRule{Pair: p, ID: NumBytes + i}
	}
	if err := validateSpecials(specials, NumBytes+len(rules)); err != nil {
		return nil, err
	}
	if err := t.commit(rules, maps.Clone(specials)); err != nil {
		return nil, err
	}
	return t, nil
}

// commit replaces rules and special tokens and rebuilds every derived table.
func (t *Tokenizer) commit(rules []MergeRule, specials map[string]int) error {
	if specials == nil {
		specials = make(map[string]int)
	}

	vocab, err := BuildVocab(rules, specials)
	if err != nil {
		return err
	}

	ranks := make(map[Pair]int, len(rules))
	for _, r := range rules {
		if _, dup := ranks[r.Pair]; dup {
			return fmt.Errorf("%w: pair (%d, %d) merged twice", ErrInvalidArgument, r.Pair.A, r.Pair.B)
		}
		ranks[r.Pair] = r.ID
	}

	t.rules = rules
	t.ranks = ranks
	t.specials = specials
	t.vocab = vocab
	if t.cache != nil {
		t.cache.Purge()
	}
	return nil
}

// RegisterSpecialTokens replaces the special-token table. Ids must lie above
// every merge-derived id.
func (t *Tokenizer) RegisterSpecialTokens(specials map[string]int) error {
	if err := validateSpecials(specials, NumBytes+len(t.rules)); err != nil {
		return err
	}
	return t.commit(t.rules, maps.Clone(specials))
}

func validateSpecials(specials map[string]int, minID int) error {
	seen := make(map[int]string, len(specials))
	for s, id := range specials {
		if s == "" || strings.ContainsAny(s, "\r\n") {
			return fmt.Errorf("%w: special token %q must be non-empty and on a single line", ErrInvalidArgument, s)
		}
		if id < minID {
			return fmt.Errorf("%w: special token %q id %d collides with byte or merge ids below %d", ErrInvalidArgument, s, id, minID)
		}
		if other, dup := seen[id]; dup {
			return fmt.Errorf("%w: special tokens %q and %q share id %d", ErrInvalidArgument, other, s, id)
		}
		seen[id] = s
	}
	return nil
}

func (t *Tokenizer) Pattern() string {
	return t.splitter.Pattern()
}

// Rules returns the merge rules in rank order.
func (t *Tokenizer) Rules() []MergeRule {
	return slices.Clone(t.rules)
}

func (t *Tokenizer) SpecialTokens() map[string]int {
	return maps.Clone(t.specials)
}

func (t *Tokenizer) Vocab() Vocabulary {
	vocab := make(Vocabulary, len(t.vocab))
	for id, b := range t.vocab {
		vocab[id] = slices.Clone(b)
	}
	return vocab
}

func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

// rank reports the id a pair merges into.
func (t *Tokenizer) rank(p Pair) (int, bool) {
	id, ok := t.ranks[p]
	return id, ok
}

func bytesToIDs(b []byte) []int {
	ids := make([]int, len(b))
	for i, c := range b {
		ids[i] = int(c)
	}
	return ids
}

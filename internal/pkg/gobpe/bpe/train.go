package bpe

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"gobpe/internal/pkg/gobpe/render"
)

// word is a distinct chunk and the number of times it occurs in the corpus.
type word struct {
	ids   []int
	count int
}

// collectWords folds repeated chunks together, keeping first-occurrence order
// so that pair first-seen order matches a scan over the raw chunk list.
func collectWords(chunks []string) []word {
	index := make(map[string]int, len(chunks))
	words := make([]word, 0, len(chunks))
	for _, c := range chunks {
		if i, ok := index[c]; ok {
			words[i].count++
			continue
		}
		index[c] = len(words)
		words = append(words, word{ids: bytesToIDs([]byte(c)), count: 1})
	}
	return words
}

// Train learns vocabSize-256 merge rules from text, replacing any rules
// learned or loaded before. On error the tokenizer is left unchanged.
func (t *Tokenizer) Train(text string, vocabSize int) error {
	if vocabSize < NumBytes {
		return fmt.Errorf("%w: vocab size %d is below %d", ErrInvalidConfiguration, vocabSize, NumBytes)
	}
	for s, id := range t.specials {
		if id < vocabSize {
			return fmt.Errorf("%w: special token %q id %d falls inside vocab size %d", ErrInvalidConfiguration, s, id, vocabSize)
		}
	}

	chunks, err := t.splitter.Split(text)
	if err != nil {
		return fmt.Errorf("failed to split training text: %w", err)
	}
	words := collectWords(chunks)

	numMerges := vocabSize - NumBytes
	rules := make([]MergeRule, 0, numMerges)
	vocab, err := BuildVocab(nil, nil)
	if err != nil {
		return err
	}

	for i := range numMerges {
		stats := NewStats()
		for _, w := range words {
			stats.AddN(w.ids, w.count)
		}

		pair, count, ok := stats.Max()
		if !ok {
			return fmt.Errorf("%w: learned %d of %d merges", ErrTrainingExhausted, i, numMerges)
		}

		id := NumBytes + i
		for j := range words {
			if len(words[j].ids) >= 2 {
				words[j].ids = ApplyMerge(words[j].ids, pair, id)
			}
		}

		rules = append(rules, MergeRule{Pair: pair, ID: id})
		vocab[id] = slices.Concat(vocab[pair.A], vocab[pair.B])

		if e := log.Debug(); e.Enabled() {
			e.Int("merge", i+1).
				Int("of", numMerges).
				Ints("pair", []int{pair.A, pair.B}).
				Int("id", id).
				Str("token", render.Token(vocab[id])).
				Int("count", count).
				Msg("Merged pair")
		}
	}

	if err := t.commit(rules, t.specials); err != nil {
		return err
	}

	log.Debug().
		Int("merges", len(rules)).
		Int("chunks", len(chunks)).
		Int("unique_chunks", len(words)).
		Msg("Training complete")
	return nil
}

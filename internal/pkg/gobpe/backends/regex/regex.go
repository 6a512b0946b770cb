// Package regex registers the chunk-splitting variants "gpt2" and "gpt4".
package regex

import (
	"gobpe/internal/pkg/gobpe/bpe"
	"gobpe/internal/pkg/gobpe/engine"
	"gobpe/internal/pkg/gobpe/pretokenize"
)

func init() {
	engine.Register("gpt2", NewTokenizer)
	engine.Register("gpt4", NewTokenizer)
}

// NewTokenizer builds a tokenizer that splits with the pattern named by
// cfg.Variant.
func NewTokenizer(cfg engine.Config) (*bpe.Tokenizer, error) {
	pattern, err := pretokenize.Named(cfg.Variant)
	if err != nil {
		return nil, err
	}
	splitter, err := pretokenize.NewRegex(pattern)
	if err != nil {
		return nil, err
	}
	return bpe.New(splitter, bpe.WithCacheSize(cfg.CacheSize))
}

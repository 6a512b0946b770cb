// Package basic registers the byte-oriented variant, which merges across the
// whole input with no pre-tokenization.
package basic

import (
	"gobpe/internal/pkg/gobpe/bpe"
	"gobpe/internal/pkg/gobpe/engine"
	"gobpe/internal/pkg/gobpe/pretokenize"
)

const Name = "basic"

func init() {
	engine.Register(Name, NewTokenizer)
}

func NewTokenizer(cfg engine.Config) (*bpe.Tokenizer, error) {
	return bpe.New(pretokenize.Identity{}, bpe.WithCacheSize(cfg.CacheSize))
}

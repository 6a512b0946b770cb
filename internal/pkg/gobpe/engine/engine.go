package engine

import "gobpe/internal/pkg/gobpe/bpe"

type Config struct {
	Variant   string
	CacheSize int
}

type Factory func(cfg Config) (*bpe.Tokenizer, error)

package bpe

import (
	"bytes"
	"fmt"

	"gobpe/internal/pkg/gobpe/render"
)

// DecodeBytes concatenates the byte expansion of every id. Special tokens are
// part of the vocabulary, so an id missing from it is unknown.
func (t *Tokenizer) DecodeBytes(ids []int) ([]byte, error) {
	var buf bytes.Buffer
	for _, id := range ids {
		b, ok := t.vocab[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownToken, id)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// Decode returns the text for ids. Byte sequences that are not valid UTF-8
// are replaced with U+FFFD.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	b, err := t.DecodeBytes(ids)
	if err != nil {
		return "", err
	}
	return render.Lossy(b), nil
}

package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"gobpe/internal/pkg/gobpe/bpe"
	"gobpe/internal/pkg/gobpe/pretokenize"
	"gobpe/internal/pkg/gobpe/render"
)

const (
	Version  = "bpe v1"
	ModelExt = ".model"
	VocabExt = ".vocab"
)

// Save writes prefix.model, which Load reads back, and prefix.vocab, a
// human-readable dump that cannot be loaded.
func Save(prefix string, tok *bpe.Tokenizer) error {
	if err := writeFile(prefix+ModelExt, func(w io.Writer) error { return WriteModel(w, tok) }); err != nil {
		return err
	}
	if err := writeFile(prefix+VocabExt, func(w io.Writer) error { return WriteVocab(w, tok) }); err != nil {
		return err
	}

	log.Debug().
		Str("model", prefix+ModelExt).
		Str("vocab", prefix+VocabExt).
		Int("merges", len(tok.Rules())).
		Msg("Tokenizer saved")
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return bw.Flush()
}

// WriteModel writes the format tag, the split pattern, the special tokens in
// id order and the merge pairs in rank order.
func WriteModel(w io.Writer, tok *bpe.Tokenizer) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", Version, tok.Pattern()); err != nil {
		return err
	}

	specials := tok.SpecialTokens()
	if _, err := fmt.Fprintf(w, "%d\n", len(specials)); err != nil {
		return err
	}
	for _, s := range sortedSpecials(specials) {
		if _, err := fmt.Fprintf(w, "%s %d\n", s, specials[s]); err != nil {
			return err
		}
	}

	for _, r := range tok.Rules() {
		if _, err := fmt.Fprintf(w, "%d %d\n", r.Pair.A, r.Pair.B); err != nil {
			return err
		}
	}
	return nil
}

func sortedSpecials(specials map[string]int) []string {
	names := make([]string, 0, len(specials))
	for s := range specials {
		names = append(names, s)
	}
	slices.SortFunc(names, func(a, b string) int {
		return specials[a] - specials[b]
	})
	return names
}

// WriteVocab renders every vocabulary entry in id order. Merge-derived entries
// show their two children.
func WriteVocab(w io.Writer, tok *bpe.Tokenizer) error {
	vocab := tok.Vocab()
	children := make(map[int]bpe.Pair)
	for _, r := range tok.Rules() {
		children[r.ID] = r.Pair
	}

	for _, id := range vocab.IDs() {
		s := render.Token(vocab[id])
		var err error
		if p, ok := children[id]; ok {
			_, err = fmt.Fprintf(w, "[%s][%s] -> [%s] %d\n", render.Token(vocab[p.A]), render.Token(vocab[p.B]), s, id)
		} else {
			_, err = fmt.Fprintf(w, "[%s] %d\n", s, id)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Load reads a .model file written by Save.
func Load(path string, opts ...bpe.Option) (*bpe.Tokenizer, error) {
	if !strings.HasSuffix(path, ModelExt) {
		return nil, fmt.Errorf("%w: model file %q must end in %s", bpe.ErrInvalidArgument, path, ModelExt)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	tok, err := ReadModel(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	log.Debug().
		Str("model", path).
		Int("merges", len(tok.Rules())).
		Int("specials", len(tok.SpecialTokens())).
		Msg("Tokenizer loaded")
	return tok, nil
}

var errTruncated = errors.New("truncated model file")

// ReadModel parses a model file and rebuilds the vocabulary from its rules.
// Merge ids are reassigned as 256, 257, ... in file order.
func ReadModel(r io.Reader, opts ...bpe.Option) (*bpe.Tokenizer, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read model file: %w", err)
			}
			return "", fmt.Errorf("%w: %w after line %d", bpe.ErrInvalidArgument, errTruncated, lineNo)
		}
		lineNo++
		return strings.TrimSuffix(scanner.Text(), "\r"), nil
	}

	version, err := next()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: got %q, want %q", bpe.ErrUnsupportedFormat, version, Version)
	}

	pattern, err := next()
	if err != nil {
		return nil, err
	}

	line, err := next()
	if err != nil {
		return nil, err
	}
	numSpecial, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || numSpecial < 0 {
		return nil, fmt.Errorf("%w: line %d: bad special token count %q", bpe.ErrInvalidArgument, lineNo, line)
	}

	specials := make(map[string]int, numSpecial)
	for range numSpecial {
		line, err := next()
		if err != nil {
			return nil, err
		}
		sep := strings.LastIndexByte(line, ' ')
		if sep <= 0 {
			return nil, fmt.Errorf("%w: line %d: bad special token %q", bpe.ErrInvalidArgument, lineNo, line)
		}
		id, err := strconv.Atoi(line[sep+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad special token id %q", bpe.ErrInvalidArgument, lineNo, line)
		}
		specials[line[:sep]] = id
	}

	var pairs []bpe.Pair
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: bad merge %q", bpe.ErrInvalidArgument, lineNo, scanner.Text())
		}
		a, errA := strconv.Atoi(fields[0])
		b, errB := strconv.Atoi(fields[1])
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("%w: line %d: bad merge %q", bpe.ErrInvalidArgument, lineNo, scanner.Text())
		}
		pairs = append(pairs, bpe.Pair{A: a, B: b})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	splitter, err := pretokenize.FromPattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bpe.ErrInvalidArgument, err)
	}

	return bpe.Restore(splitter, pairs, specials, opts...)
}

package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gobpe/internal/pkg/gobpe/bpe"
	"gobpe/internal/pkg/gobpe/config"
	"gobpe/internal/pkg/gobpe/engine"
	"gobpe/internal/pkg/gobpe/render"
	"gobpe/internal/pkg/gobpe/store"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Learn merge rules from a corpus and save the model",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}
	config.TrainFlags(cmd.Flags())
	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTrain(); err != nil {
		return err
	}

	log.Debug().
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Str("variant", cfg.Variant).
		Int("vocab_size", cfg.VocabSize).
		Msg("Configuration loaded")

	text, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	tok, err := engine.New(engine.Config{Variant: cfg.Variant, CacheSize: cfg.CacheSize})
	if err != nil {
		return err
	}

	log.Info().Str("variant", cfg.Variant).Int("bytes", len(text)).Msg("Training tokenizer...")
	startTime := time.Now()

	if err := tok.Train(string(text), cfg.VocabSize); err != nil {
		return err
	}

	specials, err := cfg.SpecialTokens()
	if err != nil {
		return err
	}
	if len(specials) > 0 {
		if err := tok.RegisterSpecialTokens(specials); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := store.Save(cfg.Output, tok); err != nil {
		return err
	}

	log.Info().
		Dur("elapsed", time.Since(startTime)).
		Int("merges", len(tok.Rules())).
		Str("model", cfg.Output+store.ModelExt).
		Msg("Tokenizer trained")
	return nil
}

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [text]",
		Short: "Encode text into token ids (use '-' to read from stdin)",
		RunE:  runEncode,
	}
	config.ModelFlags(cmd.Flags())
	config.EncodeFlags(cmd.Flags())
	return cmd
}

func runEncode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateModel(); err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	tok, err := store.Load(cfg.ModelPath, bpe.WithCacheSize(cfg.CacheSize))
	if err != nil {
		return err
	}

	files, _ := cmd.Flags().GetStringArray("file")
	var texts []string
	switch {
	case len(files) > 0:
		texts, err = readFiles(files)
		if err != nil {
			return err
		}
	case len(args) == 1 && args[0] == "-":
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		texts = []string{string(content)}
	case len(args) > 0:
		texts = []string{strings.Join(args, " ")}
	default:
		return fmt.Errorf("text is required (use -f, '-' or provide as argument)")
	}

	results := make([][]int, len(texts))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, text := range texts {
		g.Go(func() error {
			ids, err := tok.Encode(text, policy)
			if err != nil {
				return fmt.Errorf("failed to encode input %d: %w", i+1, err)
			}
			results[i] = ids
			log.Debug().Str("text", truncateText(text, 50)).Int("tokens", len(ids)).Msg("Encoded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ids := range results {
		if _, err := fmt.Fprintln(out, formatIDs(ids)); err != nil {
			return err
		}
	}
	return nil
}

func readFiles(paths []string) ([]string, error) {
	texts := make([]string, len(paths))
	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		texts[i] = string(content)
	}
	return texts, nil
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Decode token ids into text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDecode,
	}
	config.ModelFlags(cmd.Flags())
	return cmd
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateModel(); err != nil {
		return err
	}

	ids := make([]int, 0, len(args))
	for _, arg := range args {
		for _, field := range strings.Fields(arg) {
			id, err := strconv.Atoi(field)
			if err != nil {
				return fmt.Errorf("%w: token id %q is not a number", bpe.ErrInvalidArgument, field)
			}
			ids = append(ids, id)
		}
	}

	tok, err := store.Load(cfg.ModelPath)
	if err != nil {
		return err
	}
	text, err := tok.Decode(ids)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Summarize a saved model",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
	config.ModelFlags(cmd.Flags())
	cmd.Flags().Int("top", 10, "Number of merges to list")
	return cmd
}

func runInfo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateModel(); err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	tok, err := store.Load(cfg.ModelPath)
	if err != nil {
		return err
	}

	return writeInfo(cmd.OutOrStdout(), tok, top)
}

func writeInfo(w io.Writer, tok *bpe.Tokenizer, top int) error {
	rules := tok.Rules()
	specials := tok.SpecialTokens()

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Property", "Value"})
	summary.SetAutoWrapText(false)
	summary.Append([]string{"pattern", render.EscapeControl(tok.Pattern())})
	summary.Append([]string{"merges", strconv.Itoa(len(rules))})
	summary.Append([]string{"special tokens", strconv.Itoa(len(specials))})
	summary.Append([]string{"vocabulary", strconv.Itoa(tok.VocabSize())})
	summary.Render()

	if len(specials) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Special", "ID"})
		names := slices.Collect(maps.Keys(specials))
		slices.SortFunc(names, func(a, b string) int { return specials[a] - specials[b] })
		for _, s := range names {
			table.Append([]string{s, strconv.Itoa(specials[s])})
		}
		table.Render()
	}

	if top > len(rules) {
		top = len(rules)
	}
	if top > 0 {
		vocab := tok.Vocab()
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Left", "Right", "Token"})
		table.SetAutoWrapText(false)
		for _, r := range rules[:top] {
			table.Append([]string{
				strconv.Itoa(r.ID),
				render.Token(vocab[r.Pair.A]),
				render.Token(vocab[r.Pair.B]),
				render.Token(vocab[r.ID]),
			})
		}
		table.Render()
	}
	return nil
}

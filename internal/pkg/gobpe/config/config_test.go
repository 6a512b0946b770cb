package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobpe/internal/pkg/gobpe/bpe"

	_ "gobpe/internal/pkg/gobpe/backends/basic"
	_ "gobpe/internal/pkg/gobpe/backends/regex"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flagSet := pflag.NewFlagSet("gobpe", pflag.ContinueOnError)
	CommonFlags(flagSet)
	TrainFlags(flagSet)
	ModelFlags(flagSet)
	EncodeFlags(flagSet)
	require.NoError(t, flagSet.Parse(args))
	return flagSet
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, "gpt4", cfg.Variant)
	assert.Equal(t, 512, cfg.VocabSize)
	assert.Equal(t, filepath.Join("models", "gpt4"), cfg.Output)
	assert.Equal(t, bpe.PolicyNoneRaise, cfg.AllowedSpecial)
	assert.Equal(t, 4096, cfg.CacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgFile := filepath.Join(dir, "gobpe.cfg.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
variant = "basic"
vocab_size = 300
input = "corpus.txt"
log_level = "debug"
`), 0o644))

	cfg, err := Load(newFlagSet(t, "--config", cfgFile, "--vocab-size", "400", "--special", "<|end|>=400", "--special", "a=b=401"))
	require.NoError(t, err)
	assert.Equal(t, "basic", cfg.Variant)
	assert.Equal(t, 400, cfg.VocabSize)
	assert.Equal(t, "corpus.txt", cfg.Input)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.ValidateTrain())

	specials, err := cfg.SpecialTokens()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"<|end|>": 400, "a=b": 401}, specials)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOBPE_VARIANT", "gpt2")
	t.Setenv("GOBPE_MODEL_PATH", "models/x.model")

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, "gpt2", cfg.Variant)
	assert.Equal(t, "models/x.model", cfg.ModelPath)
	require.NoError(t, cfg.ValidateModel())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Variant: "gpt4", Input: "in.txt", Output: "out", VocabSize: 255}
	require.ErrorIs(t, cfg.ValidateTrain(), bpe.ErrInvalidConfiguration)

	cfg = &Config{Variant: "gpt4", Output: "out", VocabSize: 300}
	require.Error(t, cfg.ValidateTrain())

	cfg = &Config{Variant: "gpt5", Input: "in.txt", Output: "out", VocabSize: 300}
	err := cfg.ValidateTrain()
	require.ErrorIs(t, err, bpe.ErrInvalidConfiguration)
	assert.ErrorContains(t, err, "basic, gpt2, gpt4")

	cfg = &Config{Variant: "gpt4", Input: "in.txt", Output: "out", VocabSize: 300, Specials: []string{"noid"}}
	require.ErrorIs(t, cfg.ValidateTrain(), bpe.ErrInvalidArgument)

	require.Error(t, (&Config{}).ValidateModel())
}

func TestPolicy(t *testing.T) {
	cfg := &Config{AllowedSpecial: bpe.PolicySubset, Allow: []string{"<|end|>"}}
	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, bpe.AllowOnly("<|end|>"), policy)

	cfg.AllowedSpecial = "some"
	_, err = cfg.Policy()
	require.ErrorIs(t, err, bpe.ErrInvalidArgument)
}

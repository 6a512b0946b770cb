package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gobpe/internal/pkg/gobpe/bpe"
	"gobpe/internal/pkg/gobpe/engine"
)

type Config struct {
	Variant        string   `mapstructure:"variant"`
	VocabSize      int      `mapstructure:"vocab_size"`
	Input          string   `mapstructure:"input"`
	Output         string   `mapstructure:"output"`
	ModelPath      string   `mapstructure:"model_path"`
	AllowedSpecial string   `mapstructure:"allowed_special"`
	Allow          []string `mapstructure:"allow"`
	Specials       []string `mapstructure:"specials"`
	CacheSize      int      `mapstructure:"cache_size"`
	LogLevel       string   `mapstructure:"log_level"`
	LogFile        string   `mapstructure:"log_file"`
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"variant":         "variant",
	"vocab_size":      "vocab-size",
	"input":           "input",
	"output":          "output",
	"model_path":      "model",
	"allowed_special": "allowed-special",
	"allow":           "allow",
	"specials":        "special",
	"cache_size":      "cache-size",
	"log_level":       "log-level",
	"log_file":        "log-file",
}

func CommonFlags(flagSet *pflag.FlagSet) {
	flagSet.StringP("config", "c", "", "Path to config file")
	flagSet.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	flagSet.String("log-file", "", "Log file path")
	flagSet.Int("cache-size", 4096, "Encoded chunk cache entries (0 disables)")
}

func TrainFlags(flagSet *pflag.FlagSet) {
	flagSet.StringP("input", "i", "", "Training corpus file")
	flagSet.StringP("output", "o", "", "Output prefix; writes PREFIX.model and PREFIX.vocab")
	flagSet.String("variant", "", "Tokenizer variant (basic, gpt2, gpt4)")
	flagSet.IntP("vocab-size", "n", 0, "Target vocabulary size (>= 256)")
	flagSet.StringArray("special", nil, "Special token as STRING=ID (repeatable)")
}

func ModelFlags(flagSet *pflag.FlagSet) {
	flagSet.StringP("model", "m", "", "Path to .model file")
}

func EncodeFlags(flagSet *pflag.FlagSet) {
	flagSet.String("allowed-special", "", "Special token policy (all, none, none_raise, subset)")
	flagSet.StringArray("allow", nil, "Special token allowed under the subset policy (repeatable)")
	flagSet.StringArrayP("file", "f", nil, "Encode the contents of a file (repeatable)")
}

// Load resolves configuration from defaults, a TOML config file, GOBPE_
// environment variables and the flags in flagSet, in increasing precedence.
func Load(flagSet *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("variant", "gpt4")
	v.SetDefault("vocab_size", 512)
	v.SetDefault("input", "")
	v.SetDefault("output", filepath.Join("models", "gpt4"))
	v.SetDefault("model_path", "")
	v.SetDefault("allowed_special", bpe.PolicyNoneRaise)
	v.SetDefault("allow", []string{})
	v.SetDefault("specials", []string{})
	v.SetDefault("cache_size", 4096)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	for key, name := range flagKeys {
		flag := flagSet.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, err
		}
	}

	configFile, _ := flagSet.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("gobpe.cfg")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "gobpe"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("GOBPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("cache size must not be negative")
	}

	return &cfg, nil
}

func (c *Config) ValidateTrain() error {
	if c.Input == "" {
		return fmt.Errorf("input is required (use -i or set input in the config file)")
	}
	if c.Output == "" {
		return fmt.Errorf("output prefix is required")
	}
	if !engine.IsRegistered(c.Variant) {
		return fmt.Errorf("%w: unknown variant %q (available: %s)", bpe.ErrInvalidConfiguration, c.Variant, strings.Join(engine.ListVariants(), ", "))
	}
	if c.VocabSize < bpe.NumBytes {
		return fmt.Errorf("%w: vocab size must be at least %d, got %d", bpe.ErrInvalidConfiguration, bpe.NumBytes, c.VocabSize)
	}
	_, err := c.SpecialTokens()
	return err
}

func (c *Config) ValidateModel() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model path is required (use -m or set model_path in the config file)")
	}
	return nil
}

// SpecialTokens parses Specials entries of the form STRING=ID. The string may
// itself contain '='; the id follows the last one.
func (c *Config) SpecialTokens() (map[string]int, error) {
	specials := make(map[string]int, len(c.Specials))
	for _, entry := range c.Specials {
		sep := strings.LastIndexByte(entry, '=')
		if sep <= 0 {
			return nil, fmt.Errorf("%w: special token %q is not STRING=ID", bpe.ErrInvalidArgument, entry)
		}
		id, err := strconv.Atoi(entry[sep+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: special token %q has a non-numeric id", bpe.ErrInvalidArgument, entry)
		}
		specials[entry[:sep]] = id
	}
	return specials, nil
}

func (c *Config) Policy() (bpe.SpecialPolicy, error) {
	return bpe.ParsePolicy(c.AllowedSpecial, c.Allow)
}

// Package config loads the transcribe command's runtime configuration from
// flags, an optional config file, and environment variables, with viper
// mediating between the three the way the rest of this dependency pack
// does for comparable CLI tools.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config bundles every asset path and runtime knob the transcribe command
// needs (spec §6 "Invocation surface").
type Config struct {
	Models   ModelsConfig  `mapstructure:"models"`
	Request  RequestConfig `mapstructure:"request"`
	LogLevel string        `mapstructure:"log_level"`
}

// ModelsConfig names the on-disk assets the pipeline loads once at startup.
type ModelsConfig struct {
	EncoderPath   string `mapstructure:"encoder_path"`
	DecoderPath   string `mapstructure:"decoder_path"`
	MelFilterPath string `mapstructure:"mel_filter_path"`
	PosEmbedPath  string `mapstructure:"pos_embed_path"`
	VocabPath     string `mapstructure:"vocab_path"`
	PoolSize      int    `mapstructure:"pool_size"`
}

// RequestConfig holds the per-invocation recognize() arguments (spec §6).
type RequestConfig struct {
	AudioPath string `mapstructure:"audio_path"`
	Language  string `mapstructure:"language"`
	BeamSize  int    `mapstructure:"beam_size"`
}

// LoadOptions bundles what Load needs to resolve a Config.
type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// Default returns the transcribe command's baseline configuration.
func Default() Config {
	return Config{
		Models: ModelsConfig{
			EncoderPath:   "models/encoder.onnx",
			DecoderPath:   "models/decoder.onnx",
			MelFilterPath: "models/mel_filters.npz",
			PosEmbedPath:  "models/positional_embedding.npz",
			VocabPath:     "models/vocab.bpe",
			PoolSize:      4,
		},
		Request: RequestConfig{
			Language: "en",
			BeamSize: 1,
		},
		LogLevel: "info",
	}
}

// RegisterFlags attaches the CLI surface for every Config field.
func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("encoder-path", defaults.Models.EncoderPath, "Path to the encoder ONNX graph")
	fs.String("decoder-path", defaults.Models.DecoderPath, "Path to the decoder ONNX graph")
	fs.String("mel-filter-path", defaults.Models.MelFilterPath, "Path to the Mel filter bank .npz archive")
	fs.String("pos-embed-path", defaults.Models.PosEmbedPath, "Path to the positional embedding .npz archive")
	fs.String("vocab-path", defaults.Models.VocabPath, "Path to the BPE vocabulary file")
	fs.Int("pool-size", defaults.Models.PoolSize, "Number of pooled ONNX Runtime sessions per graph")
	fs.String("audio", defaults.Request.AudioPath, "Path to the mono PCM16 16kHz WAV file to transcribe")
	fs.String("language", defaults.Request.Language, "Source language code (e.g. en, de, ja)")
	fs.Int("beam-size", defaults.Request.BeamSize, "Beam width; 1 selects greedy decoding")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

// Load resolves a Config from defaults, an optional config file,
// environment variables (WHISPERGO_* prefix), and explicitly set flags, in
// that ascending precedence order.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("WHISPERGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("whispergo")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("models.encoder_path", c.Models.EncoderPath)
	v.SetDefault("models.decoder_path", c.Models.DecoderPath)
	v.SetDefault("models.mel_filter_path", c.Models.MelFilterPath)
	v.SetDefault("models.pos_embed_path", c.Models.PosEmbedPath)
	v.SetDefault("models.vocab_path", c.Models.VocabPath)
	v.SetDefault("models.pool_size", c.Models.PoolSize)
	v.SetDefault("request.audio_path", c.Request.AudioPath)
	v.SetDefault("request.language", c.Request.Language)
	v.SetDefault("request.beam_size", c.Request.BeamSize)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("models.encoder_path", "encoder-path")
	v.RegisterAlias("models.decoder_path", "decoder-path")
	v.RegisterAlias("models.mel_filter_path", "mel-filter-path")
	v.RegisterAlias("models.pos_embed_path", "pos-embed-path")
	v.RegisterAlias("models.vocab_path", "vocab-path")
	v.RegisterAlias("models.pool_size", "pool-size")
	v.RegisterAlias("request.audio_path", "audio")
	v.RegisterAlias("request.language", "language")
	v.RegisterAlias("request.beam_size", "beam-size")
	v.RegisterAlias("log_level", "log-level")
}

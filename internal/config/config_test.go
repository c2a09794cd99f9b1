package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCmd struct{ fs *pflag.FlagSet }

func (f fakeCmd) Flags() *pflag.FlagSet { return f.fs }

func TestLoadAppliesDefaultsWithNoFlagsOrFile(t *testing.T) {
	defaults := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	cfg, err := Load(LoadOptions{Cmd: fakeCmd{fs}, Defaults: defaults})
	require.NoError(t, err)
	assert.Equal(t, defaults.Models.EncoderPath, cfg.Models.EncoderPath)
	assert.Equal(t, defaults.Request.Language, cfg.Request.Language)
	assert.Equal(t, 1, cfg.Request.BeamSize)
}

func TestLoadPicksUpExplicitFlagOverride(t *testing.T) {
	defaults := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	require.NoError(t, fs.Parse([]string{"--audio", "/tmp/in.wav", "--beam-size", "5", "--language", "de"}))

	cfg, err := Load(LoadOptions{Cmd: fakeCmd{fs}, Defaults: defaults})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/in.wav", cfg.Request.AudioPath)
	assert.Equal(t, 5, cfg.Request.BeamSize)
	assert.Equal(t, "de", cfg.Request.Language)
}

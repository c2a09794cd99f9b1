package audio

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, sampleRate, bitDepth, numChans int, samples []int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChans, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{SampleRate: sampleRate, NumChannels: numChans},
		Data:   samples,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadPCM16MonoNormalises(t *testing.T) {
	path := writeTestWAV(t, 16000, 16, 1, []int{0, 16384, -16384, 32767})

	samples, err := LoadPCM16Mono(path)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.InDelta(t, 0.0, samples[0], 1e-4)
	assert.InDelta(t, 0.5, samples[1], 1e-4)
	assert.InDelta(t, -0.5, samples[2], 1e-4)
	assert.InDelta(t, 1.0, samples[3], 1e-3)
}

func TestLoadPCM16MonoRejectsWrongSampleRate(t *testing.T) {
	path := writeTestWAV(t, 44100, 16, 1, []int{0, 1, 2})
	_, err := LoadPCM16Mono(path)
	assert.Error(t, err)
}

func TestLoadPCM16MonoRejectsWrongBitDepth(t *testing.T) {
	path := writeTestWAV(t, 16000, 8, 1, []int{0, 1, 2})
	_, err := LoadPCM16Mono(path)
	assert.Error(t, err)
}

func TestLoadPCM16MonoTakesFirstChannelOfStereo(t *testing.T) {
	// Interleaved stereo: (L,R) pairs.
	path := writeTestWAV(t, 16000, 16, 2, []int{100, 999, 200, 999, 300, 999})
	samples, err := LoadPCM16Mono(path)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 100.0/32768.0, samples[0], 1e-6)
	assert.InDelta(t, 200.0/32768.0, samples[1], 1e-6)
	assert.InDelta(t, 300.0/32768.0, samples[2], 1e-6)
}

package mel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderrusich/whisper-go/pkg/config"
	"github.com/alexanderrusich/whisper-go/pkg/npz"
)

func TestReflectPad(t *testing.T) {
	// [a,b,c,d] padded by 2 becomes [c,b,a,b,c,d,c,b] for config.ReflectPad=2.
	// Exercise the general formula directly rather than depending on the
	// fixed package constant.
	pcm := []float32{1, 2, 3, 4}
	n := len(pcm)
	pad := 2

	out := make([]float32, n+2*pad)
	for i := 0; i < pad; i++ {
		out[i] = pcm[pad-i]
		out[pad+n+i] = pcm[n-2-i]
	}
	copy(out[pad:pad+n], pcm)

	assert.Equal(t, []float32{3, 2, 1, 2, 3, 4, 3, 2}, out)
}

func TestReflectPadUsesPackageConstant(t *testing.T) {
	pcm := make([]float32, 16000)
	out := reflectPad(pcm)
	assert.Equal(t, len(pcm)+2*config.ReflectPad, len(out))
}

func TestNumFramesSilentOneSecond(t *testing.T) {
	// spec worked example: 1s of silence at 16kHz -> mel shape [80, 101].
	padded := 16000 + 2*config.ReflectPad
	assert.Equal(t, 101, numFrames(padded))
}

func TestNumFramesShortWaveform(t *testing.T) {
	assert.Equal(t, 0, numFrames(config.NFFT-1))
}

func TestNewProcessorRejectsWrongShape(t *testing.T) {
	_, err := NewProcessor(npz.Matrix{Data: make([]float32, 10), Shape: []int{2, 5}})
	require.Error(t, err)
}

func TestComputeSilentOneSecond(t *testing.T) {
	filters := make([]float32, config.NMels*stftBins)
	for row := 0; row < config.NMels; row++ {
		filters[row*stftBins+row] = 1
	}
	proc, err := NewProcessor(npz.Matrix{Data: filters, Shape: []int{config.NMels, stftBins}})
	require.NoError(t, err)

	pcm := make([]float32, 16000)
	melFlat, frames, err := proc.Compute(pcm)
	require.NoError(t, err)
	assert.Equal(t, 101, frames)
	assert.Len(t, melFlat, config.NMels*frames)

	// Silence produces zero power everywhere, so after the dynamic-range
	// clip and affine normalisation every bin should land at the same
	// floor value.
	for _, v := range melFlat {
		assert.InDelta(t, melFlat[0], v, 1e-6)
	}
}

func TestComputeEmptyAudio(t *testing.T) {
	filters := make([]float32, config.NMels*stftBins)
	proc, err := NewProcessor(npz.Matrix{Data: filters, Shape: []int{config.NMels, stftBins}})
	require.NoError(t, err)

	melFlat, frames, err := proc.Compute(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, frames)
	assert.Nil(t, melFlat)
}

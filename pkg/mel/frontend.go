// Package mel turns a 16 kHz mono PCM waveform into the normalised log-Mel
// spectrogram the encoder graph expects, via a parallel Hann-windowed STFT
// followed by a Mel filter-bank projection (spec §4.1).
package mel

import (
	"fmt"
	"math"
	"runtime"

	"github.com/mjibson/go-dsp/fft"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderrusich/whisper-go/pkg/config"
	"github.com/alexanderrusich/whisper-go/pkg/npz"
)

// stftBins is the per-frame spectrum width the Mel filter bank expects. Only
// the first config.NFFT/2 = 200 bins are ever populated by the FFT; the
// trailing Nyquist bin is left at zero so the 201-wide spectrum lines up
// with the shipped 80x201 filter matrix without truncating it (see
// SPEC_FULL.md §4.1, "Mel bin count").
const stftBins = config.NFFT/2 + 1

// Processor projects power spectra onto Mel filter banks and normalises the
// result. It is built once from the externally supplied filter matrix and
// reused read-only for every request.
type Processor struct {
	filters []float32 // flat row-major, filterRows x stftBins
	rows    int       // number of Mel bands (80)
}

// NewProcessor builds a Processor from a loaded filter-bank archive. The
// archive is expected to hold a single [80, 201] matrix (spec §6).
func NewProcessor(m npz.Matrix) (*Processor, error) {
	if len(m.Shape) != 2 {
		return nil, fmt.Errorf("mel: filter bank has shape %v, want 2-D", m.Shape)
	}
	rows, cols := m.Shape[0], m.Shape[1]
	if cols != stftBins {
		return nil, fmt.Errorf("mel: filter bank has %d columns, want %d", cols, stftBins)
	}
	if rows != config.NMels {
		return nil, fmt.Errorf("mel: filter bank has %d rows, want %d", rows, config.NMels)
	}
	return &Processor{filters: m.Data, rows: rows}, nil
}

// reflectPad mirrors the waveform about each endpoint sample, without
// repeating the endpoint itself, on both sides by config.ReflectPad
// samples. This is the convention spec §8's worked example requires:
// [a,b,c,d] padded by 2 becomes [c,b,a,b,c,d,c,b].
func reflectPad(pcm []float32) []float32 {
	n := len(pcm)
	pad := config.ReflectPad
	out := make([]float32, n+2*pad)

	for i := 0; i < pad; i++ {
		out[i] = pcm[pad-i]
		out[pad+n+i] = pcm[n-2-i]
	}
	copy(out[pad:pad+n], pcm)
	return out
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for n := 0; n < size; n++ {
		w[n] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(n)/float64(size-1)))
	}
	return w
}

// numFrames computes the frame count per the resolved formula: the
// conventional STFT frame count (1 + floor((len-nfft)/hop)) on the
// already-padded waveform, matching spec §8's worked example of 101 frames
// for 16000 zero samples.
func numFrames(paddedLen int) int {
	if paddedLen < config.NFFT {
		return 0
	}
	return 1 + (paddedLen-config.NFFT)/config.HopLength
}

// stft computes the windowed power spectrum for every frame in parallel
// (spec §5: "frames MUST be computed in parallel"). Returns a flat
// row-major [stftBins x T] matrix; bin config.NFFT/2 of every frame is left
// at zero. Work is capped at GOMAXPROCS via errgroup.SetLimit, since an FFT
// per frame of a long recording can badly oversubscribe an unbounded
// goroutine-per-frame fan-out.
func stft(padded []float32, t int) []float64 {
	window := hannWindow(config.NFFT)
	power := make([]float64, stftBins*t)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for f := 0; f < t; f++ {
		frame := f
		g.Go(func() error {
			start := frame * config.HopLength
			windowed := make([]float64, config.NFFT)
			for i := 0; i < config.NFFT; i++ {
				windowed[i] = float64(padded[start+i]) * window[i]
			}

			spectrum := fft.FFTReal(windowed)
			for bin := 0; bin < config.NFFT/2; bin++ {
				mag := cabs(spectrum[bin])
				power[bin*t+frame] = mag * mag
			}
			// bin config.NFFT/2 (Nyquist) stays zero, by construction.
			return nil
		})
	}
	_ = g.Wait()

	return power
}

func cabs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// Compute runs the full front end: pad, STFT, Mel projection, log
// compression, dynamic-range clip, affine normalisation. Returns a flat
// row-major [80 x T] matrix.
func (p *Processor) Compute(pcm []float32) (melFlat []float32, frames int, err error) {
	if len(pcm) == 0 {
		return nil, 0, nil
	}

	padded := reflectPad(pcm)
	t := numFrames(len(padded))
	if t <= 0 {
		return nil, 0, nil
	}

	power := stft(padded, t)

	mel := make([]float64, p.rows*t)
	for row := 0; row < p.rows; row++ {
		filterRow := p.filters[row*stftBins : (row+1)*stftBins]
		out := mel[row*t : (row+1)*t]
		for bin := 0; bin < stftBins; bin++ {
			coef := float64(filterRow[bin])
			if coef == 0 {
				continue
			}
			powRow := power[bin*t : (bin+1)*t]
			for f := 0; f < t; f++ {
				out[f] += coef * powRow[f]
			}
		}
	}

	// Log compression.
	for i := range mel {
		if mel[i] < 1e-10 {
			mel[i] = 1e-10
		}
		mel[i] = math.Log10(mel[i])
	}

	// Dynamic-range clip relative to the matrix-wide max.
	maxVal := mel[0]
	for _, v := range mel {
		if v > maxVal {
			maxVal = v
		}
	}
	floor := maxVal - 8.0
	for i := range mel {
		if mel[i] < floor {
			mel[i] = floor
		}
	}

	// Affine normalise to roughly [0, 1].
	out := make([]float32, len(mel))
	for i, v := range mel {
		out[i] = float32((v + 4.0) / 4.0)
	}

	return out, t, nil
}

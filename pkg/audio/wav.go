// Package audio reads the mono PCM16 WAV files the pipeline treats as its
// only supported input format (spec §6).
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// LoadPCM16Mono reads a mono PCM16 WAV file at 16 kHz and returns the
// samples normalised to [-1, 1] by dividing by 32768, matching the
// reference implementation's normalisation exactly.
func LoadPCM16Mono(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: %s: not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: %s: read PCM data: %w", path, err)
	}

	if dec.SampleRate != 16000 {
		return nil, fmt.Errorf("audio: %s: sample rate %d Hz, expected 16000 Hz", path, dec.SampleRate)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("audio: %s: bit depth %d, expected 16-bit PCM", path, dec.BitDepth)
	}

	numChannels := int(dec.NumChans)
	numFrames := buf.NumFrames()
	intData := buf.AsIntBuffer().Data

	samples := make([]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		idx := i * numChannels
		if idx < len(intData) {
			samples[i] = float32(intData[idx]) / 32768.0
		}
	}

	return samples, nil
}

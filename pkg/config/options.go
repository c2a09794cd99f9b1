// Package config holds the process-wide constants that tie the Mel front
// end, tokenizer, decoder driver, and search policies together.
package config

// Options bundles the token ids and context limits shared by every request.
// It is constructed once and reused for the process lifetime.
type Options struct {
	EOTToken      int32
	StartOfPrev   int32
	StartOfTrans  int32
	Transcribe    int32
	StartOfLM     int32
	NoTimestamps  int32
	NContext      int
	MaxDecodeStep int
}

// Default returns the Whisper multilingual vocabulary constants used by the
// reference inference graph this engine drives.
func Default() Options {
	return Options{
		EOTToken:      50257,
		StartOfTrans:  50258,
		Transcribe:    50359,
		StartOfLM:     50358,
		StartOfPrev:   50361,
		NoTimestamps:  50363,
		NContext:      448,
		MaxDecodeStep: 224,
	}
}

// Audio front-end constants, fixed by the 16 kHz PCM16 WAV contract.
const (
	SampleRate        = 16000
	NFFT              = 400
	HopLength         = 160
	NMels             = 80
	ReflectPad        = NFFT / 2
	FramesPerSegment  = 3000
	DecoderModelDepth = 512 // per-layer KV tensor width (spec §3)
)

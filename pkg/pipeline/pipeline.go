// Package pipeline wires the audio, Mel, encoder, decoder, search and
// tokenizer packages into the single recognize(audio_path, beam_size,
// language) entry point spec §6 describes.
package pipeline

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderrusich/whisper-go/pkg/audio"
	"github.com/alexanderrusich/whisper-go/pkg/config"
	"github.com/alexanderrusich/whisper-go/pkg/decoder"
	"github.com/alexanderrusich/whisper-go/pkg/mel"
	"github.com/alexanderrusich/whisper-go/pkg/npz"
	"github.com/alexanderrusich/whisper-go/pkg/onnxgraph"
	"github.com/alexanderrusich/whisper-go/pkg/search"
	"github.com/alexanderrusich/whisper-go/pkg/tokenizer"
)

// Engine bundles every shared, read-only, process-wide resource the
// pipeline needs: the inference graphs, the tokenizer, the Mel front end,
// and the decoder driver (spec §5 "Shared resources").
type Engine struct {
	encoder *onnxgraph.Encoder
	decoder *decoder.Driver
	mel     *mel.Processor
	tok     *tokenizer.Tokenizer
	cfg     config.Options
}

// Config bundles the on-disk asset paths and pool sizes needed to construct
// an Engine.
type Config struct {
	EncoderModelPath string
	DecoderModelPath string
	MelFilterPath    string
	PosEmbedPath     string
	VocabPath        string
	PoolSize         int
}

// NewEngine loads every on-disk asset (inference graphs, Mel filter bank,
// positional embedding table, BPE vocabulary) once and builds an Engine
// ready to serve Recognize calls concurrently.
func NewEngine(c Config) (*Engine, error) {
	poolSize := c.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	enc, err := onnxgraph.NewEncoder(c.EncoderModelPath, poolSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encoder: %w", err)
	}

	decGraph, err := onnxgraph.NewDecoder(c.DecoderModelPath, poolSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: decoder: %w", err)
	}

	melFilters, err := npz.LoadFirst(c.MelFilterPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: mel filter bank: %w", err)
	}
	melProc, err := mel.NewProcessor(melFilters)
	if err != nil {
		return nil, fmt.Errorf("pipeline: mel processor: %w", err)
	}

	posEmb, err := npz.LoadFirst(c.PosEmbedPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: positional embedding: %w", err)
	}

	cfg := config.Default()

	drv, err := decoder.New(decGraph, posEmb)
	if err != nil {
		return nil, fmt.Errorf("pipeline: decoder driver: %w", err)
	}

	tok, err := tokenizer.New(c.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: tokenizer: %w", err)
	}

	return &Engine{
		encoder: enc,
		decoder: drv,
		mel:     melProc,
		tok:     tok,
		cfg:     cfg,
	}, nil
}

// Close releases the pooled inference sessions.
func (e *Engine) Close() error {
	if err := e.encoder.Close(); err != nil {
		return err
	}
	return e.decoder.Close()
}

// Recognize implements spec §6's single entry point: transcribe the WAV
// file at audioPath, using greedy decoding when beamSize is 1 and
// length-normalised beam search otherwise.
func (e *Engine) Recognize(audioPath string, beamSize int, language string) (string, error) {
	pcm, err := audio.LoadPCM16Mono(audioPath)
	if err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}

	if len(pcm) == 0 {
		return "", nil
	}

	melFlat, frames, err := e.mel.Compute(pcm)
	if err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}

	segments := mel.Split(melFlat, frames)

	results := make([][]int32, len(segments))

	var g errgroup.Group
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			tokens, err := e.runSegment(seg, beamSize, language)
			if err != nil {
				return err
			}
			results[i] = tokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}

	var merged []int32
	for _, r := range results {
		merged = append(merged, r...)
	}

	text, err := detokenize(e.tok, merged)
	if err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}
	return text, nil
}

// runSegment encodes one Mel segment once, then runs greedy or beam
// decoding over the shared audio features (spec §4.6).
func (e *Engine) runSegment(seg mel.Segment, beamSize int, language string) ([]int32, error) {
	features, shape, err := e.encoder.Run(seg.Data)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	featureDim := shape[len(shape)-1]

	initial, err := e.decoder.InitialTokens(e.tok, language)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	if beamSize <= 1 {
		return search.Greedy(e.decoder, initial, features, featureDim, e.cfg)
	}
	return search.Beam(e.decoder, initial, features, featureDim, e.cfg, beamSize)
}

// detokenize drops every id >= eot_token (all special tokens, including
// language tags and timestamps) and decodes what remains (spec §4.6).
func detokenize(tok *tokenizer.Tokenizer, ids []int32) (string, error) {
	kept := make([]int, 0, len(ids))
	eot := tok.EOT()
	for _, id := range ids {
		if int(id) < eot {
			kept = append(kept, int(id))
		}
	}
	return tok.Decode(kept)
}

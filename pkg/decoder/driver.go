// Package decoder drives the autoregressive decoder graph one step at a
// time, owning the prefill-vs-incremental token-feeding split and the
// positional-embedding slice that goes with it (spec §4.4). Search policies
// (pkg/search) call Driver.Step in a loop; the driver itself holds no
// per-request state, so one Driver is shared across every segment and
// every beam.
package decoder

import (
	"fmt"

	"github.com/alexanderrusich/whisper-go/pkg/kvcache"
	"github.com/alexanderrusich/whisper-go/pkg/npz"
	"github.com/alexanderrusich/whisper-go/pkg/onnxgraph"
	"github.com/alexanderrusich/whisper-go/pkg/tokenizer"
)

// InitialTokenLength is the fixed length of the per-segment prompt prefix
// built by InitialTokens: sot_prev, startoftranscript, the language token,
// transcribe (spec §4.4).
const InitialTokenLength = 4

// Driver composes the pooled decoder graph with the shared positional
// embedding table into the single step operation spec §4.4 describes.
type Driver struct {
	graph  *onnxgraph.Decoder
	posEmb npz.Matrix
	dModel int64
}

// New wires a decoder graph and a positional-embedding table (spec §6:
// "a compressed numeric archive, first entry = f32[L_max, D_model]") into a
// Driver.
func New(graph *onnxgraph.Decoder, posEmb npz.Matrix) (*Driver, error) {
	if len(posEmb.Shape) != 2 {
		return nil, fmt.Errorf("decoder: positional embedding: expected rank-2 shape, got %v", posEmb.Shape)
	}
	return &Driver{
		graph:  graph,
		posEmb: posEmb,
		dModel: int64(posEmb.Shape[1]),
	}, nil
}

// InitialTokens builds the per-segment prompt prefix (spec §4.4):
// [sot_prev, startoftranscript, lang_token(language), transcribe]. An empty
// prior prompt is assumed; the pipeline never threads a carried prompt
// across segments.
func (d *Driver) InitialTokens(tok *tokenizer.Tokenizer, language string) ([]int32, error) {
	langToken, ok := tok.LangToken(language)
	if !ok {
		return nil, fmt.Errorf("decoder: unknown language code %q", language)
	}
	return []int32{
		int32(tok.StartOfPrev()),
		int32(tok.StartOfTranscript()),
		int32(langToken),
		int32(tok.Transcribe()),
	}, nil
}

// feedSlice implements the prefill/incremental split (spec §4.4): the full
// sequence is fed while its length is within the initial prompt, otherwise
// only the last token is fed.
func feedSlice(tokens []int32) []int32 {
	if len(tokens) <= InitialTokenLength {
		return tokens
	}
	return tokens[len(tokens)-1:]
}

// posSlice returns the flat row-major positional-embedding rows [from, to),
// each dModel wide.
func (d *Driver) posSlice(from, to int) []float32 {
	return d.posEmb.Data[from*int(d.dModel) : to*int(d.dModel)]
}

// Close releases the underlying pooled decoder sessions.
func (d *Driver) Close() error { return d.graph.Close() }

// Step runs one decoder invocation for the running token sequence and KV
// cache, implementing the prefill/incremental split: the full sequence is
// fed while its length is within the initial prompt, otherwise only the
// last token is fed (spec §4.4). It returns the logits of the final fed
// time step only, plus the refreshed KV cache.
func (d *Driver) Step(tokens []int32, cache kvcache.Store, audioFeatures []float32, featureDim int64) (lastLogits []float32, vocabSize int64, newCache kvcache.Store, err error) {
	p := cache.PastLen
	fed := feedSlice(tokens)
	fedLen := len(fed)

	out, err := d.graph.Step(onnxgraph.StepInput{
		Tokens:          fed,
		FedLen:          fedLen,
		AudioFeatures:   audioFeatures,
		FeatureDim:      featureDim,
		PositionalEmbed: d.posSlice(p, p+fedLen),
		DModel:          d.dModel,
		Cache:           cache,
	})
	if err != nil {
		return nil, 0, kvcache.Store{}, fmt.Errorf("decoder: step: %w", err)
	}

	v := int(out.VocabSize)
	lastLogits = out.Logits[(fedLen-1)*v : fedLen*v]
	return lastLogits, out.VocabSize, out.Cache, nil
}

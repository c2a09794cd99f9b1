// Package search implements the two decoding policies spec §4.5 describes:
// greedy argmax decoding and length-normalised beam search, both built on
// top of a shared decoder.Driver step.
package search

import (
	"github.com/alexanderrusich/whisper-go/pkg/config"
	"github.com/alexanderrusich/whisper-go/pkg/decoder"
	"github.com/alexanderrusich/whisper-go/pkg/kvcache"
)

// Greedy decodes a single segment by repeatedly appending the argmax token,
// terminating on eot or the n_ctx length cap (spec §4.5).
func Greedy(drv *decoder.Driver, initial []int32, audioFeatures []float32, featureDim int64, cfg config.Options) ([]int32, error) {
	tokens := append([]int32(nil), initial...)
	cache := kvcache.Empty()

	for step := 0; step < cfg.MaxDecodeStep; step++ {
		logits, _, newCache, err := drv.Step(tokens, cache, audioFeatures, featureDim)
		if err != nil {
			return nil, err
		}
		cache = newCache

		next := argmax(logits)
		tokens = append(tokens, int32(next))

		if int32(next) == cfg.EOTToken || len(tokens) > cfg.NContext {
			break
		}
	}

	return tokens, nil
}

// argmax returns the index of the largest value, ties broken by lowest
// index (a total ordering, spec §4.5): only a strictly greater value
// replaces the current best.
func argmax(logits []float32) int {
	best := 0
	bestVal := logits[0]
	for i, v := range logits {
		if v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}

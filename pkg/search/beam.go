package search

import (
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderrusich/whisper-go/pkg/config"
	"github.com/alexanderrusich/whisper-go/pkg/decoder"
	"github.com/alexanderrusich/whisper-go/pkg/kvcache"
)

// beamNode is one live hypothesis: its token history, summed log-probability
// score, running KV cache, and whether it has already terminated.
type beamNode struct {
	tokens []int32
	score  float64
	cache  kvcache.Store
	done   bool
}

// normScore is the length-normalised score beams are ranked on (spec §4.5).
func (n beamNode) normScore() float64 {
	return n.score / float64(len(n.tokens))
}

// Beam runs width-w beam search for a single segment (spec §4.5). Every
// live beam is expanded concurrently; pruning is a deterministic sort on
// score/len. The <|startoflm|> -> <|notimestamps|> id remap is applied to
// freshly chosen tokens before they're appended, a source-level
// timestamp/anchor reinterpretation retained for bit-compatibility.
func Beam(drv *decoder.Driver, initial []int32, audioFeatures []float32, featureDim int64, cfg config.Options, width int) ([]int32, error) {
	beams := []beamNode{{tokens: append([]int32(nil), initial...), cache: kvcache.Empty()}}

	for step := 0; step < cfg.MaxDecodeStep; step++ {
		expanded, err := expandAll(drv, beams, audioFeatures, featureDim, cfg, width)
		if err != nil {
			return nil, err
		}

		sort.Slice(expanded, func(i, j int) bool { return expanded[i].normScore() > expanded[j].normScore() })
		if len(expanded) > width {
			expanded = expanded[:width]
		}
		beams = expanded

		allDone := true
		for _, b := range beams {
			if !b.done {
				allDone = false
				break
			}
		}
		if allDone {
			break
		}
	}

	sort.Slice(beams, func(i, j int) bool { return beams[i].normScore() > beams[j].normScore() })
	return beams[0].tokens, nil
}

// expandAll runs one decoder step per live beam concurrently and returns
// the flattened set of candidate children (spec §5: "beams MUST be
// expanded concurrently").
func expandAll(drv *decoder.Driver, beams []beamNode, audioFeatures []float32, featureDim int64, cfg config.Options, width int) ([]beamNode, error) {
	children := make([][]beamNode, len(beams))

	var g errgroup.Group
	for i, b := range beams {
		if b.done {
			children[i] = []beamNode{b}
			continue
		}
		i, b := i, b
		g.Go(func() error {
			local, err := expandOne(drv, b, audioFeatures, featureDim, cfg, width)
			if err != nil {
				return err
			}
			children[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []beamNode
	for _, c := range children {
		out = append(out, c...)
	}
	return out, nil
}

// expandOne runs one decoder step for a single beam and produces its top-w
// children by probability (spec §4.5's local top-k before global pruning).
func expandOne(drv *decoder.Driver, b beamNode, audioFeatures []float32, featureDim int64, cfg config.Options, width int) ([]beamNode, error) {
	logits, _, newCache, err := drv.Step(b.tokens, b.cache, audioFeatures, featureDim)
	if err != nil {
		return nil, err
	}

	probs := softmax(logits)
	top := topKIndices(probs, width)

	local := make([]beamNode, 0, len(top))
	for _, idx := range top {
		tokenID := remapStartOfLM(idx, cfg)

		newTokens := append(append([]int32(nil), b.tokens...), int32(tokenID))
		newScore := b.score + math.Log(float64(probs[idx]))
		done := int32(tokenID) == cfg.EOTToken || len(newTokens) > cfg.NContext

		local = append(local, beamNode{tokens: newTokens, score: newScore, cache: newCache, done: done})
	}
	return local, nil
}

// remapStartOfLM substitutes <|notimestamps|> for <|startoflm|> before a
// chosen token id is appended to a beam (spec §4.5): a source-level
// timestamp/anchor reinterpretation retained for bit-compatibility. Scoring
// still uses the probability of the original id; only the appended token
// changes.
func remapStartOfLM(tokenID int, cfg config.Options) int {
	if tokenID == int(cfg.StartOfLM) {
		return int(cfg.NoTimestamps)
	}
	return tokenID
}

// softmax computes a numerically stable softmax over logits.
func softmax(logits []float32) []float32 {
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - max))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// topKIndices returns the indices of the k largest probabilities, sorted
// descending, ties broken by lowest index.
func topKIndices(probs []float32, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		if probs[idx[i]] != probs[idx[j]] {
			return probs[idx[i]] > probs[idx[j]]
		}
		return idx[i] < idx[j]
	})
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

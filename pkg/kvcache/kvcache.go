// Package kvcache models the running key/value attention state threaded
// through every decoder graph invocation. Per spec §9's redesign note, the
// twelve named k1..k6/v1..v6 tensors of the source are modeled as an ordered
// array of six (K, V) pairs, so graph-input construction is data-driven and
// generalises across model depths instead of being hand-unrolled.
package kvcache

// NumLayers is the decoder depth the reference inference graph was exported
// with (spec §3: "12 tensors (6 key + 6 value, one pair per decoder
// layer)").
const NumLayers = 6

// Pair holds one decoder layer's running key and value tensors, each shaped
// [1, past_len, 512] (spec §3).
type Pair struct {
	K []float32
	V []float32
}

// Store is an immutable bundle of per-layer KV pairs. It is never mutated in
// place: each decoder invocation consumes one Store and yields a new one
// (spec §4.3).
type Store struct {
	Layers  [NumLayers]Pair
	PastLen int
}

// Empty returns the "empty past" cache the inference graph recognises by its
// zero time dimension: NumLayers pairs of shape [1, 0, 512].
func Empty() Store {
	return Store{}
}

// Width is the per-layer tensor's model dimension (spec §3: 512).
const Width = 512

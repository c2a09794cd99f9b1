package onnxgraph

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/alexanderrusich/whisper-go/pkg/config"
)

// Encoder wraps a pooled encoder graph: mel [1,80,3000] -> features
// [1,1500,D] (spec §6).
type Encoder struct {
	pool *SessionPool
}

// NewEncoder loads poolSize independent sessions for the encoder graph at
// modelPath.
func NewEncoder(modelPath string, poolSize int) (*Encoder, error) {
	pool, err := NewSessionPool(modelPath, []string{"mel"}, []string{"features"}, poolSize)
	if err != nil {
		return nil, fmt.Errorf("onnxgraph: encoder: %w", err)
	}
	return &Encoder{pool: pool}, nil
}

// Close releases the underlying sessions.
func (e *Encoder) Close() error { return e.pool.Close() }

// Run encodes a single [80, 3000] Mel segment and returns the flat
// row-major audio features plus their shape (including the leading
// singleton batch axis).
func (e *Encoder) Run(melSegment []float32) (features []float32, shape []int64, err error) {
	melShape := ort.NewShape(1, int64(config.NMels), int64(config.FramesPerSegment))
	melTensor, err := ort.NewTensor(melShape, melSegment)
	if err != nil {
		return nil, nil, fmt.Errorf("onnxgraph: encoder: input tensor: %w", err)
	}
	defer melTensor.Destroy()

	outputs := make([]ort.Value, 1)

	session := e.pool.Get()
	defer e.pool.Put(session)

	err = session.Run([]ort.Value{melTensor}, outputs)
	if err != nil {
		return nil, nil, fmt.Errorf("onnxgraph: encoder: run: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("onnxgraph: encoder: unexpected output tensor type")
	}

	// out.GetData() aliases ORT-owned memory that the deferred Destroy
	// above frees before this call returns; copy it into a Go-owned
	// slice first, matching decoder.go's identical Step hazard.
	data := append([]float32(nil), out.GetData()...)
	shape := out.GetShape()
	return data, shape, nil
}

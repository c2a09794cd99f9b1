package onnxgraph

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/alexanderrusich/whisper-go/pkg/kvcache"
)

var decoderInputNames = []string{
	"tokens", "audio_features", "positional_embedding",
	"k1", "v1", "k2", "v2", "k3", "v3", "k4", "v4", "k5", "v5", "k6", "v6",
}

var decoderOutputNames = []string{
	"logits",
	"k1_out", "v1_out", "k2_out", "v2_out", "k3_out", "v3_out",
	"k4_out", "v4_out", "k5_out", "v5_out", "k6_out", "v6_out",
}

// Decoder wraps a pooled decoder graph matching the step contract of spec
// §6: tokens, audio features, a positional-embedding slice, and the 12 KV
// tensors in, refreshed logits and KV tensors out.
type Decoder struct {
	pool *SessionPool
}

// NewDecoder loads poolSize independent sessions for the decoder graph at
// modelPath.
func NewDecoder(modelPath string, poolSize int) (*Decoder, error) {
	pool, err := NewSessionPool(modelPath, decoderInputNames, decoderOutputNames, poolSize)
	if err != nil {
		return nil, fmt.Errorf("onnxgraph: decoder: %w", err)
	}
	return &Decoder{pool: pool}, nil
}

// Close releases the underlying sessions.
func (d *Decoder) Close() error { return d.pool.Close() }

// StepInput bundles one decoder invocation's inputs.
type StepInput struct {
	Tokens          []int32 // shape [1, fedLen]
	FedLen          int
	AudioFeatures   []float32 // shape [1, 1500, D]
	FeatureDim      int64
	PositionalEmbed []float32 // shape [1, fedLen, DModel]
	DModel          int64
	Cache           kvcache.Store
}

// StepOutput bundles one decoder invocation's outputs.
type StepOutput struct {
	Logits    []float32 // shape [1, fedLen, V]
	VocabSize int64
	Cache     kvcache.Store
}

// Step runs a single decode step: feeds tokens_fed, the shared audio
// features, the positional-embedding slice, and the running KV cache; gets
// back updated logits and a refreshed KV cache (spec §4.4).
func (d *Decoder) Step(in StepInput) (StepOutput, error) {
	tokensShape := ort.NewShape(1, int64(in.FedLen))
	tokensTensor, err := ort.NewTensor(tokensShape, in.Tokens)
	if err != nil {
		return StepOutput{}, fmt.Errorf("onnxgraph: decoder: tokens tensor: %w", err)
	}
	defer tokensTensor.Destroy()

	featuresShape := ort.NewShape(1, 1500, in.FeatureDim)
	featuresTensor, err := ort.NewTensor(featuresShape, in.AudioFeatures)
	if err != nil {
		return StepOutput{}, fmt.Errorf("onnxgraph: decoder: features tensor: %w", err)
	}
	defer featuresTensor.Destroy()

	posShape := ort.NewShape(1, int64(in.FedLen), in.DModel)
	posTensor, err := ort.NewTensor(posShape, in.PositionalEmbed)
	if err != nil {
		return StepOutput{}, fmt.Errorf("onnxgraph: decoder: positional embedding tensor: %w", err)
	}
	defer posTensor.Destroy()

	inputs := make([]ort.Value, 0, 3+2*kvcache.NumLayers)
	inputs = append(inputs, tokensTensor, featuresTensor, posTensor)

	kvTensors := make([]*ort.Tensor[float32], 0, 2*kvcache.NumLayers)
	defer func() {
		for _, t := range kvTensors {
			t.Destroy()
		}
	}()

	for _, layer := range in.Cache.Layers {
		kShape := ort.NewShape(1, int64(in.Cache.PastLen), kvcache.Width)
		kTensor, err := ort.NewTensor(kShape, layer.K)
		if err != nil {
			return StepOutput{}, fmt.Errorf("onnxgraph: decoder: k tensor: %w", err)
		}
		kvTensors = append(kvTensors, kTensor)
		inputs = append(inputs, kTensor)

		vTensor, err := ort.NewTensor(kShape, layer.V)
		if err != nil {
			return StepOutput{}, fmt.Errorf("onnxgraph: decoder: v tensor: %w", err)
		}
		kvTensors = append(kvTensors, vTensor)
		inputs = append(inputs, vTensor)
	}

	outputs := make([]ort.Value, len(decoderOutputNames))

	session := d.pool.Get()
	defer d.pool.Put(session)

	if err := session.Run(inputs, outputs); err != nil {
		return StepOutput{}, fmt.Errorf("onnxgraph: decoder: run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			o.Destroy()
		}
	}()

	logitsOut, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return StepOutput{}, fmt.Errorf("onnxgraph: decoder: unexpected logits tensor type")
	}
	logitsShape := logitsOut.GetShape()
	vocabSize := logitsShape[len(logitsShape)-1]

	newPastLen := in.Cache.PastLen + in.FedLen
	var newCache kvcache.Store
	newCache.PastLen = newPastLen

	for i := 0; i < kvcache.NumLayers; i++ {
		kOut, ok := outputs[1+2*i].(*ort.Tensor[float32])
		if !ok {
			return StepOutput{}, fmt.Errorf("onnxgraph: decoder: unexpected k%d tensor type", i+1)
		}
		vOut, ok := outputs[2+2*i].(*ort.Tensor[float32])
		if !ok {
			return StepOutput{}, fmt.Errorf("onnxgraph: decoder: unexpected v%d tensor type", i+1)
		}
		newCache.Layers[i] = kvcache.Pair{
			K: append([]float32(nil), kOut.GetData()...),
			V: append([]float32(nil), vOut.GetData()...),
		}
	}

	return StepOutput{
		Logits:    append([]float32(nil), logitsOut.GetData()...),
		VocabSize: vocabSize,
		Cache:     newCache,
	}, nil
}

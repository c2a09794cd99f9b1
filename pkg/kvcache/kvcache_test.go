package kvcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyHasZeroPastLen(t *testing.T) {
	c := Empty()
	assert.Equal(t, 0, c.PastLen)
	assert.Len(t, c.Layers, NumLayers)
	for _, layer := range c.Layers {
		assert.Nil(t, layer.K)
		assert.Nil(t, layer.V)
	}
}

func TestStoreIsImmutableAcrossCopies(t *testing.T) {
	c1 := Empty()
	c2 := c1
	c2.PastLen = 5
	c2.Layers[0] = Pair{K: []float32{1}, V: []float32{2}}

	assert.Equal(t, 0, c1.PastLen)
	assert.Nil(t, c1.Layers[0].K)
}

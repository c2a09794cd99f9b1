package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgmaxPicksHighest(t *testing.T) {
	assert.Equal(t, 2, argmax([]float32{0.1, 0.2, 0.9, 0.3}))
}

func TestArgmaxTiesBreakToLowestIndex(t *testing.T) {
	assert.Equal(t, 0, argmax([]float32{0.5, 0.5, 0.5}))
}

func TestArgmaxSingleElement(t *testing.T) {
	assert.Equal(t, 0, argmax([]float32{42}))
}

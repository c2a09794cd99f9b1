package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytePairMergeSingleByte(t *testing.T) {
	ranks := map[string]int{"a": 0}
	assert.Equal(t, []int{0}, bytePairMerge([]byte("a"), ranks))
}

func TestBytePairMergePrefersLowestRank(t *testing.T) {
	ranks := map[string]int{
		"a": 0, "b": 1, "c": 2,
		"ab": 10, "bc": 5,
	}
	// "abc": "bc" has the lower rank (5 < 10), so it merges first,
	// leaving "a" and "bc" with no further mergeable pair.
	got := bytePairMerge([]byte("abc"), ranks)
	assert.Equal(t, []int{0, 5}, got)
}

func TestBytePairMergeNoMergesLeavesSingletons(t *testing.T) {
	ranks := map[string]int{"a": 0, "b": 1, "c": 2}
	got := bytePairMerge([]byte("abc"), ranks)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestBytePairMergeEmpty(t *testing.T) {
	assert.Nil(t, bytePairMerge(nil, map[string]int{}))
}

package tokenizer

// bytePairMerge repeatedly merges the adjacent byte run with the lowest
// rank until no mergeable pair remains, then returns the rank of each
// surviving run in order. This is the standard BPE merge used by the
// rank-table tokenizers this vocabulary format comes from: always merge the
// single lowest-rank pair across the whole piece, not just the first one
// found, so the result is independent of scan order.
func bytePairMerge(piece []byte, ranks map[string]int) []int {
	if len(piece) == 0 {
		return nil
	}

	parts := make([][]byte, len(piece))
	for i := range piece {
		parts[i] = piece[i : i+1]
	}

	for len(parts) > 1 {
		bestRank := -1
		bestIdx := -1

		for i := 0; i < len(parts)-1; i++ {
			merged := joinParts(parts[i], parts[i+1])
			if rank, ok := ranks[string(merged)]; ok {
				if bestRank == -1 || rank < bestRank {
					bestRank = rank
					bestIdx = i
				}
			}
		}

		if bestIdx == -1 {
			break
		}

		merged := joinParts(parts[bestIdx], parts[bestIdx+1])
		next := make([][]byte, 0, len(parts)-1)
		next = append(next, parts[:bestIdx]...)
		next = append(next, merged)
		next = append(next, parts[bestIdx+2:]...)
		parts = next
	}

	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = ranks[string(p)]
	}
	return out
}

func joinParts(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

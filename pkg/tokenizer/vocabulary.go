package tokenizer

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// loadRanks reads a "base64(token) rank" vocabulary file into an encoder
// table mapping byte strings to integer ranks. A malformed base64 field is
// coerced to the empty byte sequence at that rank, a documented quirk of
// the upstream format this tokenizer stays bit-compatible with (spec §4.2,
// §7).
func loadRanks(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: open vocabulary %s: %w", path, err)
	}
	defer f.Close()

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("tokenizer: vocabulary %s:%d: malformed line %q", path, lineNo, line)
		}

		var rank int
		if _, err := fmt.Sscanf(fields[1], "%d", &rank); err != nil {
			return nil, fmt.Errorf("tokenizer: vocabulary %s:%d: malformed rank %q: %w", path, lineNo, fields[1], err)
		}

		token, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			token = []byte{}
		}
		ranks[string(token)] = rank
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tokenizer: vocabulary %s: %w", path, err)
	}

	return ranks, nil
}

// buildSpecials returns the dense special-token vocabulary in the fixed
// order spec §4.2 prescribes: end-of-text, start-of-transcript, the 99
// language tags in the glossary's declared order, the task/prompt markers,
// then the 1501 timestamp tokens. Ids are assigned contiguously starting at
// nVocab+1.
func buildSpecials(nVocab int) (names []string, ids map[string]int) {
	names = make([]string, 0, 2+len(languages)+4+1501)
	names = append(names, "<|endoftext|>", "<|startoftranscript|>")
	for _, lang := range languages {
		names = append(names, "<|"+lang.Code+"|>")
	}
	names = append(names,
		"<|translate|>", "<|transcribe|>",
		"<|startoflm|>", "<|startofprev|>",
		"<|nospeech|>", "<|notimestamps|>",
	)
	for i := 0; i <= 1500; i++ {
		names = append(names, fmt.Sprintf("<|%.2f|>", float64(i)*0.02))
	}

	ids = make(map[string]int, len(names))
	for i, name := range names {
		ids[name] = i + nVocab + 1
	}
	return names, ids
}

// Package tokenizer implements the byte-pair-encoded vocabulary spec §4.2
// describes: a rank-table BPE codec with a fixed regex pre-tokenizer and a
// dense special-token table (language tags, task markers, timestamp
// tokens). Go's RE2-based regexp package cannot express the pre-tokenizer's
// negative lookahead (`\s+(?!\S)`), so the pattern is compiled with
// dlclark/regexp2, the backtracking engine several repositories in this
// corpus already carry as a dependency for exactly this kind of
// Perl-compatible pattern.
package tokenizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// pretokenizerPattern is the fixed pre-tokenizer regex from spec §4.2.
const pretokenizerPattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// Tokenizer is constructed once from the externally supplied rank table and
// reused read-only for every request (spec §3).
type Tokenizer struct {
	ranks       map[string]int
	byteOf      map[int][]byte
	specialID   map[string]int
	specialName map[int]string
	specialList []string // sorted by length descending, for greedy text scanning
	lang2Token  map[string]int

	nVocab int
	pre    *regexp2.Regexp

	eotID   int
	sotID   int
	transID int
	prevID  int
	noTSID  int
}

// New constructs a Tokenizer from a "base64(token) rank" vocabulary file.
func New(vocabPath string) (*Tokenizer, error) {
	ranks, err := loadRanks(vocabPath)
	if err != nil {
		return nil, err
	}

	nVocab := len(ranks)
	names, ids := buildSpecials(nVocab)

	byteOf := make(map[int][]byte, len(ranks))
	for tok, rank := range ranks {
		byteOf[rank] = []byte(tok)
	}

	specialName := make(map[int]string, len(names))
	for name, id := range ids {
		specialName[id] = name
	}

	specialList := append([]string(nil), names...)
	sort.Slice(specialList, func(i, j int) bool { return len(specialList[i]) > len(specialList[j]) })

	pre, err := regexp2.Compile(pretokenizerPattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: compile pre-tokenizer regex: %w", err)
	}

	sotID := ids["<|startoftranscript|>"]

	lang2Token := make(map[string]int, len(languages))
	for i, lang := range languages {
		lang2Token[lang.Code] = sotID + i
	}

	return &Tokenizer{
		ranks:       ranks,
		byteOf:      byteOf,
		specialID:   ids,
		specialName: specialName,
		specialList: specialList,
		lang2Token:  lang2Token,
		nVocab:      nVocab,
		pre:         pre,
		eotID:       ids["<|endoftext|>"],
		sotID:       sotID,
		transID:     ids["<|transcribe|>"],
		prevID:      ids["<|startofprev|>"],
		noTSID:      ids["<|notimestamps|>"],
	}, nil
}

// EOT returns the id of <|endoftext|>.
func (t *Tokenizer) EOT() int { return t.eotID }

// StartOfTranscript returns the id of <|startoftranscript|>.
func (t *Tokenizer) StartOfTranscript() int { return t.sotID }

// Transcribe returns the id of <|transcribe|>.
func (t *Tokenizer) Transcribe() int { return t.transID }

// StartOfPrev returns the id of <|startofprev|>.
func (t *Tokenizer) StartOfPrev() int { return t.prevID }

// NoTimestamps returns the id of <|notimestamps|>.
func (t *Tokenizer) NoTimestamps() int { return t.noTSID }

// LangToken returns the derived language prompt token for code, per spec
// §4.2: id(<|startoftranscript|>) + index_in_language_list(code). This is a
// derived compatibility value used only for prompt construction, distinct
// from the id of the literal <|code|> special token.
func (t *Tokenizer) LangToken(code string) (int, bool) {
	id, ok := t.lang2Token[code]
	return id, ok
}

// EncodeOrdinary BPE-encodes text with the fixed pre-tokenizer regex,
// ignoring special-token markup entirely.
func (t *Tokenizer) EncodeOrdinary(text string) []int {
	var ids []int
	m, _ := t.pre.FindStringMatch(text)
	for m != nil {
		piece := m.String()
		if rank, ok := t.ranks[piece]; ok {
			ids = append(ids, rank)
		} else {
			ids = append(ids, bytePairMerge([]byte(piece), t.ranks)...)
		}
		m, _ = t.pre.FindNextMatch(m)
	}
	return ids
}

// EncodeWithSpecials encodes text, recognising literal special-token
// markup (e.g. "<|endoftext|>") anywhere it appears and emitting the
// corresponding special id instead of BPE-encoding it.
func (t *Tokenizer) EncodeWithSpecials(text string) []int {
	var ids []int
	rest := text

	for len(rest) > 0 {
		idx, tok := t.firstSpecial(rest)
		if idx == -1 {
			ids = append(ids, t.EncodeOrdinary(rest)...)
			break
		}
		if idx > 0 {
			ids = append(ids, t.EncodeOrdinary(rest[:idx])...)
		}
		ids = append(ids, t.specialID[tok])
		rest = rest[idx+len(tok):]
	}

	return ids
}

// firstSpecial finds the earliest-occurring special-token marker in text
// and returns its byte offset and literal text, or -1 if none occurs.
func (t *Tokenizer) firstSpecial(text string) (int, string) {
	best := -1
	bestTok := ""
	for _, tok := range t.specialList {
		if idx := strings.Index(text, tok); idx != -1 {
			if best == -1 || idx < best {
				best = idx
				bestTok = tok
			}
		}
	}
	return best, bestTok
}

// Decode converts a token-id sequence back to text. Per spec §4.2,
// decoding failures on invalid ids are fatal: Decode returns an error
// rather than silently dropping or substituting data.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	var sb strings.Builder
	for _, id := range ids {
		if id <= t.nVocab {
			b, ok := t.byteOf[id]
			if !ok {
				return "", fmt.Errorf("tokenizer: decode: unknown rank %d", id)
			}
			sb.Write(b)
			continue
		}
		name, ok := t.specialName[id]
		if !ok {
			return "", fmt.Errorf("tokenizer: decode: unknown special id %d", id)
		}
		sb.WriteString(name)
	}
	return sb.String(), nil
}

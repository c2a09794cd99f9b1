package decoder

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderrusich/whisper-go/pkg/npz"
	"github.com/alexanderrusich/whisper-go/pkg/tokenizer"
)

func writeTestVocab(t *testing.T, tokens []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.bpe")
	var sb strings.Builder
	for rank, tok := range tokens {
		fmt.Fprintf(&sb, "%s %d\n", base64.StdEncoding.EncodeToString([]byte(tok)), rank)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestNewRejectsNonRank2PositionalEmbedding(t *testing.T) {
	_, err := New(nil, npz.Matrix{Data: []float32{1, 2, 3}, Shape: []int{3}})
	require.Error(t, err)
}

func TestFeedSliceWithinInitialPromptFeedsEverything(t *testing.T) {
	tokens := make([]int32, InitialTokenLength)
	for i := range tokens {
		tokens[i] = int32(i)
	}
	assert.Equal(t, tokens, feedSlice(tokens))
}

func TestFeedSliceBeyondInitialPromptFeedsLastTokenOnly(t *testing.T) {
	tokens := make([]int32, InitialTokenLength+3)
	for i := range tokens {
		tokens[i] = int32(i)
	}
	fed := feedSlice(tokens)
	require.Len(t, fed, 1)
	assert.Equal(t, tokens[len(tokens)-1], fed[0])
}

func TestPosSliceReturnsRequestedRowRange(t *testing.T) {
	// dModel=2, 4 rows: [0,1] [2,3] [4,5] [6,7]
	d := &Driver{
		posEmb: npz.Matrix{Data: []float32{0, 1, 2, 3, 4, 5, 6, 7}, Shape: []int{4, 2}},
		dModel: 2,
	}
	assert.Equal(t, []float32{2, 3, 4, 5}, d.posSlice(1, 3))
}

func TestInitialTokensBuildsFixedPrefix(t *testing.T) {
	path := writeTestVocab(t, []string{"hi"})
	tok, err := tokenizer.New(path)
	require.NoError(t, err)

	d := &Driver{}
	tokens, err := d.InitialTokens(tok, "en")
	require.NoError(t, err)
	require.Len(t, tokens, InitialTokenLength)

	en, _ := tok.LangToken("en")
	assert.Equal(t, []int32{
		int32(tok.StartOfPrev()),
		int32(tok.StartOfTranscript()),
		int32(en),
		int32(tok.Transcribe()),
	}, tokens)
}

func TestInitialTokensRejectsUnknownLanguage(t *testing.T) {
	path := writeTestVocab(t, []string{"hi"})
	tok, err := tokenizer.New(path)
	require.NoError(t, err)

	d := &Driver{}
	_, err = d.InitialTokens(tok, "not-a-real-language")
	assert.Error(t, err)
}

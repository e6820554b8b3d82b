package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeSplitsSuffixesAndPrefixes(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Tokenize("(Well)")
	assert.Equal(t, []string{"(", "Well", ")"}, got)
}

func TestTokenizeSplitsContractions(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Tokenize("they'll")
	assert.Equal(t, []string{"they", "'ll"}, got)
}

func TestTokenizeKeepsEmoticonsWhole(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Tokenize("nice :-)")
	assert.Equal(t, []string{"nice", ":-)"}, got)
}

func TestTokenizeHandlesPlainSentence(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Tokenize("The dog barks.")
	assert.Equal(t, []string{"The", "dog", "barks", "."}, got)
}

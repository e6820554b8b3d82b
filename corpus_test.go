package sometag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCorpusParsesSentencesAndBlankLines(t *testing.T) {
	input := "The\tDT\ndog\tNN\nbarks\tVB\n\nCats\tNNS\nmeow\tVB\n"
	corpus, err := ReadCorpus(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 2, corpus.NumSentences())
	tokens, labels := corpus.Sentence(0)
	assert.Equal(t, []string{"The", "dog", "barks"}, tokens)
	assert.Equal(t, []string{"DT", "NN", "VB"}, labels)

	tokens, labels = corpus.Sentence(1)
	assert.Equal(t, []string{"Cats", "meow"}, tokens)
	assert.Equal(t, []string{"NNS", "VB"}, labels)
}

func TestReadCorpusRejectsMalformedLine(t *testing.T) {
	_, err := ReadCorpus(strings.NewReader("onlyonefield\n"))
	assert.ErrorIs(t, err, ErrMalformedCorpus)
}

func TestReadUntaggedParsesBareTokens(t *testing.T) {
	corpus, err := ReadUntagged(strings.NewReader("The\ndog\nbarks\n"))
	require.NoError(t, err)
	tokens, _ := corpus.Sentence(0)
	assert.Equal(t, []string{"The", "dog", "barks"}, tokens)
}

func TestReadXMLPassthroughPreservesMarkupAndUnescapesEntities(t *testing.T) {
	input := "<s>\nAT&amp;T\tNNP\n</s>\n"
	corpus, markup, err := ReadXMLPassthrough(strings.NewReader(input))
	require.NoError(t, err)

	tokens, labels := corpus.Sentence(0)
	assert.Equal(t, []string{"AT&T"}, tokens)
	assert.Equal(t, []string{"NNP"}, labels)
	assert.Equal(t, []string{"<s>"}, markup[0])
	assert.Equal(t, []string{"</s>"}, markup[1])
}

func TestReadLexicon(t *testing.T) {
	lex, err := ReadLexicon(strings.NewReader("Run\tVB,NN\nthe\tDT\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"VB", "NN"}, lex["run"])
	assert.Equal(t, []string{"DT"}, lex["the"])
}

func TestReadBrownClusters(t *testing.T) {
	brown, err := ReadBrownClusters(strings.NewReader("0101\tDog\t12\n"))
	require.NoError(t, err)
	entry, ok := brown["dog"]
	require.True(t, ok)
	assert.Equal(t, "0101", entry.Cluster)
}

func TestReadMapping(t *testing.T) {
	mapping, err := ReadMapping(strings.NewReader("NN\tNOUN\nVB\tVERB\n"))
	require.NoError(t, err)
	assert.Equal(t, "NOUN", mapping["NN"])
	assert.Equal(t, "VERB", mapping["VB"])
}

func TestReadWord2VecVectorsSkipsHeader(t *testing.T) {
	vecs, err := ReadWord2VecVectors(strings.NewReader("2 3\ndog 0.1 0.2 0.3\ncat 0.4 0.5 0.6\n"))
	require.NoError(t, err)
	assert.Equal(t, "0.1 0.2 0.3", vecs["dog"])
	assert.Equal(t, "0.4 0.5 0.6", vecs["cat"])
}

func TestEvaluateSplitsIVAndOOV(t *testing.T) {
	tokens := []string{"dog", "zorp"}
	gold := []string{"NN", "NN"}
	predicted := []string{"NN", "VB"}
	vocab := map[string]bool{"dog": true}

	result := Evaluate(tokens, gold, predicted, vocab, "")
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 1, result.IVTotal)
	assert.Equal(t, 1, result.IVCorrect)
	assert.Equal(t, 1, result.OOVTotal)
	assert.Equal(t, 0, result.OOVCorrect)
	assert.InDelta(t, 0.5, result.Accuracy(), 1e-9)
}

func TestEvaluateExcludesIgnoreLabelPositions(t *testing.T) {
	tokens := []string{"dog", "zorp", "cat"}
	gold := []string{"NN", "_", "NN"}
	predicted := []string{"NN", "VB", "VB"}
	vocab := map[string]bool{"dog": true, "cat": true}

	result := Evaluate(tokens, gold, predicted, vocab, "_")
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Correct)
}

func TestEvaluateAllIgnoredReportsZeroAccuracy(t *testing.T) {
	tokens := []string{"dog", "cat"}
	gold := []string{"_", "_"}
	predicted := []string{"NN", "VB"}
	vocab := map[string]bool{}

	result := Evaluate(tokens, gold, predicted, vocab, "_")
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0.0, result.Accuracy())
}

package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFeaturesIncludeCoreSignals(t *testing.T) {
	e := NewExtractor(Resources{})
	sentence := []string{"The", "dog", "barks"}
	feats := e.Static(sentence, 1)

	assert.Contains(t, feats, "bias")
	assert.Contains(t, feats, "W_word: dog")
	assert.Contains(t, feats, "P1_suffix: the")
	assert.Contains(t, feats, "N1_word: barks")
}

func TestStaticFeaturesRespectSentenceBoundaries(t *testing.T) {
	e := NewExtractor(Resources{})
	sentence := []string{"Go"}
	feats := e.Static(sentence, 0)

	for _, f := range feats {
		assert.NotContains(t, f, "P1_suffix")
		assert.NotContains(t, f, "N1_suffix")
	}
}

func TestStaticFeaturesCacheIsConsistent(t *testing.T) {
	e := NewExtractor(Resources{})
	sentence := []string{"The", "dog", "barks"}
	first := e.Static(sentence, 1)
	second := e.Static(sentence, 1)
	assert.Equal(t, first, second)
}

func TestLatentFeaturesUseHistorySentinelsAtStart(t *testing.T) {
	e := NewExtractor(Resources{})
	e.SetTokens([]string{"The", "dog", "barks"})
	feats := e.Latent(0, nil, 0)

	assert.Contains(t, feats, "P1_pos: <START-1>")
	assert.Contains(t, feats, "P2_pos: <START-2>")
}

func TestLatentFeaturesReferencePrefixLabels(t *testing.T) {
	e := NewExtractor(Resources{})
	e.SetTokens([]string{"The", "dog", "barks"})
	feats := e.Latent(0, []string{"DT", "NN"}, 2)

	assert.Contains(t, feats, "P1_pos: NN")
	assert.Contains(t, feats, "P2_pos: DT")
}

func TestLatentFeaturesUseCoarseMappingWhenProvided(t *testing.T) {
	e := NewExtractor(Resources{Mapping: map[string]string{"NN": "NOUN", "DT": "DET"}})
	e.SetTokens([]string{"The", "dog", "barks"})
	feats := e.Latent(0, []string{"DT", "NN"}, 2)

	assert.Contains(t, feats, "P1_wc: NOUN")
	assert.Contains(t, feats, "P2_wc: DET")
}

func TestBrownAndLexiconFeaturesOnlyAppearWhenConfigured(t *testing.T) {
	withRes := NewExtractor(Resources{
		Brown:   map[string]BrownEntry{"dog": {Cluster: "0101", LogFreq: 3}},
		Lexicon: map[string][]string{"dog": {"NN"}},
	})
	feats := withRes.Static([]string{"The", "dog", "barks"}, 1)
	assert.Contains(t, feats, "W_brown: 0101")
	assert.Contains(t, feats, "W_lex: NN")

	bare := NewExtractor(Resources{})
	bareFeats := bare.Static([]string{"The", "dog", "barks"}, 1)
	for _, f := range bareFeats {
		assert.NotContains(t, f, "W_brown")
		assert.NotContains(t, f, "W_lex")
	}
}

func TestRoundLogAndRuneHelpers(t *testing.T) {
	assert.Equal(t, 0, roundLog(0))
	require.Greater(t, roundLog(100), 0)
	assert.Equal(t, "hel", firstRunes("hello", 3))
	assert.Equal(t, "llo", lastRunes("hello", 3))
	assert.Equal(t, "hi", firstRunes("hi", 3))
}

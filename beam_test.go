package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLabelFixture() (*Registry, *Store, *Extractor) {
	reg := NewRegistry()
	reg.Register([]string{"A", "B"})
	store := NewStore(reg.Size())
	ext := NewExtractor(Resources{})
	return reg, store, ext
}

func TestDecodePicksHighestScoringPath(t *testing.T) {
	reg, store, ext := twoLabelFixture()
	store.setWeightVec("W_word: cat", []float64{5, 0})
	store.setWeightVec("W_word: sleeps", []float64{0, 5})

	sentence := []string{"cat", "sleeps"}
	ext.SetTokens(sentence)
	labels := Decode(store, reg, ext, sentence, 0, DefaultBeamWidth, DefaultBeamHistory)

	assert.Equal(t, []string{"A", "B"}, labels)
}

func TestDecodeIsDeterministicOnTies(t *testing.T) {
	reg, store, ext := twoLabelFixture()
	// No feature fires with a nonzero weight, so every label scores
	// zero at every position: the decoder must always prefer the
	// smaller (rarer, per registration order) label id.
	sentence := []string{"x", "y"}
	ext.SetTokens(sentence)
	labels := Decode(store, reg, ext, sentence, 0, DefaultBeamWidth, DefaultBeamHistory)

	assert.Equal(t, []string{"A", "A"}, labels)
}

func TestDecodeTrainDetectsEarlyFallOff(t *testing.T) {
	reg, store, ext := twoLabelFixture()
	// With a beam of 1, the decoder commits to B at position 0, so the
	// gold prefix ["A"] never survives to be extended.
	store.setWeightVec("W_word: cat", []float64{0, 5})
	ext.SetTokens([]string{"cat", "sleeps"})

	beam, decoded, matched := DecodeTrain(store, reg, ext, []string{"cat", "sleeps"}, []string{"A", "B"}, 0, 1, DefaultBeamHistory)

	assert.False(t, matched)
	assert.Equal(t, 1, decoded)
	require.Len(t, beam, 1)
	assert.Equal(t, []string{"B"}, beam[0].labels)
}

func TestDecodeTrainReportsFullMatchWhenGoldSurvives(t *testing.T) {
	reg, store, ext := twoLabelFixture()
	store.setWeightVec("W_word: cat", []float64{5, 0})
	store.setWeightVec("W_word: sleeps", []float64{0, 5})
	ext.SetTokens([]string{"cat", "sleeps"})

	beam, decoded, matched := DecodeTrain(store, reg, ext, []string{"cat", "sleeps"}, []string{"A", "B"}, 0, DefaultBeamWidth, DefaultBeamHistory)

	assert.True(t, matched)
	assert.Equal(t, 2, decoded)
	assert.Equal(t, []string{"A", "B"}, beam[0].labels)
}

func TestHistoryKeyTruncatesToWindow(t *testing.T) {
	assert.Equal(t, "B\x1fC", historyKey([]string{"A", "B", "C"}, 2))
	assert.Equal(t, "A\x1fB\x1fC", historyKey([]string{"A", "B", "C"}, 5))
}

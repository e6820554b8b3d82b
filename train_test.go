package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyCorpus() *Corpus {
	return &Corpus{
		Tokens:  []string{"cat", "sleeps", "dog", "barks"},
		Labels:  []string{"N", "V", "N", "V"},
		Offsets: []int{0, 2},
		Lengths: []int{2, 2},
	}
}

func TestTrainerMemorizesTrivialCorpus(t *testing.T) {
	reg := NewRegistry()
	store := NewStore(0)
	ext := NewExtractor(Resources{})
	trainer := NewTrainer(reg, store, ext)

	corpus := tinyCorpus()
	stats := trainer.Fit(corpus, 20)
	store.Average(trainer.Counter())

	require.Len(t, stats, 20)
	ext.SetTokens(corpus.Tokens)
	for s := 0; s < corpus.NumSentences(); s++ {
		tokens, gold := corpus.Sentence(s)
		start := corpus.Offsets[s]
		predicted := Decode(store, reg, ext, tokens, start, DefaultBeamWidth, DefaultBeamHistory)
		assert.Equal(t, gold, predicted)
	}
}

func TestTrainerCounterIsMonotonic(t *testing.T) {
	reg := NewRegistry()
	store := NewStore(0)
	ext := NewExtractor(Resources{})
	trainer := NewTrainer(reg, store, ext)

	corpus := tinyCorpus()
	totalTokens := len(corpus.Tokens)

	// The counter advances by each sentence's decoded-prefix length
	// (spec's "counter += len(predicted_prefix)"), so it strictly
	// increases every pass and stays within [sentences, tokens] per
	// iteration regardless of how many early updates fire.
	prev := 0.0
	for i := 0; i < 3; i++ {
		trainer.Fit(corpus, 1)
		cur := trainer.Counter()
		assert.Greater(t, cur, prev)
		prev = cur
	}
	assert.GreaterOrEqual(t, trainer.Counter(), float64(3*corpus.NumSentences()))
	assert.LessOrEqual(t, trainer.Counter(), float64(3*totalTokens))
}

func TestTrainerSkipsUpdatesOnIgnoreLabel(t *testing.T) {
	reg := NewRegistry()
	reg.SetIgnoreLabel("_")
	store := NewStore(0)
	ext := NewExtractor(Resources{})
	trainer := NewTrainer(reg, store, ext)

	corpus := &Corpus{
		Tokens:  []string{"cat", "sleeps"},
		Labels:  []string{"_", "V"},
		Offsets: []int{0},
		Lengths: []int{2},
	}
	// Registering must not be tripped up by the ignore label appearing
	// in the corpus, and fitting must not panic or corrupt the store.
	stats := trainer.Fit(corpus, 2)
	assert.Len(t, stats, 2)
	assert.Equal(t, 1, reg.Size())
}

func TestShuffleDeterministicIsReproducible(t *testing.T) {
	a := []int{0, 1, 2, 3, 4, 5}
	b := []int{0, 1, 2, 3, 4, 5}
	shuffleDeterministic(a, 7)
	shuffleDeterministic(b, 7)
	assert.Equal(t, a, b)
}

package sometag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taggerCorpus() *Corpus {
	return &Corpus{
		Tokens:  []string{"cat", "sleeps", "dog", "barks", "cat", "runs"},
		Labels:  []string{"N", "V", "N", "V", "N", "V"},
		Offsets: []int{0, 2, 4},
		Lengths: []int{2, 2, 2},
	}
}

func TestTaggerTrainAndTagRoundTrip(t *testing.T) {
	tagger := NewTagger(Resources{}, "")
	tagger.Train(taggerCorpus(), 15)

	predicted := tagger.Tag(taggerCorpus())
	assert.Equal(t, taggerCorpus().Labels, predicted)
}

func TestTaggerSaveLoadPreservesBehavior(t *testing.T) {
	tagger := NewTagger(Resources{}, "")
	tagger.Train(taggerCorpus(), 15)

	var buf bytes.Buffer
	require.NoError(t, tagger.Save(&buf))

	loaded, err := LoadTagger(&buf, nil, DefaultBeamWidth, DefaultBeamHistory, "")
	require.NoError(t, err)

	predicted := loaded.Tag(taggerCorpus())
	assert.Equal(t, taggerCorpus().Labels, predicted)
}

func TestTaggerEvaluateReportsAccuracy(t *testing.T) {
	tagger := NewTagger(Resources{}, "")
	tagger.Train(taggerCorpus(), 15)

	result := tagger.Evaluate(taggerCorpus())
	assert.Equal(t, 1.0, result.Accuracy())
}

func TestTaggerLoadPriorModelOnlyTrainingFromScratch(t *testing.T) {
	base := NewTagger(Resources{}, "")
	base.Train(taggerCorpus(), 15)

	var buf bytes.Buffer
	require.NoError(t, base.Save(&buf))

	fresh := NewTagger(Resources{}, "")
	require.NoError(t, fresh.LoadPriorModel(&buf))
	// Zero training iterations still register the corpus's labels (so
	// the fresh registry's id space matches the prior's) but apply no
	// perceptron updates, leaving the fresh tagger scoring purely off
	// the folded-in prior.
	fresh.Train(taggerCorpus(), 0)

	predicted := fresh.Tag(taggerCorpus())
	assert.Equal(t, taggerCorpus().Labels, predicted)
}

func TestCrossValidateReturnsOneResultPerFold(t *testing.T) {
	corpus := &Corpus{
		Tokens:  []string{"cat", "sleeps", "dog", "barks", "cat", "runs", "dog", "jumps"},
		Labels:  []string{"N", "V", "N", "V", "N", "V", "N", "V"},
		Offsets: []int{0, 2, 4, 6},
		Lengths: []int{2, 2, 2, 2},
	}
	folds, mean, ci := CrossValidate(corpus, 4, 5, Resources{}, "")
	assert.Len(t, folds, 4)
	assert.GreaterOrEqual(t, mean, 0.0)
	assert.GreaterOrEqual(t, ci, 0.0)
}

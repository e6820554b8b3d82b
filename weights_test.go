package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreApplyUpdateAndScore(t *testing.T) {
	s := NewStore(3)
	s.ApplyUpdate([]string{"W_word: dog"}, 1, 0, true, 1)

	score := s.ScoreStatic([]string{"W_word: dog"})
	assert.Equal(t, 1.0, score.AtVec(1))
	assert.Equal(t, -1.0, score.AtVec(0))
	assert.Equal(t, 0.0, score.AtVec(2))
}

func TestStoreGrowPreservesExistingWeights(t *testing.T) {
	s := NewStore(2)
	s.ApplyUpdate([]string{"bias"}, 1, 0, true, 1)
	s.Grow(4)

	assert.Equal(t, 4, s.Size())
	assert.Equal(t, 1.0, s.Weight("bias", 1))
	assert.Equal(t, 0.0, s.Weight("bias", 3))
}

func TestStoreGrowIsNoOpWhenSmaller(t *testing.T) {
	s := NewStore(4)
	s.Grow(2)
	assert.Equal(t, 4, s.Size())
}

func TestStoreAverageMatchesClosedForm(t *testing.T) {
	// W[0] accumulates +1 per call (5 total); C[0] accumulates the
	// counter argument per call (1+2+3+4+5 = 15). Averaging against
	// totalCounter=5 leaves W[0] = 5 - 15/5 = 2, and symmetrically
	// W[1] = -5 - (-15)/5 = -2.
	s := NewStore(2)
	for i := 1; i <= 5; i++ {
		s.ApplyUpdate([]string{"bias"}, 0, 1, true, float64(i))
	}
	s.Average(5)

	assert.InDelta(t, 2.0, s.Weight("bias", 0), 1e-9)
	assert.InDelta(t, -2.0, s.Weight("bias", 1), 1e-9)
}

func TestStorePriorFoldedIntoScoreAndAverage(t *testing.T) {
	prior := NewStore(2)
	prior.setWeightVec("bias", []float64{2, -2})

	s := NewStore(2)
	s.SetPrior(prior)
	score := s.ScoreStatic([]string{"bias"})
	assert.Equal(t, 2.0, score.AtVec(0))
	assert.Equal(t, -2.0, score.AtVec(1))

	s.Average(1)
	assert.Equal(t, 2.0, s.Weight("bias", 0))
	assert.Equal(t, -2.0, s.Weight("bias", 1))
}

func TestApplyUpdateIgnoresNullPredictionPath(t *testing.T) {
	s := NewStore(2)
	s.ApplyUpdate([]string{"bias"}, 0, 0, false, 1)
	assert.Equal(t, 1.0, s.Weight("bias", 0))
	assert.Equal(t, 0.0, s.Weight("bias", 1))
}

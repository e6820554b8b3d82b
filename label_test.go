package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterByFrequencyOrdersRarestFirst(t *testing.T) {
	r := NewRegistry()
	r.RegisterByFrequency([]string{"NN", "NN", "NN", "DT", "DT", "VB"})

	vbID, ok := r.IDOf("VB")
	require.True(t, ok)
	dtID, _ := r.IDOf("DT")
	nnID, _ := r.IDOf("NN")

	assert.Less(t, vbID, dtID)
	assert.Less(t, dtID, nnID)
}

func TestRegistryGrowsMonotonically(t *testing.T) {
	r := NewRegistry()
	r.Register([]string{"DT", "NN"})
	nnID, _ := r.IDOf("NN")

	r.Register([]string{"VB"})
	nnIDAfter, _ := r.IDOf("NN")
	vbID, _ := r.IDOf("VB")

	assert.Equal(t, nnID, nnIDAfter)
	assert.Equal(t, 2, vbID)
	assert.Equal(t, 3, r.Size())
}

func TestIgnoreIDTracksRegistrySize(t *testing.T) {
	r := NewRegistry()
	r.SetIgnoreLabel("_")
	r.Register([]string{"DT", "NN"})

	id, ok := r.IgnoreID()
	require.True(t, ok)
	assert.Equal(t, 2, id)

	r.Register([]string{"VB"})
	id, ok = r.IgnoreID()
	require.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestIgnoreLabelNeverRegistered(t *testing.T) {
	r := NewRegistry()
	r.SetIgnoreLabel("_")
	r.Register([]string{"_", "DT", "_", "NN"})

	assert.Equal(t, 2, r.Size())
	assert.Equal(t, []string{"DT", "NN"}, r.Labels())

	id, ok := r.IDOf("_")
	require.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestLabelOfRoundTrips(t *testing.T) {
	r := NewRegistry()
	r.Register([]string{"DT", "NN", "VB"})
	for _, label := range []string{"DT", "NN", "VB"} {
		id, ok := r.IDOf(label)
		require.True(t, ok)
		assert.Equal(t, label, r.LabelOf(id))
	}
}
